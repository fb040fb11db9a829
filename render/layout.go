package render

import (
	"fmt"
	"slices"

	"github.com/tailored-agentic-units/livetext/session"
)

// Mode selects how history and live text are laid out.
type Mode string

const (
	// ModeNormal interleaves history and live text in one pane.
	ModeNormal Mode = "normal"
	// ModeHybrid shows a history pane above a live pane.
	ModeHybrid Mode = "hybrid"
	// ModeSplit shows one pane per participant, local party last.
	ModeSplit Mode = "split"
)

const (
	historyPane = "History"
	livePane    = "Live"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNormal, ModeHybrid, ModeSplit:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Layout formats session state for one mode. History builds the cacheable
// history-only output; Overlay composes live streams on top of a copy of it.
type Layout interface {
	History(entries []session.HistoryEntry, s Settings) (Output, error)
	Overlay(base Output, streams []session.StreamView, s Settings) (Output, error)
}

// LayoutFor returns the built-in layout for mode.
func LayoutFor(mode Mode) (Layout, error) {
	l, ok := defaultLayouts()[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return l, nil
}

func defaultLayouts() map[Mode]Layout {
	return map[Mode]Layout{
		ModeNormal: normalLayout{},
		ModeHybrid: hybridLayout{},
		ModeSplit:  splitLayout{},
	}
}

type normalLayout struct{}

func (normalLayout) History(entries []session.HistoryEntry, s Settings) (Output, error) {
	pane := Pane{Title: historyPane}
	for _, e := range entries {
		pane.Lines = append(pane.Lines, historyLine(e, s))
	}
	return Output{Mode: ModeNormal, Panes: []Pane{pane}, Palette: s.Palette}, nil
}

func (normalLayout) Overlay(base Output, streams []session.StreamView, s Settings) (Output, error) {
	if len(base.Panes) != 1 {
		return Output{}, fmt.Errorf("normal layout: expected 1 pane, got %d", len(base.Panes))
	}
	for _, v := range visible(streams) {
		base.Panes[0].Lines = append(base.Panes[0].Lines, liveLine(v, s))
	}
	return base, nil
}

type hybridLayout struct{}

func (hybridLayout) History(entries []session.HistoryEntry, s Settings) (Output, error) {
	hist := Pane{Title: historyPane}
	for _, e := range entries {
		hist.Lines = append(hist.Lines, historyLine(e, s))
	}
	return Output{
		Mode:    ModeHybrid,
		Panes:   []Pane{hist, {Title: livePane}},
		Palette: s.Palette,
	}, nil
}

func (hybridLayout) Overlay(base Output, streams []session.StreamView, s Settings) (Output, error) {
	if len(base.Panes) != 2 {
		return Output{}, fmt.Errorf("hybrid layout: expected 2 panes, got %d", len(base.Panes))
	}
	for _, v := range visible(streams) {
		base.Panes[1].Lines = append(base.Panes[1].Lines, liveLine(v, s))
	}
	return base, nil
}

type splitLayout struct{}

func (splitLayout) History(entries []session.HistoryEntry, s Settings) (Output, error) {
	var panes []Pane
	index := map[string]int{}
	local := -1

	for _, e := range entries {
		i, ok := index[e.Sender]
		if !ok {
			i = len(panes)
			index[e.Sender] = i
			panes = append(panes, Pane{Title: e.Sender, Tag: e.Tag})
			if e.Local {
				local = i
			}
		}
		panes[i].Lines = append(panes[i].Lines, Line{{Text: e.Body, Style: StyleText, Tag: e.Tag}})
	}

	if local >= 0 && local != len(panes)-1 {
		p := panes[local]
		panes = append(slices.Delete(panes, local, local+1), p)
	}

	return Output{Mode: ModeSplit, Panes: panes, Palette: s.Palette}, nil
}

func (splitLayout) Overlay(base Output, streams []session.StreamView, s Settings) (Output, error) {
	for _, v := range visible(streams) {
		line := Line(s.liveSegments(v))

		i := slices.IndexFunc(base.Panes, func(p Pane) bool { return p.Title == v.Sender })
		if i < 0 {
			pane := Pane{Title: v.Sender, Tag: v.Tag}
			at := len(base.Panes)
			if at > 0 && base.Panes[at-1].Tag == session.TagLocal {
				at--
			}
			base.Panes = slices.Insert(base.Panes, at, pane)
			i = at
		}
		base.Panes[i].Lines = append(base.Panes[i].Lines, line)
	}
	return base, nil
}

func historyLine(e session.HistoryEntry, s Settings) Line {
	return Line{
		{Text: s.saysLabel(e.Sender), Style: StyleLabel, Tag: e.Tag},
		{Text: e.Body, Style: StyleText, Tag: e.Tag},
	}
}

func liveLine(v session.StreamView, s Settings) Line {
	line := Line{{Text: s.typingLabel(v.Sender), Style: StyleLabel, Tag: v.Tag}}
	return append(line, s.liveSegments(v)...)
}

func visible(streams []session.StreamView) []session.StreamView {
	return slices.DeleteFunc(slices.Clone(streams), func(v session.StreamView) bool {
		return v.Text == ""
	})
}
