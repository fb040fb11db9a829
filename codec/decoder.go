package codec

import "github.com/tailored-agentic-units/livetext/core/edit"

type decoder struct {
	expect  uint32
	started bool
	sync    edit.SyncState
}

// NewDecoder creates a Decoder that waits for a new or reset packet before
// trusting incremental edits.
func NewDecoder() Decoder {
	return &decoder{sync: edit.OutOfSync}
}

// Decode accepts resync packets unconditionally. Incremental packets are
// accepted only in sequence; any gap leaves the decoder OutOfSync until the
// next resync.
func (d *decoder) Decode(p *Packet) Update {
	if p.IsResync() {
		d.started = true
		d.expect = p.Seq + 1
		d.sync = edit.InSync
		return Update{Seq: p.Seq, Ops: p.Ops, Resync: true, Sync: edit.InSync}
	}

	if !d.started || d.sync == edit.OutOfSync || p.Seq != d.expect {
		d.sync = edit.OutOfSync
		d.expect = p.Seq + 1
		return Update{Seq: p.Seq, Sync: edit.OutOfSync}
	}

	d.expect++
	return Update{Seq: p.Seq, Ops: p.Ops, Sync: edit.InSync}
}

func (d *decoder) Sync() edit.SyncState {
	return d.sync
}
