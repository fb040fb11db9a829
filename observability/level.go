package observability

import "log/slog"

// Level is an event severity on the OpenTelemetry SeverityNumber scale.
// Each named level is the lowest number of its OTel range.
type Level int

const (
	LevelVerbose Level = 5
	LevelInfo    Level = 9
	LevelWarning Level = 13
	LevelError   Level = 17
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

// String returns the OTel severity text. Numbers above the ERROR range
// report FATAL.
func (l Level) String() string {
	if l > 20 {
		return "FATAL"
	}
	return levelNames[max(l-1, 0)/4]
}

// SlogLevel maps l onto the four slog levels. TRACE folds into Debug and
// FATAL into Error.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l < LevelInfo:
		return slog.LevelDebug
	case l < LevelWarning:
		return slog.LevelInfo
	case l < LevelError:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
