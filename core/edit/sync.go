package edit

// SyncState reports whether a remote reconstruction is believed to match the
// remote party's actual input.
type SyncState int

const (
	InSync SyncState = iota
	OutOfSync
)

func (s SyncState) String() string {
	switch s {
	case InSync:
		return "in_sync"
	case OutOfSync:
		return "out_of_sync"
	default:
		return "unknown"
	}
}
