package search

// State is a phase of a search run
type State int

const (
	Idle State = iota
	Preparing
	Scanning
	Restoring
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Scanning:
		return "scanning"
	case Restoring:
		return "restoring"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
