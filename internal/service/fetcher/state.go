package fetcher

// State состояние цикла выгрузки
type State int

const (
	StateIdle State = iota
	StateFetching
	StateNormalizing
	StateCheckpointing
	StateDrained
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateNormalizing:
		return "normalizing"
	case StateCheckpointing:
		return "checkpointing"
	case StateDrained:
		return "drained"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal цикл завершён
func (s State) IsTerminal() bool {
	return s == StateDrained || s == StateCancelled || s == StateFailed
}
