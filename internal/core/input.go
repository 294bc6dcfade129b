package core

// Action represents a semantic game action, abstracted from physical key presses.
type Action int

const (
	ActionNone     Action = iota
	ActionUp              // W, K, Up arrow
	ActionDown            // S, J, Down arrow
	ActionLeft            // A, H, Left arrow
	ActionRight           // D, L, Right arrow
	ActionConfirm         // Enter
	ActionBack            // B, Escape
	ActionRestart         // R
	ActionContinue        // C - keep playing after reaching the winning tile
	ActionQuit            // Q, Ctrl+C
	ActionPause           // P
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionConfirm:
		return "Confirm"
	case ActionBack:
		return "Back"
	case ActionRestart:
		return "Restart"
	case ActionContinue:
		return "Continue"
	case ActionQuit:
		return "Quit"
	case ActionPause:
		return "Pause"
	default:
		return "Unknown"
	}
}

// InputFrame holds the actions triggered during one simulation tick.
type InputFrame struct {
	Actions map[Action]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	if f.Actions == nil {
		return false
	}
	return f.Actions[a]
}

// Empty reports whether no action was triggered.
func (f InputFrame) Empty() bool {
	return len(f.Actions) == 0
}

// Clear resets all actions for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
}
