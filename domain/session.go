package domain

import "time"

// State is a position in the conversation state machine.
type State string

const (
	StateMain         State = "main"
	StateNameInput    State = "name_input"
	StateAddTask      State = "add_task"
	StateCompleteTask State = "complete_task"
	StateEditTask     State = "edit_task"
)

// States lists every known state.
var States = []State{StateMain, StateNameInput, StateAddTask, StateCompleteTask, StateEditTask}

// Known reports whether s belongs to the closed set of states.
func (s State) Known() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Session is the conversational position of a single handle.
type Session struct {
	UserID        string    `json:"userId"`
	Menu          State     `json:"currentMenu"`
	AwaitingInput bool      `json:"waitingForInput"`
	InputType     State     `json:"inputType,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MainSession returns the idle session for handle.
func MainSession(handle string) *Session {
	return &Session{UserID: handle, Menu: StateMain}
}

// AwaitingSession returns a session waiting for free-form input completing state.
func AwaitingSession(handle string, state State) *Session {
	return &Session{UserID: handle, Menu: state, AwaitingInput: true, InputType: state}
}

// Current resolves the effective state. Inconsistent records read as main.
func (s *Session) Current() State {
	if s == nil || !s.AwaitingInput || !s.InputType.Known() || s.InputType == StateMain {
		return StateMain
	}
	return s.InputType
}

// Same reports whether two sessions describe the same position.
func (s *Session) Same(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Current() == other.Current()
}
