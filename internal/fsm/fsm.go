package fsm

import "fmt"

type State string

type Event string

const (
	StateAwaitGreeting            State = "await_greeting"
	StateAwaitResponse            State = "await_response"
	StateAwaitResponseOrAuthError State = "await_response_or_auth_error"
	StateFinished                 State = "finished"
	StateFailed                   State = "failed"
)

const (
	// EventGreetingOpen is a greeting that requires no authentication.
	EventGreetingOpen Event = "greeting_open"
	// EventGreetingChallenge is a greeting carrying a digest salt.
	EventGreetingChallenge Event = "greeting_challenge"
	// EventResponse is a response dispatched while more commands remain.
	EventResponse Event = "response"
	// EventDrained is a response dispatched that emptied the queue.
	EventDrained Event = "drained"
	EventFail    Event = "fail"
)

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		if current == StateFinished {
			return current, invalidTransition(current, event)
		}
		return StateFailed, nil
	}

	switch current {
	case StateAwaitGreeting:
		switch event {
		case EventGreetingOpen:
			return StateAwaitResponse, nil
		case EventGreetingChallenge:
			return StateAwaitResponseOrAuthError, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAwaitResponse, StateAwaitResponseOrAuthError:
		switch event {
		case EventResponse:
			return StateAwaitResponse, nil
		case EventDrained:
			return StateFinished, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFinished, StateFailed:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// Terminal reports whether no further events are accepted.
func Terminal(s State) bool {
	return s == StateFinished || s == StateFailed
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
