// Package review lets a human confirm or adjust discovery output.
//
// Information Hiding:
// - Review logic is a pure transition function over explicit state
// - Side effects (prompting, re-extraction) live only in the Driver
// - Concrete interaction medium hidden behind Prompter
package review

import (
	"errors"
	"fmt"
)

// ErrAborted is returned when the reviewer aborts. It cancels the run.
var ErrAborted = errors.New("review aborted")

// ErrFinished is returned for an event applied after Confirm or Abort.
var ErrFinished = errors.New("review already finished")

// Phase is the review state.
type Phase int

const (
	Presenting Phase = iota
	Confirmed
	Aborted
)

func (p Phase) String() string {
	switch p {
	case Presenting:
		return "presenting"
	case Confirmed:
		return "confirmed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events are accepted.
func (p Phase) Terminal() bool {
	return p == Confirmed || p == Aborted
}

// Subject is a value under review. Implementations return new values and
// never mutate the receiver.
type Subject[T any] interface {
	WithItem(item string) (T, error)
	WithoutItem(item string) (T, error)
	Equal(other T) bool
}

// State is the phase plus the value being presented.
type State[T any] struct {
	Phase Phase
	Value T
}

// EventKind enumerates reviewer input.
type EventKind int

const (
	EventConfirm EventKind = iota
	EventAdd
	EventRemove
	EventEdit
	EventReprompt
	EventAbort
)

func (k EventKind) String() string {
	switch k {
	case EventConfirm:
		return "confirm"
	case EventAdd:
		return "add"
	case EventRemove:
		return "remove"
	case EventEdit:
		return "edit"
	case EventReprompt:
		return "reprompt"
	case EventAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Event is one reviewer action. Item is used by Add and Remove, Value by
// Edit, Hint by Reprompt.
type Event[T any] struct {
	Kind  EventKind
	Item  string
	Value T
	Hint  string
}

// Confirm accepts the presented value.
func Confirm[T any]() Event[T] { return Event[T]{Kind: EventConfirm} }

// Add adds item to the presented value.
func Add[T any](item string) Event[T] { return Event[T]{Kind: EventAdd, Item: item} }

// Remove removes item from the presented value.
func Remove[T any](item string) Event[T] { return Event[T]{Kind: EventRemove, Item: item} }

// Edit replaces the presented value.
func Edit[T any](value T) Event[T] { return Event[T]{Kind: EventEdit, Value: value} }

// Reprompt asks for a fresh candidate, guided by hint.
func Reprompt[T any](hint string) Event[T] { return Event[T]{Kind: EventReprompt, Hint: hint} }

// Abort ends the review and the run.
func Abort[T any]() Event[T] { return Event[T]{Kind: EventAbort} }

// Effect is work the driver must perform after a transition.
type Effect int

const (
	EffectNone Effect = iota
	// EffectReprompt asks the driver for a fresh candidate, applied as Edit.
	EffectReprompt
)

// Transition applies ev to s. It has no side effects. On error the
// returned state is s unchanged.
func Transition[T Subject[T]](s State[T], ev Event[T]) (State[T], Effect, error) {
	if s.Phase.Terminal() {
		return s, EffectNone, fmt.Errorf("%w: %s in %s phase", ErrFinished, ev.Kind, s.Phase)
	}

	switch ev.Kind {
	case EventConfirm:
		return State[T]{Phase: Confirmed, Value: s.Value}, EffectNone, nil
	case EventAbort:
		return State[T]{Phase: Aborted, Value: s.Value}, EffectNone, nil
	case EventAdd:
		v, err := s.Value.WithItem(ev.Item)
		if err != nil {
			return s, EffectNone, err
		}
		return State[T]{Phase: Presenting, Value: v}, EffectNone, nil
	case EventRemove:
		v, err := s.Value.WithoutItem(ev.Item)
		if err != nil {
			return s, EffectNone, err
		}
		return State[T]{Phase: Presenting, Value: v}, EffectNone, nil
	case EventEdit:
		return State[T]{Phase: Presenting, Value: ev.Value}, EffectNone, nil
	case EventReprompt:
		return s, EffectReprompt, nil
	default:
		return s, EffectNone, fmt.Errorf("unknown review event %d", ev.Kind)
	}
}
