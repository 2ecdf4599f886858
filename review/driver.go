package review

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/richinex/cmdsaw/model"
)

// Prompter is the interaction medium: it shows a state and reads one event.
type Prompter[T any] interface {
	Present(ctx context.Context, s State[T]) error
	Next(ctx context.Context) (Event[T], error)
	// Report shows a rejected event or a failed side effect.
	Report(err error)
}

// Reprompter produces a fresh candidate for the current value.
type Reprompter[T any] func(ctx context.Context, current T, hint string) (T, error)

// Driver feeds prompter events through Transition and performs effects.
type Driver[T Subject[T]] struct {
	Prompter Prompter[T]
	Reprompt Reprompter[T]
	Logger   *log.Logger
}

// Run reviews initial until the reviewer confirms or aborts. The outcome is
// ReviewConfirmed when the confirmed value equals initial, ReviewModified
// otherwise. Abort returns ErrAborted.
func (d *Driver[T]) Run(ctx context.Context, initial T) (T, model.ReviewOutcome, error) {
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	state := State[T]{Phase: Presenting, Value: initial}
	for {
		if err := ctx.Err(); err != nil {
			return initial, model.ReviewNone, err
		}
		if err := d.Prompter.Present(ctx, state); err != nil {
			return initial, model.ReviewNone, fmt.Errorf("present review: %w", err)
		}
		ev, err := d.Prompter.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrAborted) {
				return initial, model.ReviewNone, ErrAborted
			}
			return initial, model.ReviewNone, fmt.Errorf("read review input: %w", err)
		}

		next, effect, err := Transition(state, ev)
		if err != nil {
			d.Prompter.Report(err)
			continue
		}
		state = next
		logger.Debug("review event", "event", ev.Kind, "phase", state.Phase)

		if effect == EffectReprompt {
			state = d.reprompt(ctx, state, ev.Hint)
		}

		switch state.Phase {
		case Confirmed:
			if state.Value.Equal(initial) {
				return state.Value, model.ReviewConfirmed, nil
			}
			return state.Value, model.ReviewModified, nil
		case Aborted:
			return initial, model.ReviewNone, ErrAborted
		}
	}
}

// reprompt asks for a new candidate; on failure the current value stays.
func (d *Driver[T]) reprompt(ctx context.Context, state State[T], hint string) State[T] {
	if d.Reprompt == nil {
		d.Prompter.Report(errors.New("re-extraction is not available"))
		return state
	}
	v, err := d.Reprompt(ctx, state.Value, hint)
	if err != nil {
		d.Prompter.Report(fmt.Errorf("re-extraction failed: %w", err))
		return state
	}
	next, _, err := Transition(state, Edit(v))
	if err != nil {
		d.Prompter.Report(err)
		return state
	}
	return next
}
