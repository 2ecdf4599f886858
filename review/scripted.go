package review

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by ScriptedPrompter when it runs out of events.
var ErrScriptExhausted = errors.New("review script exhausted")

// ScriptedPrompter replays a fixed list of events. It is used for
// non-interactive runs and tests.
type ScriptedPrompter[T any] struct {
	mu        sync.Mutex
	events    []Event[T]
	presented []State[T]
	reports   []error
}

// NewScriptedPrompter creates a prompter that replays events in order.
func NewScriptedPrompter[T any](events ...Event[T]) *ScriptedPrompter[T] {
	return &ScriptedPrompter[T]{events: events}
}

func (p *ScriptedPrompter[T]) Present(_ context.Context, s State[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.presented = append(p.presented, s)
	return nil
}

func (p *ScriptedPrompter[T]) Next(_ context.Context) (Event[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return Event[T]{}, ErrScriptExhausted
	}
	ev := p.events[0]
	p.events = p.events[1:]
	return ev, nil
}

func (p *ScriptedPrompter[T]) Report(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, err)
}

// Presented returns every state shown so far.
func (p *ScriptedPrompter[T]) Presented() []State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]State[T](nil), p.presented...)
}

// Reports returns every error reported so far.
func (p *ScriptedPrompter[T]) Reports() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.reports...)
}

// Verify ScriptedPrompter implements Prompter
var _ Prompter[NameList] = (*ScriptedPrompter[NameList])(nil)
