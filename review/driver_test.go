package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/cmdsaw/model"
)

func TestDriverConfirmUnchanged(t *testing.T) {
	p := NewScriptedPrompter(Confirm[NameList]())
	d := &Driver[NameList]{Prompter: p}

	got, outcome, err := d.Run(context.Background(), NameList{"view", "sort"})
	require.NoError(t, err)
	assert.Equal(t, NameList{"view", "sort"}, got)
	assert.Equal(t, model.ReviewConfirmed, outcome)
	assert.Len(t, p.Presented(), 1)
}

func TestDriverModified(t *testing.T) {
	p := NewScriptedPrompter(
		Remove[NameList]("deprecated-cmd"),
		Add[NameList]("index"),
		Confirm[NameList](),
	)
	d := &Driver[NameList]{Prompter: p}

	got, outcome, err := d.Run(context.Background(), NameList{"view", "deprecated-cmd"})
	require.NoError(t, err)
	assert.Equal(t, NameList{"view", "index"}, got)
	assert.Equal(t, model.ReviewModified, outcome)
	assert.Len(t, p.Presented(), 3)
}

func TestDriverEditBackToInitialIsConfirmed(t *testing.T) {
	p := NewScriptedPrompter(
		Remove[NameList]("sort"),
		Edit(NameList{"view", "sort"}),
		Confirm[NameList](),
	)
	d := &Driver[NameList]{Prompter: p}

	_, outcome, err := d.Run(context.Background(), NameList{"view", "sort"})
	require.NoError(t, err)
	assert.Equal(t, model.ReviewConfirmed, outcome)
}

func TestDriverAbort(t *testing.T) {
	p := NewScriptedPrompter(Add[NameList]("index"), Abort[NameList]())
	d := &Driver[NameList]{Prompter: p}

	got, outcome, err := d.Run(context.Background(), NameList{"view"})
	require.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, NameList{"view"}, got)
	assert.Equal(t, model.ReviewNone, outcome)
}

func TestDriverRejectedEventIsReported(t *testing.T) {
	p := NewScriptedPrompter(Remove[NameList]("merge"), Confirm[NameList]())
	d := &Driver[NameList]{Prompter: p}

	got, outcome, err := d.Run(context.Background(), NameList{"view"})
	require.NoError(t, err)
	assert.Equal(t, NameList{"view"}, got)
	assert.Equal(t, model.ReviewConfirmed, outcome)
	require.Len(t, p.Reports(), 1)
	assert.Contains(t, p.Reports()[0].Error(), "merge")
}

func TestDriverReprompt(t *testing.T) {
	var hints []string
	p := NewScriptedPrompter(Reprompt[NameList]("missing merge"), Confirm[NameList]())
	d := &Driver[NameList]{
		Prompter: p,
		Reprompt: func(_ context.Context, current NameList, hint string) (NameList, error) {
			hints = append(hints, hint)
			return append(NameList{}, append(current, "merge")...), nil
		},
	}

	got, outcome, err := d.Run(context.Background(), NameList{"view"})
	require.NoError(t, err)
	assert.Equal(t, NameList{"view", "merge"}, got)
	assert.Equal(t, model.ReviewModified, outcome)
	assert.Equal(t, []string{"missing merge"}, hints)
}

func TestDriverRepromptFailureKeepsValue(t *testing.T) {
	p := NewScriptedPrompter(Reprompt[NameList](""), Confirm[NameList]())
	d := &Driver[NameList]{
		Prompter: p,
		Reprompt: func(context.Context, NameList, string) (NameList, error) {
			return nil, errors.New("model unavailable")
		},
	}

	got, outcome, err := d.Run(context.Background(), NameList{"view"})
	require.NoError(t, err)
	assert.Equal(t, NameList{"view"}, got)
	assert.Equal(t, model.ReviewConfirmed, outcome)
	require.Len(t, p.Reports(), 1)
	assert.Contains(t, p.Reports()[0].Error(), "model unavailable")
}

func TestDriverRepromptUnavailable(t *testing.T) {
	p := NewScriptedPrompter(Reprompt[NameList]("again"), Confirm[NameList]())
	d := &Driver[NameList]{Prompter: p}

	_, _, err := d.Run(context.Background(), NameList{"view"})
	require.NoError(t, err)
	assert.Len(t, p.Reports(), 1)
}

func TestDriverScriptExhausted(t *testing.T) {
	p := NewScriptedPrompter[NameList]()
	d := &Driver[NameList]{Prompter: p}

	_, _, err := d.Run(context.Background(), NameList{"view"})
	require.ErrorIs(t, err, ErrScriptExhausted)
	assert.False(t, errors.Is(err, ErrAborted))
}

func TestDriverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewScriptedPrompter(Confirm[NameList]())
	d := &Driver[NameList]{Prompter: p}

	_, _, err := d.Run(ctx, NameList{"view"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.Presented())
}

type abortingPrompter struct{ ScriptedPrompter[NameList] }

func (p *abortingPrompter) Next(context.Context) (Event[NameList], error) {
	return Event[NameList]{}, ErrAborted
}

func TestDriverPrompterAbortError(t *testing.T) {
	d := &Driver[NameList]{Prompter: &abortingPrompter{}}
	_, _, err := d.Run(context.Background(), NameList{"view"})
	assert.Equal(t, ErrAborted, err)
}
