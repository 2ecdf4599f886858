package review

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func presenting(names ...string) State[NameList] {
	return State[NameList]{Phase: Presenting, Value: NameList(names)}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name      string
		event     Event[NameList]
		wantPhase Phase
		wantValue NameList
		wantFx    Effect
		wantErr   bool
	}{
		{"confirm", Confirm[NameList](), Confirmed, NameList{"view", "sort"}, EffectNone, false},
		{"abort", Abort[NameList](), Aborted, NameList{"view", "sort"}, EffectNone, false},
		{"add", Add[NameList]("index"), Presenting, NameList{"view", "sort", "index"}, EffectNone, false},
		{"remove", Remove[NameList]("view"), Presenting, NameList{"sort"}, EffectNone, false},
		{"edit", Edit(NameList{"merge"}), Presenting, NameList{"merge"}, EffectNone, false},
		{"reprompt", Reprompt[NameList]("missing merge"), Presenting, NameList{"view", "sort"}, EffectReprompt, false},
		{"add duplicate", Add[NameList]("sort"), Presenting, NameList{"view", "sort"}, EffectNone, true},
		{"remove unknown", Remove[NameList]("merge"), Presenting, NameList{"view", "sort"}, EffectNone, true},
		{"add empty", Add[NameList]("  "), Presenting, NameList{"view", "sort"}, EffectNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fx, err := Transition(presenting("view", "sort"), tt.event)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantPhase, got.Phase)
			assert.Equal(t, tt.wantValue, got.Value)
			assert.Equal(t, tt.wantFx, fx)
		})
	}
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	in := presenting("view", "sort", "index")
	_, _, err := Transition(in, Remove[NameList]("view"))
	require.NoError(t, err)
	assert.Equal(t, NameList{"view", "sort", "index"}, in.Value)
}

func TestTransitionAfterTerminal(t *testing.T) {
	for _, phase := range []Phase{Confirmed, Aborted} {
		s := State[NameList]{Phase: phase, Value: NameList{"view"}}
		got, fx, err := Transition(s, Add[NameList]("sort"))
		require.ErrorIs(t, err, ErrFinished)
		assert.Equal(t, s, got)
		assert.Equal(t, EffectNone, fx)
	}
}

// eventFromCode maps a generated number onto an event over a small name pool,
// so generated sequences hit duplicates and unknown names often.
func eventFromCode(code int) Event[NameList] {
	pool := []string{"view", "sort", "index", "merge"}
	name := pool[code%len(pool)]
	switch (code / len(pool)) % 6 {
	case 0:
		return Add[NameList](name)
	case 1:
		return Remove[NameList](name)
	case 2:
		return Edit(NameList{name})
	case 3:
		return Reprompt[NameList](name)
	case 4:
		return Confirm[NameList]()
	default:
		return Abort[NameList]()
	}
}

func TestTransitionProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("terminal phases are absorbing and errors leave state unchanged", prop.ForAll(
		func(codes []int) bool {
			s := presenting("view", "sort")
			for _, c := range codes {
				next, fx, err := Transition(s, eventFromCode(c))
				if err != nil {
					if !next.Value.Equal(s.Value) || next.Phase != s.Phase {
						return false
					}
					continue
				}
				if s.Phase.Terminal() {
					return false
				}
				if fx == EffectReprompt && !next.Value.Equal(s.Value) {
					return false
				}
				s = next
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 23)),
	))

	properties.Property("names stay unique under add and remove", prop.ForAll(
		func(codes []int) bool {
			s := presenting()
			for _, c := range codes {
				ev := eventFromCode(c)
				if ev.Kind != EventAdd && ev.Kind != EventRemove {
					continue
				}
				if next, _, err := Transition(s, ev); err == nil {
					s = next
				}
			}
			seen := map[string]bool{}
			for _, n := range s.Value {
				if seen[n] {
					return false
				}
				seen[n] = true
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 7)),
	))

	properties.Property("adding then removing a fresh name is a no-op", prop.ForAll(
		func(name string) bool {
			name = "x" + name
			s := presenting("view", "sort")
			added, _, err := Transition(s, Add[NameList](name))
			if err != nil {
				return false
			}
			removed, _, err := Transition(added, Remove[NameList](name))
			return err == nil && removed.Value.Equal(s.Value)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestPhaseAndEventStrings(t *testing.T) {
	assert.Equal(t, "presenting", Presenting.String())
	assert.Equal(t, "confirmed", Confirmed.String())
	assert.Equal(t, "aborted", Aborted.String())
	for k := EventConfirm; k <= EventAbort; k++ {
		assert.NotEqual(t, "unknown", k.String(), fmt.Sprintf("event %d", k))
	}
	assert.False(t, errors.Is(ErrAborted, ErrFinished))
}
