package dialog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/maxbot/core/session"
)

func TestTransitionHappyPath(t *testing.T) {
	var m Machine
	steps := []struct {
		from  State
		in    Input
		to    State
		reply Reply
	}{
		{StateIdle, Input{Action: ActionStart}, StateAwaitingName, ReplyAskName},
		{StateAwaitingName, Text("  Alice "), StateAwaitingAge, ReplyAskAge},
		{StateAwaitingAge, Text("30"), StateAwaitingCity, ReplyAskCity},
		{StateAwaitingCity, Text("Kazan"), StateAwaitingConfirm, ReplyConfirm},
		{StateAwaitingConfirm, Input{Action: ActionConfirmYes}, StateIdle, ReplyCompleted},
	}
	for _, st := range steps {
		to, eff := m.Transition(st.from, st.in)
		assert.Equal(t, st.to, to, "from %s", st.from)
		assert.Equal(t, st.reply, eff.Reply, "from %s", st.from)
	}

	_, eff := m.Transition(StateAwaitingName, Text("  Alice "))
	assert.Equal(t, "Alice", eff.Name)
	_, eff = m.Transition(StateAwaitingAge, Text(" 30 "))
	assert.Equal(t, 30, eff.Age)
	_, eff = m.Transition(StateAwaitingConfirm, Input{Action: ActionConfirmYes})
	assert.True(t, eff.Complete)
}

func TestTransitionValidation(t *testing.T) {
	var m Machine
	cases := []struct {
		name  string
		state State
		text  string
		reply Reply
	}{
		{"short name", StateAwaitingName, " A ", ReplyNameInvalid},
		{"blank name", StateAwaitingName, "   ", ReplyNameInvalid},
		{"age not a number", StateAwaitingAge, "thirty", ReplyAgeInvalid},
		{"age zero", StateAwaitingAge, "0", ReplyAgeInvalid},
		{"age too high", StateAwaitingAge, "121", ReplyAgeInvalid},
		{"age negative", StateAwaitingAge, "-5", ReplyAgeInvalid},
		{"short city", StateAwaitingCity, "X", ReplyCityInvalid},
		{"empty feedback", StateAwaitingFeedback, "  ", ReplyFeedbackEmpty},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			to, eff := m.Transition(tc.state, Text(tc.text))
			assert.Equal(t, tc.state, to)
			assert.Equal(t, tc.reply, eff.Reply)
			assert.Zero(t, eff.Age)
			assert.Empty(t, eff.Name)
			assert.Empty(t, eff.City)
		})
	}
}

func TestTransitionAgeBounds(t *testing.T) {
	var m Machine
	for _, s := range []string{"1", "120"} {
		to, eff := m.Transition(StateAwaitingAge, Text(s))
		assert.Equal(t, StateAwaitingCity, to)
		assert.Positive(t, eff.Age)
	}
}

func TestTransitionMultibyteName(t *testing.T) {
	var m Machine
	to, eff := m.Transition(StateAwaitingName, Text("Ян"))
	assert.Equal(t, StateAwaitingAge, to)
	assert.Equal(t, "Ян", eff.Name)

	to, _ = m.Transition(StateAwaitingName, Text("Я"))
	assert.Equal(t, StateAwaitingName, to)
}

func TestTransitionConfirm(t *testing.T) {
	var m Machine
	for _, in := range []Input{Text("yes"), Text("YES"), Text(" да "), {Action: ActionConfirmYes}} {
		to, eff := m.Transition(StateAwaitingConfirm, in)
		assert.Equal(t, StateIdle, to)
		assert.True(t, eff.Complete)
	}
	for _, in := range []Input{Text("no"), Text("maybe"), {Action: ActionConfirmNo}} {
		to, eff := m.Transition(StateAwaitingConfirm, in)
		assert.Equal(t, StateAwaitingName, to)
		assert.Equal(t, ReplyRestart, eff.Reply)
		assert.False(t, eff.Complete)
	}
}

func TestTransitionGlobalActions(t *testing.T) {
	var m Machine
	for _, s := range States {
		to, eff := m.Transition(s, Input{Action: ActionReset})
		assert.Equal(t, StateIdle, to)
		assert.True(t, eff.Reset)

		to, _ = m.Transition(s, Input{Action: ActionStart})
		assert.Equal(t, StateAwaitingName, to)

		to, _ = m.Transition(s, Input{Action: ActionFeedback})
		assert.Equal(t, StateAwaitingFeedback, to)
	}
}

func TestTransitionStaleButtons(t *testing.T) {
	var m Machine
	to, eff := m.Transition(StateIdle, Input{Action: ActionConfirmYes})
	assert.Equal(t, StateIdle, to)
	assert.Equal(t, ReplyMenu, eff.Reply)
	assert.False(t, eff.Complete)

	to, eff = m.Transition(StateAwaitingAge, Input{Action: ActionConfirmNo})
	assert.Equal(t, StateAwaitingAge, to)
	assert.Equal(t, ReplyAskAge, eff.Reply)
}

func TestTransitionUnknownState(t *testing.T) {
	to, eff := Machine{}.Transition(State("awaiting_city_weather"), Text("Moscow"))
	assert.Equal(t, StateIdle, to)
	assert.Equal(t, ReplyMenu, eff.Reply)
}

func TestTransitionIsTotal(t *testing.T) {
	var m Machine
	known := make(map[State]bool, len(States))
	for _, s := range States {
		known[s] = true
	}
	texts := []string{"", "x", "Alice", "42", "yes", "/start"}
	for _, s := range States {
		for _, a := range Actions {
			for _, txt := range texts {
				to, eff := m.Transition(s, Input{Action: a, Text: txt})
				require.True(t, known[to], "%s --%s(%q)--> %s", s, a, txt, to)
				_, kb := render(eff.Reply, session.Session{Name: "Alice", Age: 30, City: "Kazan"})
				if eff.Complete || eff.Reply == ReplyConfirm {
					assert.NotNil(t, kb)
				}
			}
		}
	}
}

func TestEffectApply(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := session.Session{UserID: 1, ChatID: 2, State: string(StateAwaitingConfirm), Name: "Alice", Age: 30, City: "Kazan"}

	Effect{Complete: true}.Apply(&s, StateIdle, now)
	assert.True(t, s.Registered)
	assert.Equal(t, now, s.RegisteredAt)
	assert.Equal(t, string(StateIdle), s.State)
	assert.Equal(t, "Alice", s.Name)

	Effect{Reset: true}.Apply(&s, StateIdle, now)
	assert.Empty(t, s.Name)
	assert.Zero(t, s.Age)
	assert.False(t, s.Registered)
	assert.Equal(t, int64(2), s.ChatID)
	assert.Equal(t, now, s.LastActivity)
}
