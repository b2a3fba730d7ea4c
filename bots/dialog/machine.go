package dialog

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m3rciful/maxbot/core/session"
)

// State is a step of the registration conversation.
type State string

// Conversation states. StateIdle matches the state of a fresh session.
const (
	StateIdle             State = session.StateIdle
	StateAwaitingName     State = "awaiting_name"
	StateAwaitingAge      State = "awaiting_age"
	StateAwaitingCity     State = "awaiting_city"
	StateAwaitingFeedback State = "awaiting_feedback"
	StateAwaitingConfirm  State = "awaiting_confirm"
)

// States lists every known state.
var States = []State{
	StateIdle,
	StateAwaitingName,
	StateAwaitingAge,
	StateAwaitingCity,
	StateAwaitingFeedback,
	StateAwaitingConfirm,
}

// Action classifies an input.
type Action int

const (
	// ActionText is free text typed by the user.
	ActionText Action = iota
	// ActionStart is /start, bot_started or the start_registration button.
	ActionStart
	// ActionReset is /reset or the reset_data button.
	ActionReset
	// ActionFeedback is /feedback or the start_feedback button.
	ActionFeedback
	// ActionConfirmYes is the confirm_yes button.
	ActionConfirmYes
	// ActionConfirmNo is the confirm_no button.
	ActionConfirmNo
)

// Actions lists every action.
var Actions = []Action{ActionText, ActionStart, ActionReset, ActionFeedback, ActionConfirmYes, ActionConfirmNo}

func (a Action) String() string {
	switch a {
	case ActionText:
		return "text"
	case ActionStart:
		return "start"
	case ActionReset:
		return "reset"
	case ActionFeedback:
		return "feedback"
	case ActionConfirmYes:
		return "confirm_yes"
	case ActionConfirmNo:
		return "confirm_no"
	}
	return "unknown"
}

// Input is one event fed to the machine.
type Input struct {
	Action Action
	Text   string
}

// Text wraps free text as an Input.
func Text(s string) Input { return Input{Action: ActionText, Text: s} }

// Reply names the message sent after a transition.
type Reply int

const (
	ReplyMenu Reply = iota
	ReplyAskName
	ReplyNameInvalid
	ReplyAskAge
	ReplyAgeInvalid
	ReplyAskCity
	ReplyCityInvalid
	ReplyConfirm
	ReplyCompleted
	ReplyRestart
	ReplyAskFeedback
	ReplyFeedbackEmpty
	ReplyFeedbackThanks
	ReplyResetDone
)

// Effect describes what a transition changes besides the state.
// Zero fields leave the session untouched.
type Effect struct {
	Reply    Reply
	Name     string
	Age      int
	City     string
	Feedback string
	// Complete marks the profile as registered.
	Complete bool
	// Reset clears every collected field before the others apply.
	Reset bool
}

// Apply writes the effect and the next state into s.
func (e Effect) Apply(s *session.Session, next State, now time.Time) {
	if e.Reset {
		s.Reset()
	}
	if e.Name != "" {
		s.Name = e.Name
	}
	if e.Age > 0 {
		s.Age = e.Age
	}
	if e.City != "" {
		s.City = e.City
	}
	if e.Feedback != "" {
		s.Feedback = e.Feedback
	}
	if e.Complete {
		s.Registered = true
		s.RegisteredAt = now
	}
	s.State = string(next)
	s.LastActivity = now
}

// Validation limits.
const (
	MinNameLen = 2
	MinCityLen = 2
	MinAge     = 1
	MaxAge     = 120
)

// Machine is the registration state machine. The zero value is ready to use.
type Machine struct{}

// Transition returns the next state and the effect of in applied to s.
// It has no side effects and is defined for every state and input.
func (Machine) Transition(s State, in Input) (State, Effect) {
	switch in.Action {
	case ActionStart:
		return StateAwaitingName, Effect{Reply: ReplyAskName}
	case ActionReset:
		return StateIdle, Effect{Reply: ReplyResetDone, Reset: true}
	case ActionFeedback:
		return StateAwaitingFeedback, Effect{Reply: ReplyAskFeedback}
	}

	switch s {
	case StateIdle:
		return StateIdle, Effect{Reply: ReplyMenu}

	case StateAwaitingName:
		if in.Action != ActionText {
			return s, Effect{Reply: ReplyAskName}
		}
		name := strings.TrimSpace(in.Text)
		if utf8.RuneCountInString(name) < MinNameLen {
			return s, Effect{Reply: ReplyNameInvalid}
		}
		return StateAwaitingAge, Effect{Reply: ReplyAskAge, Name: name}

	case StateAwaitingAge:
		if in.Action != ActionText {
			return s, Effect{Reply: ReplyAskAge}
		}
		age, ok := parseAge(in.Text)
		if !ok {
			return s, Effect{Reply: ReplyAgeInvalid}
		}
		return StateAwaitingCity, Effect{Reply: ReplyAskCity, Age: age}

	case StateAwaitingCity:
		if in.Action != ActionText {
			return s, Effect{Reply: ReplyAskCity}
		}
		city := strings.TrimSpace(in.Text)
		if utf8.RuneCountInString(city) < MinCityLen {
			return s, Effect{Reply: ReplyCityInvalid}
		}
		return StateAwaitingConfirm, Effect{Reply: ReplyConfirm, City: city}

	case StateAwaitingConfirm:
		if in.Action == ActionConfirmYes || (in.Action == ActionText && isYes(in.Text)) {
			return StateIdle, Effect{Reply: ReplyCompleted, Complete: true}
		}
		return StateAwaitingName, Effect{Reply: ReplyRestart}

	case StateAwaitingFeedback:
		if in.Action != ActionText {
			return s, Effect{Reply: ReplyAskFeedback}
		}
		fb := strings.TrimSpace(in.Text)
		if fb == "" {
			return s, Effect{Reply: ReplyFeedbackEmpty}
		}
		return StateIdle, Effect{Reply: ReplyFeedbackThanks, Feedback: fb}
	}

	// Unknown states, e.g. left over by another bot sharing the store.
	return StateIdle, Effect{Reply: ReplyMenu}
}

func parseAge(s string) (int, bool) {
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || age < MinAge || age > MaxAge {
		return 0, false
	}
	return age, true
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "да":
		return true
	}
	return false
}
