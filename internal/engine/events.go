package engine

// Event is an incoming conversation event. The set of shapes is sealed so
// the transition function stays a total mapping over (state, event shape).
type Event interface {
	isEvent()
}

// ContactShared carries the phone numbers extracted from a shared contact
// card, in the order they appeared. Numbers are raw; the engine normalizes.
type ContactShared struct {
	DisplayName     string
	CandidatePhones []string
}

// TextEntered is a plain text message.
type TextEntered struct {
	Text string
}

// OptionSelected references one entry of the last rendered choice list by
// its stable id (e.g. "phone:1", "person:leehe", "replace:yes").
type OptionSelected struct {
	OptionID string
}

// CommandInvoked is an explicit command: "start", "help" or "cancel".
type CommandInvoked struct {
	Name string
}

func (ContactShared) isEvent()  {}
func (TextEntered) isEvent()    {}
func (OptionSelected) isEvent() {}
func (CommandInvoked) isEvent() {}

// Command names understood by the engine.
const (
	CommandStart  = "start"
	CommandHelp   = "help"
	CommandCancel = "cancel"
)

// Option is one selectable entry of a rendered choice prompt.
type Option struct {
	ID    string
	Label string
}
