package engine

import "time"

// State identifies a step of the intake conversation. The set is closed;
// every handler switches over it exhaustively.
type State string

const (
	// StateNew is the initial state: idle, awaiting a contact card.
	StateNew State = "NEW"
	// StatePickPhone means the shared contact had several numbers and the
	// user has to pick one.
	StatePickPhone State = "PICK_PHONE"
	// StateAwaitingName waits for the guest's free-text name.
	StateAwaitingName State = "AWAITING_NAME"
	// StateConfirmReplace waits for a yes/no after a duplicate phone was found.
	StateConfirmReplace State = "CONFIRM_REPLACE"
	// StatePickPerson waits for the top-level drill-down choice.
	StatePickPerson State = "PICK_PERSON"
	// StatePickType waits for the relationship-type choice.
	StatePickType State = "PICK_TYPE"
	// StatePickFamily waits for the family-branch choice.
	StatePickFamily State = "PICK_FAMILY"
	// StatePickNumGuests waits for the party size.
	StatePickNumGuests State = "PICK_NUM_GUESTS"
	// StatePickLikely waits for the attendance-likelihood answer.
	StatePickLikely State = "PICK_LIKELY"
	// StateDone marks a successful submission. It accepts the next contact
	// exactly like StateNew; the machine is cyclic.
	StateDone State = "DONE"
)

// Session is the per-subject conversation state plus the answers gathered
// so far. Only SubjectID and State are always set; every other field may be
// empty until the state that fills it has been passed.
type Session struct {
	SubjectID       string
	State           State
	PhoneCandidates []string
	SelectedPhone   string
	GuestName       string
	SelectedPerson  string
	SelectedType    string
	SelectedFamily  string
	NumGuests       int
	Likely          *bool
	UpdatedAt       time.Time
}

// NewSession returns a fresh idle session for the subject.
func NewSession(subjectID string) *Session {
	return &Session{SubjectID: subjectID, State: StateNew}
}

// Clone returns a deep copy so stores can hand out sessions without sharing
// mutable slices with the engine.
func (s *Session) Clone() *Session {
	cp := *s
	if s.PhoneCandidates != nil {
		cp.PhoneCandidates = append([]string(nil), s.PhoneCandidates...)
	}
	if s.Likely != nil {
		v := *s.Likely
		cp.Likely = &v
	}
	return &cp
}
