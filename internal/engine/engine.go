// Package engine implements the intake conversation state machine: given a
// session and an incoming event it decides the next state, what to persist
// and which prompt the user sees next.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"wedding-guestbot/internal/models"
	"wedding-guestbot/internal/phone"
	"wedding-guestbot/internal/taxonomy"
)

// SessionStore persists per-subject sessions. Get returns (nil, nil) when no
// session exists for the subject.
type SessionStore interface {
	Get(ctx context.Context, subjectID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, subjectID string) error
}

// Registry is the external store of committed guest records, keyed by
// canonical phone. FindByPhone returns (nil, nil) when no record exists.
type Registry interface {
	FindByPhone(ctx context.Context, canonicalPhone string) (*models.GuestRecord, error)
	Append(ctx context.Context, rec models.GuestRecord) error
	Delete(ctx context.Context, canonicalPhone string) (bool, error)
	List(ctx context.Context) ([]models.GuestRecord, error)
}

// Prompter renders outbound prompts. Both calls are fire-and-forget from the
// engine's perspective; delivery errors are logged, never retried.
type Prompter interface {
	PromptText(ctx context.Context, subjectID, text string) error
	PromptChoice(ctx context.Context, subjectID, prompt string, options []Option) error
}

// Config selects which optional steps of the generalized flow are active.
type Config struct {
	// DuplicateCheck asks the registry for an existing record before
	// accepting a newly shared phone.
	DuplicateCheck bool
	// CollectPartySize adds the party-size step after the drill-down.
	CollectPartySize bool
	// CollectLikelihood adds the attendance-likelihood step before commit.
	CollectLikelihood bool
	// MaxPartySize caps the party-size choices (the last one reads "N+").
	MaxPartySize int
}

const defaultMaxPartySize = 6

// Engine drives the conversation. Events for the same subject are processed
// strictly one at a time; distinct subjects run in parallel.
type Engine struct {
	store    SessionStore
	registry Registry
	prompter Prompter
	norm     *phone.Normalizer
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time

	locks subjectLocks
}

// New creates an Engine. The normalizer defines the canonical phone form
// used for duplicate detection.
func New(store SessionStore, registry Registry, prompter Prompter, norm *phone.Normalizer, cfg Config, log zerolog.Logger) *Engine {
	if cfg.MaxPartySize <= 0 {
		cfg.MaxPartySize = defaultMaxPartySize
	}
	return &Engine{
		store:    store,
		registry: registry,
		prompter: prompter,
		norm:     norm,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Handle processes one incoming event for a subject. It returns an error
// only for infrastructure failures (session store); every user-level problem
// resolves to a prompt instead.
func (e *Engine) Handle(ctx context.Context, subjectID string, ev Event) error {
	if ev == nil {
		return nil
	}

	mu := e.locks.get(subjectID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := e.store.Get(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("load session for %s: %w", subjectID, err)
	}
	if sess == nil {
		sess = NewSession(subjectID)
		if err := e.put(ctx, sess); err != nil {
			return err
		}
	}

	e.log.Debug().
		Str("subject", subjectID).
		Str("state", string(sess.State)).
		Str("event", fmt.Sprintf("%T", ev)).
		Msg("handling event")

	// Commands preempt whatever the current state expects.
	if cmd, ok := ev.(CommandInvoked); ok {
		return e.handleCommand(ctx, sess, cmd)
	}

	switch sess.State {
	case StateNew, StateDone:
		return e.handleIdle(ctx, sess, ev)
	case StatePickPhone:
		return e.handlePickPhone(ctx, sess, ev)
	case StateAwaitingName:
		return e.handleAwaitingName(ctx, sess, ev)
	case StateConfirmReplace:
		return e.handleConfirmReplace(ctx, sess, ev)
	case StatePickPerson:
		return e.handlePickPerson(ctx, sess, ev)
	case StatePickType:
		return e.handlePickType(ctx, sess, ev)
	case StatePickFamily:
		return e.handlePickFamily(ctx, sess, ev)
	case StatePickNumGuests:
		return e.handlePickNumGuests(ctx, sess, ev)
	case StatePickLikely:
		return e.handlePickLikely(ctx, sess, ev)
	default:
		// A state this build doesn't know, e.g. after a downgrade. Fail safe.
		e.log.Error().Str("subject", subjectID).Str("state", string(sess.State)).Msg("unknown session state")
		return e.resetWith(ctx, sess, msgGenericError)
	}
}

func (e *Engine) handleCommand(ctx context.Context, sess *Session, cmd CommandInvoked) error {
	switch cmd.Name {
	case CommandHelp:
		e.say(ctx, sess.SubjectID, msgHelp)
		return nil
	case CommandStart:
		return e.resetWith(ctx, sess, msgWelcome)
	case CommandCancel:
		return e.resetWith(ctx, sess, msgCancelled)
	default:
		e.say(ctx, sess.SubjectID, msgHelp)
		return nil
	}
}

// handleIdle covers NEW and DONE: both wait for the next contact card.
func (e *Engine) handleIdle(ctx context.Context, sess *Session, ev Event) error {
	contact, ok := ev.(ContactShared)
	if !ok {
		e.say(ctx, sess.SubjectID, msgNeedContact)
		return nil
	}

	candidates := e.normalizeCandidates(contact.CandidatePhones)
	if len(candidates) == 0 {
		e.say(ctx, sess.SubjectID, msgNoPhoneInContact)
		return nil
	}
	if len(candidates) == 1 {
		return e.selectPhone(ctx, sess, candidates[0])
	}

	sess.PhoneCandidates = candidates
	sess.State = StatePickPhone
	if err := e.put(ctx, sess); err != nil {
		return err
	}
	return e.promptForState(ctx, sess)
}

func (e *Engine) handlePickPhone(ctx context.Context, sess *Session, ev Event) error {
	sel, ok := ev.(OptionSelected)
	if !ok {
		e.say(ctx, sess.SubjectID, msgPickFromList)
		return e.promptForState(ctx, sess)
	}

	// The selection must reference a stored candidate by position. Anything
	// else is unrecoverable for this flow: reset instead of guessing.
	idx, ok := parseIndex(sel.OptionID, "phone:")
	if !ok || idx < 0 || idx >= len(sess.PhoneCandidates) {
		e.log.Warn().Str("subject", sess.SubjectID).Str("option", sel.OptionID).Msg("unresolvable phone selection")
		return e.resetWith(ctx, sess, msgGenericError)
	}
	return e.selectPhone(ctx, sess, sess.PhoneCandidates[idx])
}

func (e *Engine) handleAwaitingName(ctx context.Context, sess *Session, ev Event) error {
	text, ok := ev.(TextEntered)
	if !ok {
		e.say(ctx, sess.SubjectID, msgAskName)
		return nil
	}

	name := strings.TrimSpace(text.Text)
	if utf8.RuneCountInString(name) < 2 {
		e.say(ctx, sess.SubjectID, msgNameTooShort)
		return nil
	}

	sess.GuestName = name
	sess.State = StatePickPerson
	if err := e.put(ctx, sess); err != nil {
		return err
	}
	e.say(ctx, sess.SubjectID, msgNameReceived(name))
	return e.promptForState(ctx, sess)
}

func (e *Engine) handleConfirmReplace(ctx context.Context, sess *Session, ev Event) error {
	sel, ok := ev.(OptionSelected)
	if !ok {
		e.say(ctx, sess.SubjectID, msgPickFromList)
		return e.promptForState(ctx, sess)
	}

	switch sel.OptionID {
	case "replace:yes":
		deleted, err := e.registry.Delete(ctx, sess.SelectedPhone)
		if err != nil || !deleted {
			// The duplicate state is now unknown; do not guess.
			e.log.Error().Err(err).Str("phone", sess.SelectedPhone).Msg("replace delete failed")
			return e.resetWith(ctx, sess, msgDeleteFailed)
		}
		sess.State = StateAwaitingName
		sess.PhoneCandidates = nil
		if err := e.put(ctx, sess); err != nil {
			return err
		}
		e.say(ctx, sess.SubjectID, msgReplacedContinue(e.norm.Display(sess.SelectedPhone)))
		return nil
	case "replace:no":
		return e.resetWith(ctx, sess, msgCancelled)
	default:
		e.say(ctx, sess.SubjectID, msgPickFromList)
		return e.promptForState(ctx, sess)
	}
}

func (e *Engine) handlePickPerson(ctx context.Context, sess *Session, ev Event) error {
	id, ok := selectedID(ev, "person:")
	if !ok || !taxonomy.ValidPerson(id) {
		e.say(ctx, sess.SubjectID, msgPickFromList)
		return e.promptForState(ctx, sess)
	}

	sess.SelectedPerson = id
	sess.State = StatePickType
	if err := e.put(ctx, sess); err != nil {
		return err
	}
	return e.promptForState(ctx, sess)
}

func (e *Engine) handlePickType(ctx context.Context, sess *Session, ev Event) error {
	id, ok := selectedID(ev, "type:")
	if !ok || !taxonomy.ValidType(id) {
		e.say(ctx, sess.SubjectID, msgPickFromList)
		return e.promptForState(ctx, sess)
	}

	sess.SelectedType = id
	if !taxonomy.TypeNeedsFamily(id) {
		// Plain friends: the family step is skipped entirely.
		sess.SelectedFamily = ""
		return e.advanceAfterGroup(ctx, sess)
	}

	sess.State = StatePickFamily
	if err := e.put(ctx, sess); err != nil {
		return err
	}
	return e.promptForState(ctx, sess)
}

func (e *Engine) handlePickFamily(ctx context.Context, sess *Session, ev Event) error {
	id, ok := selectedID(ev, "family:")
	if !ok || !validFamily(sess.SelectedPerson, id) {
		e.say(ctx, sess.SubjectID, msgPickFromList)
		return e.promptForState(ctx, sess)
	}

	sess.SelectedFamily = id
	return e.advanceAfterGroup(ctx, sess)
}

func (e *Engine) handlePickNumGuests(ctx context.Context, sess *Session, ev Event) error {
	idx, ok := selectedIndex(ev, "guests:")
	if !ok || idx < 1 || idx > e.cfg.MaxPartySize {
		e.say(ctx, sess.SubjectID, msgPickFromList)
		return e.promptForState(ctx, sess)
	}

	sess.NumGuests = idx
	if e.cfg.CollectLikelihood {
		sess.State = StatePickLikely
		if err := e.put(ctx, sess); err != nil {
			return err
		}
		return e.promptForState(ctx, sess)
	}
	return e.commit(ctx, sess)
}

func (e *Engine) handlePickLikely(ctx context.Context, sess *Session, ev Event) error {
	id, ok := selectedID(ev, "likely:")
	if !ok || (id != "yes" && id != "no") {
		e.say(ctx, sess.SubjectID, msgPickFromList)
		return e.promptForState(ctx, sess)
	}

	likely := id == "yes"
	sess.Likely = &likely
	return e.commit(ctx, sess)
}

// selectPhone runs the duplicate check for a chosen canonical phone and
// advances to CONFIRM_REPLACE or AWAITING_NAME.
func (e *Engine) selectPhone(ctx context.Context, sess *Session, canonical string) error {
	if e.cfg.DuplicateCheck {
		existing, err := e.registry.FindByPhone(ctx, canonical)
		if err != nil {
			e.log.Warn().Err(err).Str("phone", canonical).Msg("registry lookup failed")
			e.say(ctx, sess.SubjectID, msgLookupFailed)
			return e.promptForState(ctx, sess)
		}
		if existing != nil {
			sess.SelectedPhone = canonical
			sess.State = StateConfirmReplace
			if err := e.put(ctx, sess); err != nil {
				return err
			}
			e.ask(ctx, sess.SubjectID, msgDuplicateFound(existing, e.norm.Display(canonical)), replaceOptions)
			return nil
		}
	}

	sess.SelectedPhone = canonical
	sess.State = StateAwaitingName
	if err := e.put(ctx, sess); err != nil {
		return err
	}
	e.say(ctx, sess.SubjectID, msgPhoneSelected(e.norm.Display(canonical)))
	return nil
}

// advanceAfterGroup moves past the drill-down into whichever optional steps
// are enabled, or straight to commit.
func (e *Engine) advanceAfterGroup(ctx context.Context, sess *Session) error {
	switch {
	case e.cfg.CollectPartySize:
		sess.State = StatePickNumGuests
	case e.cfg.CollectLikelihood:
		sess.State = StatePickLikely
	default:
		return e.commit(ctx, sess)
	}
	if err := e.put(ctx, sess); err != nil {
		return err
	}
	return e.promptForState(ctx, sess)
}

// commit persists the gathered session as a registry record. On append
// failure the session is left untouched so answering the current question
// again retries the same commit.
func (e *Engine) commit(ctx context.Context, sess *Session) error {
	if sess.GuestName == "" || sess.SelectedPhone == "" {
		e.log.Error().Str("subject", sess.SubjectID).Str("state", string(sess.State)).Msg("commit invariant violated")
		return e.resetWith(ctx, sess, msgGenericError)
	}

	group, err := taxonomy.Resolve(sess.SelectedPerson, sess.SelectedType, sess.SelectedFamily)
	if err != nil {
		e.log.Error().Err(err).Str("subject", sess.SubjectID).Msg("group resolution failed at commit")
		return e.resetWith(ctx, sess, msgGenericError)
	}

	party := sess.NumGuests
	if party == 0 {
		party = 1
	}

	rec := models.GuestRecord{
		Phone:     sess.SelectedPhone,
		Name:      sess.GuestName,
		Group:     group,
		PartySize: party,
		Likely:    sess.Likely,
		AddedBy:   sess.SubjectID,
		AddedAt:   e.now().UTC(),
	}

	if err := e.registry.Append(ctx, rec); err != nil {
		e.log.Error().Err(err).Str("phone", rec.Phone).Msg("registry append failed")
		e.say(ctx, sess.SubjectID, msgSaveFailed)
		return e.promptForState(ctx, sess)
	}

	sess.State = StateDone
	if err := e.put(ctx, sess); err != nil {
		return err
	}
	e.say(ctx, sess.SubjectID, msgGuestAdded(rec, e.norm.Display(rec.Phone)))
	return nil
}

// promptForState re-sends the canonical prompt for the session's current
// state. Used for the first prompt of a state, for re-prompts after a
// wrong-shaped event, and for commit retries.
func (e *Engine) promptForState(ctx context.Context, sess *Session) error {
	switch sess.State {
	case StateNew, StateDone:
		e.say(ctx, sess.SubjectID, msgNeedContact)
	case StatePickPhone:
		displays := make([]string, len(sess.PhoneCandidates))
		for i, p := range sess.PhoneCandidates {
			displays[i] = e.norm.Display(p)
		}
		e.ask(ctx, sess.SubjectID, promptPickPhone, phoneOptions(displays))
	case StateAwaitingName:
		e.say(ctx, sess.SubjectID, msgAskName)
	case StateConfirmReplace:
		e.ask(ctx, sess.SubjectID, promptConfirmReplace, replaceOptions)
	case StatePickPerson:
		e.ask(ctx, sess.SubjectID, promptPickPerson, choiceOptions("person:", taxonomy.Persons()))
	case StatePickType:
		e.ask(ctx, sess.SubjectID, promptPickType, choiceOptions("type:", taxonomy.Types()))
	case StatePickFamily:
		e.ask(ctx, sess.SubjectID, promptPickFamily, choiceOptions("family:", taxonomy.FamiliesFor(sess.SelectedPerson)))
	case StatePickNumGuests:
		e.ask(ctx, sess.SubjectID, promptPickNumGuests, partySizeOptions(e.cfg.MaxPartySize))
	case StatePickLikely:
		e.ask(ctx, sess.SubjectID, promptPickLikely, likelyOptions)
	}
	return nil
}

// resetWith replaces the session with a fresh idle one and tells the user.
func (e *Engine) resetWith(ctx context.Context, sess *Session, text string) error {
	fresh := NewSession(sess.SubjectID)
	if err := e.put(ctx, fresh); err != nil {
		return err
	}
	*sess = *fresh
	e.say(ctx, sess.SubjectID, text)
	return nil
}

func (e *Engine) put(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = e.now()
	if err := e.store.Put(ctx, sess); err != nil {
		return fmt.Errorf("save session for %s: %w", sess.SubjectID, err)
	}
	return nil
}

// normalizeCandidates canonicalizes the shared numbers, dropping unusable
// entries and duplicates while preserving order.
func (e *Engine) normalizeCandidates(raw []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, r := range raw {
		c := e.norm.Canonical(r)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (e *Engine) say(ctx context.Context, subjectID, text string) {
	if err := e.prompter.PromptText(ctx, subjectID, text); err != nil {
		e.log.Warn().Err(err).Str("subject", subjectID).Msg("failed to send text prompt")
	}
}

func (e *Engine) ask(ctx context.Context, subjectID, prompt string, options []Option) {
	if err := e.prompter.PromptChoice(ctx, subjectID, prompt, options); err != nil {
		e.log.Warn().Err(err).Str("subject", subjectID).Msg("failed to send choice prompt")
	}
}

func choiceOptions(prefix string, choices []taxonomy.Choice) []Option {
	opts := make([]Option, 0, len(choices))
	for _, c := range choices {
		opts = append(opts, Option{ID: prefix + c.ID, Label: c.Label})
	}
	return opts
}

func validFamily(personID, familyID string) bool {
	for _, f := range taxonomy.FamiliesFor(personID) {
		if f.ID == familyID {
			return true
		}
	}
	return false
}

func selectedID(ev Event, prefix string) (string, bool) {
	sel, ok := ev.(OptionSelected)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(sel.OptionID, prefix)
}

func selectedIndex(ev Event, prefix string) (int, bool) {
	sel, ok := ev.(OptionSelected)
	if !ok {
		return 0, false
	}
	return parseIndex(sel.OptionID, prefix)
}

func parseIndex(optionID, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(optionID, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// subjectLocks serializes event handling per subject id. The map only grows
// with distinct subjects, which is bounded for a single wedding.
type subjectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *subjectLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}
