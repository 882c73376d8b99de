// Package whatsapp is the transport layer: it owns the whatsmeow client,
// turns incoming personal-chat messages into engine events and renders the
// engine's prompts back as plain text messages.
package whatsapp

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-guestbot/internal/engine"
)

// EventSink receives the events this transport produces. Satisfied by
// *engine.Engine.
type EventSink interface {
	Handle(ctx context.Context, subjectID string, ev engine.Event) error
}

// MessageDeduper remembers which message ids were already handled, so a
// replayed history sync does not re-run the conversation.
type MessageDeduper interface {
	MarkProcessed(ctx context.Context, messageID string) (bool, error)
}

// Config holds transport settings.
type Config struct {
	// DataDir is where the whatsmeow device database lives.
	DataDir string
}

// Service wraps the whatsmeow client. Wire it up with SetSink after the
// engine is built; the engine needs the service's Prompter first.
type Service struct {
	client   *whatsmeow.Client
	cfg      Config
	log      zerolog.Logger
	prompter *Prompter
	dedup    MessageDeduper
	sink     EventSink
}

// NewService opens the device store and builds the client. The returned
// service has no sink yet and drops messages until SetSink is called.
func NewService(ctx context.Context, cfg Config, dedup MessageDeduper, log zerolog.Logger) (*Service, error) {
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s/whatsmeow.db?_foreign_keys=on", cfg.DataDir), nil)
	if err != nil {
		return nil, fmt.Errorf("create device database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, nil)

	s := &Service{
		client: client,
		cfg:    cfg,
		log:    log.With().Str("component", "whatsapp").Logger(),
		dedup:  dedup,
	}
	s.prompter = NewPrompter(s.sendText)

	client.AddEventHandler(s.eventHandler)
	return s, nil
}

// Prompter returns the engine-facing prompt renderer for this transport.
func (s *Service) Prompter() *Prompter {
	return s.prompter
}

// SetSink connects the event consumer. Must be called before Connect.
func (s *Service) SetSink(sink EventSink) {
	s.sink = sink
}

// Connect logs in, printing a QR code on the terminal when the device is not
// yet paired.
func (s *Service) Connect() error {
	if s.client.Store.ID == nil {
		qrChan, _ := s.client.GetQRChannel(context.Background())
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		for evt := range qrChan {
			if evt.Event == "code" {
				q, err := qrcode.New(evt.Code, qrcode.Medium)
				if err != nil {
					fmt.Printf("QR Code: %s\n", evt.Code)
				} else {
					fmt.Println("\n" + q.ToSmallString(false))
				}
				fmt.Println("📱 Scan the QR code with WhatsApp (Settings > Linked Devices > Link a Device).")
			} else {
				s.log.Info().Str("event", evt.Event).Msg("login event")
			}
		}
		return nil
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Disconnect closes the WhatsApp connection.
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

func (s *Service) eventHandler(evt interface{}) {
	switch evt := evt.(type) {
	case *events.Message:
		s.handleMessage(evt)
	case *events.Connected:
		s.log.Info().Msg("connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Msg("logged out from WhatsApp, delete the device database to re-pair")
	}
}

// handleMessage filters, deduplicates and maps one incoming message, then
// hands the event to the sink on its own goroutine so slow spreadsheet calls
// never block the client's event loop.
func (s *Service) handleMessage(msg *events.Message) {
	if msg.Info.IsFromMe || msg.Info.IsGroup {
		return
	}
	if msg.Info.Chat.Server != types.DefaultUserServer {
		// Broadcasts, newsletters, status updates.
		return
	}
	if s.sink == nil {
		return
	}

	ctx := context.Background()
	if s.dedup != nil {
		first, err := s.dedup.MarkProcessed(ctx, string(msg.Info.ID))
		if err != nil {
			s.log.Warn().Err(err).Str("id", string(msg.Info.ID)).Msg("dedup check failed, handling anyway")
		} else if !first {
			s.log.Debug().Str("id", string(msg.Info.ID)).Msg("skipping already-processed message")
			return
		}
	}

	subject := msg.Info.Sender.User
	ev := s.eventFromMessage(subject, msg)
	if ev == nil {
		return
	}

	go s.dispatch(subject, ev)
}

func (s *Service) dispatch(subject string, ev engine.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("subject", subject).Msg("recovered from panic while handling event")
			_ = s.sendText(context.Background(), subject, "❌ Something went wrong. Please try again.")
		}
	}()

	if err := s.sink.Handle(context.Background(), subject, ev); err != nil {
		s.log.Error().Err(err).Str("subject", subject).Msg("event handling failed")
		_ = s.sendText(context.Background(), subject, "❌ Something went wrong. Please try again.")
	}
}

// eventFromMessage maps a WhatsApp message to an engine event, or nil for
// message kinds the flow does not care about (reactions, media, receipts).
func (s *Service) eventFromMessage(subject string, msg *events.Message) engine.Event {
	if contact := msg.Message.GetContactMessage(); contact != nil {
		name, phones := parseVCard(contact.GetVcard())
		if name == "" {
			name = contact.GetDisplayName()
		}
		return engine.ContactShared{DisplayName: name, CandidatePhones: phones}
	}

	if arr := msg.Message.GetContactsArrayMessage(); arr != nil {
		// Multi-contact shares collapse into one event; the first card wins
		// the display name, all numbers become candidates.
		var name string
		var phones []string
		for _, c := range arr.GetContacts() {
			n, p := parseVCard(c.GetVcard())
			if name == "" {
				if n != "" {
					name = n
				} else {
					name = c.GetDisplayName()
				}
			}
			phones = append(phones, p...)
		}
		return engine.ContactShared{DisplayName: name, CandidatePhones: phones}
	}

	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	return s.eventFromText(subject, text)
}

func (s *Service) eventFromText(subject, text string) engine.Event {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "/") {
		return engine.CommandInvoked{Name: strings.ToLower(strings.TrimPrefix(trimmed, "/"))}
	}
	switch strings.ToLower(trimmed) {
	case "help":
		return engine.CommandInvoked{Name: engine.CommandHelp}
	case "cancel":
		return engine.CommandInvoked{Name: engine.CommandCancel}
	}

	if optionID, ok := s.prompter.Resolve(subject, trimmed); ok {
		return engine.OptionSelected{OptionID: optionID}
	}
	return engine.TextEntered{Text: trimmed}
}

// sendText delivers one plain message to a subject's personal chat.
func (s *Service) sendText(ctx context.Context, subject, text string) error {
	jid := types.NewJID(subject, types.DefaultUserServer)
	_, err := s.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: &text})
	if err != nil {
		return fmt.Errorf("send message to %s: %w", subject, err)
	}
	return nil
}
