package whatsapp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"wedding-guestbot/internal/engine"
)

// Prompter renders engine prompts as plain text. Choice lists become
// numbered menus; the options of the last menu sent to a subject are kept so
// a numeric reply can be resolved back to its option id. Personal WhatsApp
// chats have no native buttons, so numbered replies are the whole protocol.
type Prompter struct {
	send func(ctx context.Context, subjectID, text string) error

	mu      sync.Mutex
	pending map[string][]engine.Option
}

// NewPrompter builds a Prompter on top of a raw text sender.
func NewPrompter(send func(ctx context.Context, subjectID, text string) error) *Prompter {
	return &Prompter{
		send:    send,
		pending: make(map[string][]engine.Option),
	}
}

// PromptText sends plain text. It also clears any pending menu: the engine
// sends a text prompt exactly when it stopped expecting a menu reply, so a
// later numeric reply must be treated as free text again.
func (p *Prompter) PromptText(ctx context.Context, subjectID, text string) error {
	p.mu.Lock()
	delete(p.pending, subjectID)
	p.mu.Unlock()

	return p.send(ctx, subjectID, text)
}

// PromptChoice renders a numbered menu and remembers its options.
func (p *Prompter) PromptChoice(ctx context.Context, subjectID, prompt string, options []engine.Option) error {
	p.mu.Lock()
	p.pending[subjectID] = append([]engine.Option(nil), options...)
	p.mu.Unlock()

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt.Label)
	}
	b.WriteString("\nReply with the number of your choice.")
	return p.send(ctx, subjectID, b.String())
}

// Resolve maps a numeric reply to the option id of the subject's last menu.
// The second return is false when no menu is pending or the reply is not a
// number in range; the caller then treats the reply as free text.
func (p *Prompter) Resolve(subjectID, reply string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil {
		return "", false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	options, ok := p.pending[subjectID]
	if !ok || n < 1 || n > len(options) {
		return "", false
	}
	return options[n-1].ID, true
}
