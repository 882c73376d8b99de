package whatsapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-guestbot/internal/engine"
)

type captured struct {
	subject string
	text    string
}

func newTestPrompter() (*Prompter, *[]captured) {
	var sent []captured
	p := NewPrompter(func(_ context.Context, subjectID, text string) error {
		sent = append(sent, captured{subject: subjectID, text: text})
		return nil
	})
	return p, &sent
}

func sampleOptions() []engine.Option {
	return []engine.Option{
		{ID: "person:leehe", Label: "Leehe"},
		{ID: "person:matan", Label: "Matan"},
	}
}

func TestPromptChoiceRendersNumberedMenu(t *testing.T) {
	p, sent := newTestPrompter()

	require.NoError(t, p.PromptChoice(context.Background(), "972501", "Whose guest?", sampleOptions()))

	require.Len(t, *sent, 1)
	text := (*sent)[0].text
	assert.Contains(t, text, "Whose guest?")
	assert.Contains(t, text, "1. Leehe")
	assert.Contains(t, text, "2. Matan")
	assert.Contains(t, text, "Reply with the number")
}

func TestResolveMapsNumberToOption(t *testing.T) {
	p, _ := newTestPrompter()
	require.NoError(t, p.PromptChoice(context.Background(), "972501", "Whose guest?", sampleOptions()))

	id, ok := p.Resolve("972501", "2")
	require.True(t, ok)
	assert.Equal(t, "person:matan", id)

	id, ok = p.Resolve("972501", " 1 ")
	require.True(t, ok)
	assert.Equal(t, "person:leehe", id)
}

func TestResolveRejectsOutOfRangeAndNonNumeric(t *testing.T) {
	p, _ := newTestPrompter()
	require.NoError(t, p.PromptChoice(context.Background(), "972501", "Whose guest?", sampleOptions()))

	_, ok := p.Resolve("972501", "0")
	assert.False(t, ok)
	_, ok = p.Resolve("972501", "3")
	assert.False(t, ok)
	_, ok = p.Resolve("972501", "leehe")
	assert.False(t, ok)
}

func TestResolveWithoutPendingMenu(t *testing.T) {
	p, _ := newTestPrompter()

	_, ok := p.Resolve("972501", "1")
	assert.False(t, ok)
}

func TestPromptTextClearsPendingMenu(t *testing.T) {
	p, _ := newTestPrompter()
	require.NoError(t, p.PromptChoice(context.Background(), "972501", "Whose guest?", sampleOptions()))
	require.NoError(t, p.PromptText(context.Background(), "972501", "Please type the guest's full name:"))

	// A numeric reply after a text prompt is a name attempt, not a pick.
	_, ok := p.Resolve("972501", "1")
	assert.False(t, ok)
}

func TestPendingMenusAreKeyedPerSubject(t *testing.T) {
	p, _ := newTestPrompter()
	require.NoError(t, p.PromptChoice(context.Background(), "972501", "Whose guest?", sampleOptions()))

	_, ok := p.Resolve("972502", "1")
	assert.False(t, ok, "another subject has no pending menu")

	id, ok := p.Resolve("972501", "1")
	require.True(t, ok)
	assert.Equal(t, "person:leehe", id)
}
