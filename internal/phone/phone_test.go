package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalEquivalentForms(t *testing.T) {
	n := NewNormalizer("972")

	inputs := []string{
		"0501234567",
		"+972501234567",
		"972501234567",
		"+972-50-123-4567",
		"050 123 4567",
		"(050) 123-4567",
	}
	for _, in := range inputs {
		assert.Equal(t, "+972501234567", n.Canonical(in), "input %q", in)
	}
}

func TestCanonicalIdempotent(t *testing.T) {
	n := NewNormalizer("+972")

	inputs := []string{
		"0501234567",
		"+972501234567",
		"501234567",
		"+14155551234",
		"abc",
		"",
	}
	for _, in := range inputs {
		once := n.Canonical(in)
		assert.Equal(t, once, n.Canonical(once), "input %q", in)
	}
}

func TestCanonicalForeignNumberKept(t *testing.T) {
	n := NewNormalizer("972")
	assert.Equal(t, "+14155551234", n.Canonical("+1 (415) 555-1234"))
}

func TestCanonicalNoDigits(t *testing.T) {
	n := NewNormalizer("972")
	assert.Equal(t, "", n.Canonical(""))
	assert.Equal(t, "", n.Canonical("+"))
	assert.Equal(t, "", n.Canonical("call me"))
}

func TestDisplay(t *testing.T) {
	n := NewNormalizer("972")

	assert.Equal(t, "+972-50-123-4567", n.Display("+972501234567"))
	// Foreign numbers pass through untouched.
	assert.Equal(t, "+14155551234", n.Display("+14155551234"))
	// Too short to hyphenate.
	assert.Equal(t, "+97250", n.Display("+97250"))
}

func TestDisplayNeverChangesIdentity(t *testing.T) {
	n := NewNormalizer("972")
	canonical := n.Canonical("0501234567")
	assert.Equal(t, canonical, n.Canonical(n.Display(canonical)))
}
