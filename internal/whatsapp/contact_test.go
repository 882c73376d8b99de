package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVCardSingleNumber(t *testing.T) {
	vcard := "BEGIN:VCARD\r\n" +
		"VERSION:3.0\r\n" +
		"N:Cohen;Dana;;;\r\n" +
		"FN:Dana Cohen\r\n" +
		"item1.TEL;waid=972501234567:+972 50-123-4567\r\n" +
		"item1.X-ABLabel:Mobile\r\n" +
		"END:VCARD"

	name, phones := parseVCard(vcard)
	assert.Equal(t, "Dana Cohen", name)
	assert.Equal(t, []string{"+972 50-123-4567"}, phones)
}

func TestParseVCardMultipleNumbers(t *testing.T) {
	vcard := "BEGIN:VCARD\n" +
		"VERSION:3.0\n" +
		"FN:Dana Cohen\n" +
		"TEL;type=CELL:050-111-1111\n" +
		"TEL;type=HOME:03-555-1234\n" +
		"END:VCARD"

	name, phones := parseVCard(vcard)
	assert.Equal(t, "Dana Cohen", name)
	assert.Equal(t, []string{"050-111-1111", "03-555-1234"}, phones)
}

func TestParseVCardNoPhones(t *testing.T) {
	vcard := "BEGIN:VCARD\nVERSION:3.0\nFN:Dana Cohen\nEMAIL:dana@example.com\nEND:VCARD"

	name, phones := parseVCard(vcard)
	assert.Equal(t, "Dana Cohen", name)
	assert.Empty(t, phones)
}

func TestParseVCardGarbage(t *testing.T) {
	name, phones := parseVCard("not a vcard at all")
	assert.Empty(t, name)
	assert.Empty(t, phones)
}
