package whatsapp

import "strings"

// parseVCard pulls the display name and every phone number out of a shared
// contact's vCard. WhatsApp cards are vCard 3.0 with CRLF line endings and
// property parameters like "item1.TEL;type=CELL;waid=972501234567:+972 50-123-4567".
// The waid parameter is ignored on purpose; the TEL value is what the user
// sees on the card.
func parseVCard(vcard string) (name string, phones []string) {
	for _, line := range strings.Split(vcard, "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		// Strip a grouping prefix ("item1.TEL" -> "TEL") and parameters
		// ("TEL;type=CELL" -> "TEL").
		if _, rest, found := strings.Cut(key, "."); found {
			key = rest
		}
		prop, _, _ := strings.Cut(key, ";")
		prop = strings.ToUpper(strings.TrimSpace(prop))

		value = strings.TrimSpace(value)
		switch prop {
		case "FN":
			if name == "" {
				name = value
			}
		case "TEL":
			if value != "" {
				phones = append(phones, value)
			}
		}
	}
	return name, phones
}
