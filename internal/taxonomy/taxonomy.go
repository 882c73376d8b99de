// Package taxonomy holds the static guest-group catalog: a short drill-down
// of person -> relationship type -> family branch that resolves to exactly
// one group label on the spreadsheet.
package taxonomy

import "fmt"

// Choice is one selectable entry in a drill-down step.
type Choice struct {
	ID    string
	Label string
}

const (
	PersonLeehe = "leehe"
	PersonMatan = "matan"

	TypeFriends       = "friends"
	TypeFamily        = "family"
	TypeFamilyFriends = "familyfriends"
)

var persons = []Choice{
	{ID: PersonLeehe, Label: "Leehe"},
	{ID: PersonMatan, Label: "Matan"},
}

var types = []Choice{
	{ID: TypeFriends, Label: "Friends"},
	{ID: TypeFamily, Label: "Family"},
	{ID: TypeFamilyFriends, Label: "Family Friends"},
}

// Family branches are per person: Leehe's side and Matan's side each split
// into two families.
var familiesByPerson = map[string][]Choice{
	PersonLeehe: {
		{ID: "keisari", Label: "Keisari"},
		{ID: "maggor", Label: "Maggor"},
	},
	PersonMatan: {
		{ID: "heled", Label: "Heled"},
		{ID: "maimon", Label: "Maimon"},
	},
}

// Persons returns the top-level drill-down choices.
func Persons() []Choice { return persons }

// Types returns the relationship-type choices.
func Types() []Choice { return types }

// FamiliesFor returns the family branches for a person, or nil for an
// unknown person id.
func FamiliesFor(personID string) []Choice {
	return familiesByPerson[personID]
}

// TypeNeedsFamily reports whether the relationship type splits further into
// family branches. Plain friends do not.
func TypeNeedsFamily(typeID string) bool {
	return typeID == TypeFamily || typeID == TypeFamilyFriends
}

// ValidPerson reports whether id names a known person.
func ValidPerson(id string) bool {
	_, ok := familiesByPerson[id]
	return ok
}

// ValidType reports whether id names a known relationship type.
func ValidType(id string) bool {
	for _, t := range types {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Resolve maps a (person, type[, family]) combination to its group label,
// e.g. ("leehe", "family", "keisari") -> "Leehe - Family - Keisari".
// Every combination reachable through the drill-down resolves to exactly
// one label; anything else is an error.
func Resolve(personID, typeID, familyID string) (string, error) {
	person, ok := find(persons, personID)
	if !ok {
		return "", fmt.Errorf("unknown person %q", personID)
	}
	typ, ok := find(types, typeID)
	if !ok {
		return "", fmt.Errorf("unknown type %q", typeID)
	}

	if !TypeNeedsFamily(typeID) {
		if familyID != "" {
			return "", fmt.Errorf("type %q takes no family branch", typeID)
		}
		return person.Label + " - " + typ.Label, nil
	}

	family, ok := find(familiesByPerson[personID], familyID)
	if !ok {
		return "", fmt.Errorf("unknown family %q for person %q", familyID, personID)
	}
	return person.Label + " - " + typ.Label + " - " + family.Label, nil
}

// GroupLabels enumerates every label Resolve can produce, in catalog order.
func GroupLabels() []string {
	var labels []string
	for _, p := range persons {
		for _, t := range types {
			if !TypeNeedsFamily(t.ID) {
				label, _ := Resolve(p.ID, t.ID, "")
				labels = append(labels, label)
				continue
			}
			for _, f := range familiesByPerson[p.ID] {
				label, _ := Resolve(p.ID, t.ID, f.ID)
				labels = append(labels, label)
			}
		}
	}
	return labels
}

func find(choices []Choice, id string) (Choice, bool) {
	for _, c := range choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}
