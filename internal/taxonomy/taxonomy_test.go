package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownCombinations(t *testing.T) {
	cases := []struct {
		person, typ, family string
		want                string
	}{
		{"leehe", "friends", "", "Leehe - Friends"},
		{"leehe", "family", "keisari", "Leehe - Family - Keisari"},
		{"leehe", "family", "maggor", "Leehe - Family - Maggor"},
		{"leehe", "familyfriends", "keisari", "Leehe - Family Friends - Keisari"},
		{"matan", "friends", "", "Matan - Friends"},
		{"matan", "family", "heled", "Matan - Family - Heled"},
		{"matan", "familyfriends", "maimon", "Matan - Family Friends - Maimon"},
	}
	for _, c := range cases {
		got, err := Resolve(c.person, c.typ, c.family)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

// Every combination the drill-down can produce must resolve to exactly one
// non-empty label, and distinct combinations must never collide.
func TestResolveTotalAndInjective(t *testing.T) {
	seen := map[string]string{}
	for _, p := range Persons() {
		for _, typ := range Types() {
			families := []Choice{{}}
			if TypeNeedsFamily(typ.ID) {
				families = FamiliesFor(p.ID)
				require.NotEmpty(t, families)
			}
			for _, f := range families {
				label, err := Resolve(p.ID, typ.ID, f.ID)
				require.NoError(t, err, "%s/%s/%s", p.ID, typ.ID, f.ID)
				require.NotEmpty(t, label)
				combo := p.ID + "/" + typ.ID + "/" + f.ID
				prev, dup := seen[label]
				assert.False(t, dup, "label %q produced by both %s and %s", label, prev, combo)
				seen[label] = combo
			}
		}
	}
	// 2 persons x (friends + 2 types x 2 families) = 10 groups.
	assert.Len(t, seen, 10)
	assert.Len(t, GroupLabels(), 10)
}

func TestResolveRejectsInvalid(t *testing.T) {
	_, err := Resolve("nobody", "friends", "")
	assert.Error(t, err)

	_, err = Resolve("leehe", "enemies", "")
	assert.Error(t, err)

	// Family branch from the wrong side.
	_, err = Resolve("leehe", "family", "heled")
	assert.Error(t, err)

	// Friends never takes a family branch.
	_, err = Resolve("leehe", "friends", "keisari")
	assert.Error(t, err)
}

func TestTypeNeedsFamily(t *testing.T) {
	assert.False(t, TypeNeedsFamily(TypeFriends))
	assert.True(t, TypeNeedsFamily(TypeFamily))
	assert.True(t, TypeNeedsFamily(TypeFamilyFriends))
}
