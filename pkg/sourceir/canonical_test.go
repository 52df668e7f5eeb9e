package sourceir

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalIndependentOfKeyOrder(t *testing.T) {
	a, err := Unmarshal([]byte(`{"name": "m", "meta": {"target": "cli", "fallback": "stub", "nd_budget": "20"}, "flows": []}`))
	require.NoError(t, err)
	b, err := Unmarshal([]byte(`{"flows": [], "meta": {"nd_budget": "20", "fallback": "stub", "target": "cli"}, "name": "m"}`))
	require.NoError(t, err)

	ca, err := a.MarshalCanonical()
	require.NoError(t, err)
	cb, err := b.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(ca), string(cb))
}

func TestCanonicalSortsMetaKeys(t *testing.T) {
	m := &Module{Name: "m", Meta: map[string]string{
		"target":    "cli",
		"fallback":  "stub",
		"nd_budget": "20",
	}}
	canonical, err := m.MarshalCanonical()
	require.NoError(t, err)

	s := string(canonical)
	fallbackIdx := indexOf(t, s, `"fallback"`)
	budgetIdx := indexOf(t, s, `"nd_budget"`)
	targetIdx := indexOf(t, s, `"target":"cli"`)
	assert.Less(t, fallbackIdx, budgetIdx)
	assert.Less(t, budgetIdx, targetIdx)
}

func indexOf(t *testing.T, s, sub string) int {
	t.Helper()
	idx := strings.Index(s, sub)
	require.GreaterOrEqual(t, idx, 0, "expected %q in %q", sub, s)
	return idx
}

func TestCanonicalNormalizesNFC(t *testing.T) {
	// "é" composed (U+00E9) vs decomposed (e + U+0301).
	composed := &Module{Name: "m", Meta: map[string]string{"title": "café"}}
	decomposed := &Module{Name: "m", Meta: map[string]string{"title": "café"}}

	cc, err := composed.MarshalCanonical()
	require.NoError(t, err)
	cd, err := decomposed.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(cc), string(cd))
}

func TestCanonicalDoesNotEscapeHTML(t *testing.T) {
	m := &Module{Name: "m", Meta: map[string]string{"title": "<a> & <b>"}}
	canonical, err := m.MarshalCanonical()
	require.NoError(t, err)
	assert.Contains(t, string(canonical), `"<a> & <b>"`)
	assert.NotContains(t, string(canonical), `<`)
}

func TestCanonicalPreservesNumbers(t *testing.T) {
	m := &Module{Name: "m", Meta: map[string]string{}, NdBlocks: []NdBlock{{
		Name:    "palette",
		Propose: Call{Name: "colors"},
		Constraints: []Call{{Name: "contrast", Args: []CallArg{
			{Value: Expr{Kind: ExprNumber, Number: 4.5}},
		}}},
	}}}
	canonical, err := m.MarshalCanonical()
	require.NoError(t, err)
	assert.Contains(t, string(canonical), "4.5")
}

func TestDigestStableAndHex(t *testing.T) {
	m, err := Unmarshal([]byte(snakeDoc))
	require.NoError(t, err)

	d1, err := m.Digest()
	require.NoError(t, err)
	d2, err := m.Digest()
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), d1)
}

func TestDigestChangesWithContent(t *testing.T) {
	a := &Module{Name: "m", Meta: map[string]string{"target": "cli"}}
	b := &Module{Name: "m", Meta: map[string]string{"target": "web"}}

	da, err := a.Digest()
	require.NoError(t, err)
	db, err := b.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, da, db)
}

func TestDigestIndependentOfMetaOrder(t *testing.T) {
	a, err := Unmarshal([]byte(`{"name": "m", "meta": {"a": "1", "b": "2"}, "flows": []}`))
	require.NoError(t, err)
	b, err := Unmarshal([]byte(`{"name": "m", "meta": {"b": "2", "a": "1"}, "flows": []}`))
	require.NoError(t, err)

	da, err := a.Digest()
	require.NoError(t, err)
	db, err := b.Digest()
	require.NoError(t, err)
	assert.Equal(t, da, db)
}
