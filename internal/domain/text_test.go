package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "stop words and case", in: "The Flood in the Valley", want: "flood valley"},
		{name: "diacritics", in: "Séisme à Nice", want: "seisme nice"},
		{name: "punctuation", in: "Storm: 3 dead, 12 injured!", want: "storm 3 dead 12 injured"},
		{name: "whitespace collapse", in: "  wildfire    near   town  ", want: "wildfire near town"},
		{name: "only stop words", in: "of the and or", want: ""},
		{name: "stop word inside word kept", in: "Another band", want: "another band"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Wildfire spreads across Los Angeles hills",
		"Ürgent: the FLOOD in São Paulo — 200 évacués",
		"a an the",
		"Tornado\twarning\nfor Oklahoma City",
		"日本 earthquake of magnitude 7.1",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestAreSimilar(t *testing.T) {
	t.Run("token overlap", func(t *testing.T) {
		assert.True(t, AreSimilar(
			"Wildfire spreads across Los Angeles hills",
			"LA hills wildfire spreading fast",
		))
	})

	t.Run("below length floor", func(t *testing.T) {
		assert.False(t, AreSimilar("Flood", "Fire"))
	})

	t.Run("containment", func(t *testing.T) {
		assert.True(t, AreSimilar("Earthquake hits Tokyo", "Breaking: earthquake hits Tokyo suburbs"))
	})

	t.Run("unrelated", func(t *testing.T) {
		assert.False(t, AreSimilar("Hurricane makes landfall in Florida", "Wildfire threatens homes near Denver"))
	})

	t.Run("one side short", func(t *testing.T) {
		assert.False(t, AreSimilar("Flood", "Flood warning issued for the river valley"))
	})
}

func TestSimilarityScore(t *testing.T) {
	assert.InDelta(t, 0.8, SimilarityScore("Flooding closes highway bridge", "Highway bridge closes after flooding"), 0.0001)
	assert.InDelta(t, 0.0, SimilarityScore("", "anything here"), 0.0001)
	assert.InDelta(t, 0.6, SimilarityScore(
		"Wildfire spreads across Los Angeles hills",
		"LA hills wildfire spreading fast",
	), 0.0001)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "spread", stem("spreads"))
	assert.Equal(t, "spread", stem("spreading"))
	assert.Equal(t, "fire", stem("fires"))
	assert.Equal(t, "across", stem("across"))
	assert.Equal(t, "wind", stem("wind"))
}
