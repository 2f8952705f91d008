package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedup_ExactKey(t *testing.T) {
	reports := []Report{
		{Title: "Flood warning for Springfield", URL: "https://a.example/1"},
		{Title: "FLOOD WARNING for the Springfield!", URL: "https://b.example/2"},
		{Title: "Different headline entirely", URL: "https://a.example/1"},
		{Title: "Wildfire near the northern ridge"},
		{Title: "Another report without any url"},
	}

	got := Dedup(reports, ExactKey)

	assert.Len(t, got, 3)
	assert.Equal(t, "https://a.example/1", got[0].URL, "first seen instance is kept")
	assert.Equal(t, "Wildfire near the northern ridge", got[1].Title)
	assert.Equal(t, "Another report without any url", got[2].Title, "empty URLs never collide")
}

func TestDedup_Similar(t *testing.T) {
	reports := []Report{
		{Title: "Flooding closes highway bridge"},
		{Title: "Highway bridge closes after flooding"},
		{Title: "Tornado touches down near Moore"},
	}

	assert.Len(t, Dedup(reports, ExactKey), 3)

	got := Dedup(reports, Similar(0.8))
	assert.Len(t, got, 2)
	assert.Equal(t, "Flooding closes highway bridge", got[0].Title)
	assert.Equal(t, "Tornado touches down near Moore", got[1].Title)
}

func TestDedup_Soundness(t *testing.T) {
	reports := []Report{
		{Title: "Storm hits coast hard", URL: "u1"},
		{Title: "storm hits the coast, hard", URL: "u2"},
		{Title: "Storm passes inland now", URL: "u1"},
		{Title: "Quake shakes the capital", URL: ""},
		{Title: "Quake shakes capital", URL: ""},
		{Title: "Heavy rain expected tonight", URL: "u3"},
	}

	got := Dedup(reports, ExactKey)

	for i := range got {
		for j := i + 1; j < len(got); j++ {
			assert.NotEqual(t, Normalize(got[i].Title), Normalize(got[j].Title))
			if got[i].URL != "" && got[j].URL != "" {
				assert.NotEqual(t, got[i].URL, got[j].URL)
			}
		}
	}
	assert.Len(t, got, 3)
}

func TestDedup_Empty(t *testing.T) {
	assert.Empty(t, Dedup(nil, ExactKey))
}
