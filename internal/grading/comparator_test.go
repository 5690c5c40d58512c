package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

func TestCompareShortRequiresExactMatch(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		reference string
		correct   bool
	}{
		{name: "case folded", candidate: "paris", reference: "Paris", correct: true},
		{name: "trimmed", candidate: "  Paris\n", reference: "paris", correct: true},
		{name: "anagram is not equal", candidate: "sirap", reference: "paris", correct: false},
		{name: "prefix is not equal", candidate: "par", reference: "paris", correct: false},
		{name: "both empty", candidate: " ", reference: "", correct: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Compare(tc.candidate, tc.reference, models.AnswerFormatShort)
			require.Equal(t, tc.correct, got.Correct)
		})
	}
}

func TestCompareLongUsesCharsetOverlap(t *testing.T) {
	got := Compare("abcd", "abce", models.AnswerFormatLong)
	require.InDelta(t, 0.75, got.Similarity, 1e-9)
	require.False(t, got.Correct)

	got = Compare("DCBA", "abcd", models.AnswerFormatLong)
	require.Equal(t, 1.0, got.Similarity)
	require.True(t, got.Correct)

	// repeated characters do not change the set
	got = Compare("aaabbb", "ab", models.AnswerFormatLong)
	require.Equal(t, 1.0, got.Similarity)
}

func TestCompareEmptyInputsYieldZeroSimilarity(t *testing.T) {
	for _, format := range []models.AnswerFormat{models.AnswerFormatShort, models.AnswerFormatLong} {
		require.Zero(t, Compare("", "reference", format).Similarity)
		require.Zero(t, Compare("candidate", "", format).Similarity)
		require.Zero(t, Compare("", "", format).Similarity)
	}
	require.False(t, Compare("", "", models.AnswerFormatLong).Correct)
}

func TestCompareSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"photosynthesis converts light", "light is converted by plants"},
		{"xyz", "abc"},
		{"the quick brown fox", "THE QUICK BROWN FOX"},
		{"ünïcödé", "unicode"},
	}

	for _, pair := range pairs {
		got := Compare(pair[0], pair[1], models.AnswerFormatLong)
		require.GreaterOrEqual(t, got.Similarity, 0.0)
		require.LessOrEqual(t, got.Similarity, 1.0)
		require.Equal(t, got, Compare(pair[0], pair[1], models.AnswerFormatLong))
	}
}
