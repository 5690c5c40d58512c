// Package grading scores free-form answers against an assignment question bank.
//
// Everything in this package is deterministic and free of I/O so the same
// inputs always produce the same marks.
package grading

import (
	"strings"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// longCorrectThreshold is the similarity at which a long answer counts as correct.
const longCorrectThreshold = 0.8

// Comparison is the outcome of comparing a candidate answer with its reference.
type Comparison struct {
	Correct    bool
	Similarity float64
}

// Compare normalises both answers and compares them according to the answer format.
//
// Short answers must match exactly after trimming and case folding. Long answers
// are compared by the overlap of their character sets.
func Compare(candidate, reference string, format models.AnswerFormat) Comparison {
	a := normalize(candidate)
	b := normalize(reference)
	similarity := charsetSimilarity(a, b)

	if format == models.AnswerFormatLong {
		return Comparison{Correct: similarity >= longCorrectThreshold, Similarity: similarity}
	}

	return Comparison{Correct: a == b, Similarity: similarity}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// charsetSimilarity returns |set(a) ∩ set(b)| / max(|set(a)|, |set(b)|, 1).
func charsetSimilarity(a, b string) float64 {
	setA := charset(a)
	setB := charset(b)

	shared := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			shared++
		}
	}

	denominator := len(setA)
	if len(setB) > denominator {
		denominator = len(setB)
	}
	if denominator < 1 {
		denominator = 1
	}

	return float64(shared) / float64(denominator)
}

func charset(value string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(value))
	for _, r := range value {
		set[r] = struct{}{}
	}
	return set
}
