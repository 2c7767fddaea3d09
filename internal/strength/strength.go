// Package strength scores candidate master passwords against a fixed,
// point-additive rubric. Score is a pure function: identical input always
// yields identical output.
package strength

import (
	"strings"
	"unicode"
)

// Level classifies a score into a user-facing strength band.
type Level string

const (
	LevelWeak       Level = "weak"
	LevelMedium     Level = "medium"
	LevelStrong     Level = "strong"
	LevelVeryStrong Level = "very-strong"
)

// MinMasterScore is the minimum score accepted for a new master password.
const MinMasterScore = 3

// MaxScore is the highest attainable score: seven rubric points plus the
// bonus point granted when every criterion is met at once.
const MaxScore = 8

// Result is the outcome of scoring one password.
type Result struct {
	Score    int
	Strength Level
	Feedback []string
}

type criterion struct {
	met      func(string) bool
	feedback string
}

// Rubric order matters: feedback is reported in this order.
var criteria = []criterion{
	{func(p string) bool { return len(p) >= 8 }, "use at least 8 characters"},
	{func(p string) bool { return len(p) >= 12 }, "use at least 12 characters"},
	{func(p string) bool { return len(p) >= 16 }, "use at least 16 characters"},
	{containsClass(unicode.IsLower), "add lowercase letters"},
	{containsClass(unicode.IsUpper), "add uppercase letters"},
	{containsClass(unicode.IsDigit), "add digits"},
	{containsSymbol, "add symbols"},
}

// Score evaluates password against the rubric. One point per criterion met;
// meeting all seven earns one bonus point, so only a password combining
// every length and character-class bonus reaches "very-strong".
func Score(password string) Result {
	res := Result{Feedback: []string{}}

	for _, c := range criteria {
		if c.met(password) {
			res.Score++
		} else {
			res.Feedback = append(res.Feedback, c.feedback)
		}
	}
	if res.Score == len(criteria) {
		res.Score++
	}

	switch {
	case res.Score <= 3:
		res.Strength = LevelWeak
	case res.Score <= 5:
		res.Strength = LevelMedium
	case res.Score <= 7:
		res.Strength = LevelStrong
	default:
		res.Strength = LevelVeryStrong
	}

	return res
}

func containsClass(f func(rune) bool) func(string) bool {
	return func(p string) bool {
		return strings.ContainsFunc(p, f)
	}
}

func containsSymbol(p string) bool {
	return strings.ContainsFunc(p, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
	})
}
