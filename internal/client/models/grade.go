package models

import (
	"errors"
	"fmt"
	"strings"
)

// Grade is a letter grade. The empty grade means "not graded".
type Grade string

const (
	GradeA    Grade = "A"
	GradeB    Grade = "B"
	GradeC    Grade = "C"
	GradeD    Grade = "D"
	GradeF    Grade = "F"
	NotGraded Grade = ""
)

var (
	ErrInvalidGrade = errors.New("grade must be one of A, B, C, D, F or empty")
	ErrInvalidScore = errors.New("score must be between 0 and 100")
)

// ParseGrade validates a letter grade. Input is case-insensitive; "-" reads
// as not graded.
func ParseGrade(s string) (Grade, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch g := Grade(s); g {
	case GradeA, GradeB, GradeC, GradeD, GradeF, NotGraded:
		return g, nil
	case "-":
		return NotGraded, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
}

// ValidateScore accepts nil (no score) or a value in [0, 100].
func ValidateScore(score *float64) error {
	if score == nil {
		return nil
	}
	if *score < 0 || *score > 100 {
		return fmt.Errorf("%w: %v", ErrInvalidScore, *score)
	}
	return nil
}
