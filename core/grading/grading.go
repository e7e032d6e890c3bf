// Package grading maps marks to letter grades through ordered grade bands.
package grading

import (
	"math"
	"strings"
)

const (
	// Absent is the grade of a subject the student did not sit.
	Absent       = "AB"
	AbsentRemark = "Absent"

	// Unmatched is the grade of a score no band contains.
	Unmatched = "N/A"
)

// Assessment types
const (
	Formative = "FA"
	Summative = "SA"
)

var AssessmentTypes = []string{Formative, Summative}

// Basis tells what a table's bounds are expressed in.
type Basis string

const (
	BasisMarks      Basis = "marks"      // raw marks, e.g. out of 20
	BasisPercentage Basis = "percentage" // 0 - 100
)

// Band is a labeled, inclusive score interval.
type Band struct {
	Grade  string  `json:"grade" validate:"required,max=4"`
	Min    float64 `json:"min" validate:"gte=0"`
	Max    float64 `json:"max" validate:"gtefield=Min"`
	Remark string  `json:"remark"`
}

func (b Band) Contains(score float64) bool {
	return b.Min <= score && score <= b.Max
}

// Table is an ordered list of bands. Overlaps are resolved by order: first match wins.
type Table []Band

// Lookup returns the first band containing `score`.
func (t Table) Lookup(score float64) (Band, bool) {
	for _, b := range t {
		if b.Contains(score) {
			return b, true
		}
	}
	return Band{}, false
}

// Result of grading one score.
type Result struct {
	Grade   string  `json:"grade"`
	Remark  string  `json:"remark"`
	Score   float64 `json:"score"`
	Matched bool    `json:"-"`
}

// Grade grades `score` against `t`; absence short-circuits to Absent.
//
// A score falling between two integer-bounded bands (e.g. 89.5 with A 72-89 and O 90-100)
// is retried rounded half-up. A score no band contains yields Unmatched with Matched=false.
func Grade(score float64, isAbsent bool, t Table) Result {
	if isAbsent {
		return Result{Grade: Absent, Remark: AbsentRemark, Matched: true}
	}
	if b, ok := t.Lookup(score); ok {
		return Result{Grade: b.Grade, Remark: b.Remark, Score: score, Matched: true}
	}
	if rounded := math.Floor(score + .5); rounded != score {
		if b, ok := t.Lookup(rounded); ok {
			return Result{Grade: b.Grade, Remark: b.Remark, Score: score, Matched: true}
		}
	}
	return Result{Grade: Unmatched, Score: score}
}

// Score is the value graded for `marks` out of `max` on the given basis.
func Score(basis Basis, marks, max float64) float64 {
	if basis == BasisPercentage {
		return Percentage(marks, max)
	}
	return marks
}

// Percentage returns marks/max*100, or 0 when max is not positive.
func Percentage(marks, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return marks / max * 100
}

// Round1 rounds `f` to one decimal place.
func Round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// Scale is a grading table bound to an assessment type.
type Scale struct {
	AssessmentType string  `json:"assessment_type" validate:"omitempty,assessment"`
	Basis          Basis   `json:"basis" validate:"omitempty,oneof=marks percentage"`
	MaxMarks       float64 `json:"max_marks" validate:"gte=0"` // per subject, informative for marks-based scales
	Bands          Table   `json:"bands" validate:"required,min=1,dive"`
}

// DefaultFA is the Telangana State Board formative scale (out of 20 per subject).
var DefaultFA = Scale{
	AssessmentType: Formative,
	Basis:          BasisMarks,
	MaxMarks:       20,
	Bands: Table{
		{Grade: "O", Min: 19, Max: 20, Remark: "Outstanding"},
		{Grade: "A", Min: 15, Max: 18, Remark: "Excellent Progress"},
		{Grade: "B", Min: 11, Max: 14, Remark: "Good"},
		{Grade: "C", Min: 6, Max: 10, Remark: "Pass"},
		{Grade: "D", Min: 0, Max: 5, Remark: "Needs Improvement"},
	},
}

// DefaultSA is the Telangana State Board summative scale (percentage based).
var DefaultSA = Scale{
	AssessmentType: Summative,
	Basis:          BasisPercentage,
	MaxMarks:       100,
	Bands: Table{
		{Grade: "O", Min: 90, Max: 100, Remark: "Outstanding"},
		{Grade: "A", Min: 72, Max: 89, Remark: "Excellent"},
		{Grade: "B", Min: 52, Max: 71, Remark: "Good"},
		{Grade: "C", Min: 34, Max: 51, Remark: "Pass"},
		{Grade: "D", Min: 0, Max: 33, Remark: "Need to Improve"},
	},
}

// DefaultScale returns a copy of the default scale for `assessmentType`.
func DefaultScale(assessmentType string) (Scale, bool) {
	var s Scale
	switch strings.ToUpper(assessmentType) {
	case Formative:
		s = DefaultFA
	case Summative:
		s = DefaultSA
	default:
		return Scale{}, false
	}
	s.Bands = append(Table(nil), s.Bands...)
	return s, true
}

func IsAssessmentType(s string) bool {
	for _, t := range AssessmentTypes {
		if s == t {
			return true
		}
	}
	return false
}
