package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrade(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		isAbsent   bool
		table      Table
		wantGrade  string
		wantRemark string
		wantMatch  bool
	}{
		{name: "top band", score: 18, table: DefaultFA.Bands, wantGrade: "A", wantRemark: "Excellent Progress", wantMatch: true},
		{name: "inclusive max", score: 20, table: DefaultFA.Bands, wantGrade: "O", wantRemark: "Outstanding", wantMatch: true},
		{name: "inclusive min", score: 0, table: DefaultFA.Bands, wantGrade: "D", wantRemark: "Needs Improvement", wantMatch: true},
		{name: "absent ignores score", score: 20, isAbsent: true, table: DefaultFA.Bands, wantGrade: Absent, wantRemark: AbsentRemark, wantMatch: true},
		{name: "absent with empty table", isAbsent: true, wantGrade: Absent, wantRemark: AbsentRemark, wantMatch: true},
		{name: "gap rounds up", score: 89.5, table: DefaultSA.Bands, wantGrade: "O", wantRemark: "Outstanding", wantMatch: true},
		{name: "gap rounds down", score: 18.4, table: DefaultFA.Bands, wantGrade: "A", wantRemark: "Excellent Progress", wantMatch: true},
		{name: "above every band", score: 21, table: DefaultFA.Bands, wantGrade: Unmatched},
		{name: "negative", score: -1, table: DefaultFA.Bands, wantGrade: Unmatched},
		{name: "empty table", score: 10, wantGrade: Unmatched},
		{
			name:  "overlap first wins",
			score: 10,
			table: Table{
				{Grade: "X", Min: 5, Max: 10, Remark: "first"},
				{Grade: "Y", Min: 10, Max: 15, Remark: "second"},
			},
			wantGrade: "X", wantRemark: "first", wantMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grade(tt.score, tt.isAbsent, tt.table)
			assert.Equal(t, tt.wantGrade, got.Grade)
			assert.Equal(t, tt.wantRemark, got.Remark)
			assert.Equal(t, tt.wantMatch, got.Matched)
		})
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 18.0, Score(BasisMarks, 18, 20))
	assert.Equal(t, 90.0, Score(BasisPercentage, 18, 20))
	assert.Equal(t, 0.0, Score(BasisPercentage, 18, 0))
	assert.Equal(t, 66.7, Round1(Percentage(2, 3)))
}

func TestDefaultScale(t *testing.T) {
	s, ok := DefaultScale("fa")
	assert.True(t, ok)
	assert.Equal(t, BasisMarks, s.Basis)

	// copies must not alias the package defaults
	s.Bands[0].Grade = "Z"
	assert.Equal(t, "O", DefaultFA.Bands[0].Grade)

	s, ok = DefaultScale(Summative)
	assert.True(t, ok)
	assert.Equal(t, BasisPercentage, s.Basis)

	_, ok = DefaultScale("CCE")
	assert.False(t, ok)
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name         string
		subjects     []Subject
		scale        Scale
		wantObtained float64
		wantTotal    float64
		wantPct      float64
		wantGrade    string
	}{
		{
			name: "formative averages marks",
			subjects: []Subject{
				{MaxMarks: 20, MarksObtained: 19},
				{MaxMarks: 20, MarksObtained: 17},
			},
			scale:        DefaultFA,
			wantObtained: 36, wantTotal: 40, wantPct: 90, wantGrade: "A",
		},
		{
			name: "summative grades percentage",
			subjects: []Subject{
				{MaxMarks: 100, MarksObtained: 95},
				{MaxMarks: 100, MarksObtained: 85},
			},
			scale:        DefaultSA,
			wantObtained: 180, wantTotal: 200, wantPct: 90, wantGrade: "O",
		},
		{
			name: "absent counts zero",
			subjects: []Subject{
				{MaxMarks: 100, MarksObtained: 80},
				{MaxMarks: 100, MarksObtained: 99, IsAbsent: true},
			},
			scale:        DefaultSA,
			wantObtained: 80, wantTotal: 200, wantPct: 40, wantGrade: "C",
		},
		{name: "no subjects", scale: DefaultSA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overall(tt.subjects, tt.scale)
			assert.Equal(t, tt.wantObtained, got.ObtainedMarks)
			assert.Equal(t, tt.wantTotal, got.TotalMarks)
			assert.InDelta(t, tt.wantPct, got.Percentage, 0.001)
			assert.Equal(t, tt.wantGrade, got.Grade)
		})
	}
}
