package grading

// Subject is the minimal view of a subject result needed to compute totals.
type Subject struct {
	MaxMarks      float64
	MarksObtained float64
	IsAbsent      bool
}

// Summary is the aggregate of a set of subjects.
type Summary struct {
	TotalMarks    float64 `json:"total_marks"`
	ObtainedMarks float64 `json:"obtained_marks"`
	Percentage    float64 `json:"percentage"`
	Result
}

// Overall totals `subjects` (absent subjects count as 0) and grades the result.
//
// Marks-based scales grade the average marks per subject (each subject being out of the
// scale's max marks); percentage-based scales grade the overall percentage.
// With no subjects, or no max marks, the summary carries no grade.
func Overall(subjects []Subject, scale Scale) Summary {
	var sum Summary
	for _, s := range subjects {
		sum.TotalMarks += s.MaxMarks
		if !s.IsAbsent {
			sum.ObtainedMarks += s.MarksObtained
		}
	}
	sum.Percentage = Percentage(sum.ObtainedMarks, sum.TotalMarks)
	if sum.TotalMarks <= 0 {
		return sum
	}

	score := sum.Percentage
	if scale.Basis == BasisMarks {
		score = sum.ObtainedMarks / float64(len(subjects))
	}
	sum.Result = Grade(score, false, scale.Bands)
	return sum
}
