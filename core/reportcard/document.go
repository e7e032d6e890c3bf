package reportcard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/attendance"
	"github.com/schoolerp/erp/core/grading"
)

var assessmentNames = map[string]string{
	grading.Formative: "Formative Assessment",
	grading.Summative: "Summative Assessment",
}

type (
	// Document is a fully normalized report card: every printable value is set.
	Document struct {
		Student     StudentView
		School      SchoolView
		Exam        ExamView
		Subjects    []SubjectRow
		Summary     grading.Summary
		Scale       grading.Scale
		Attendance  []AttendanceRow
		Totals      attendance.Totals
		Remarks     Remarks
		GeneratedAt time.Time
		// Warnings lists grading problems worth logging (unmatched scores).
		Warnings []string
	}

	StudentView struct {
		Name        string
		AdmissionNo string
		Grade       string
		Section     string
		RollNo      string
		FatherName  string
		MotherName  string
	}

	SchoolView struct {
		Name       string
		LogoURL    string
		Street     string
		City       string
		State      string
		District   string
		Mandal     string
		Village    string
		SchoolCode string
	}

	ExamView struct {
		Name             string
		Type             string
		AssessmentNumber int
		AcademicYear     string
		DateRange        string
	}

	SubjectRow struct {
		Index       int
		SubjectName string
		MaxMarks    float64
		Marks       string // formatted marks or "AB"
		Percentage  float64
		IsAbsent    bool
		grading.Result
	}

	AttendanceRow struct {
		Month     int
		MonthName string
		attendance.Monthly
	}
)

// Code is the short assessment label, e.g. "FA-1".
func (e ExamView) Code() string {
	if e.AssessmentNumber <= 0 {
		return core.OrNA(e.Type)
	}
	return fmt.Sprintf("%s-%d", e.Type, e.AssessmentNumber)
}

// Title is the long assessment label, e.g. "Formative Assessment 1".
func (e ExamView) Title() string {
	name, ok := assessmentNames[e.Type]
	if !ok {
		name = e.Type
	}
	if e.AssessmentNumber > 0 {
		name += " " + strconv.Itoa(e.AssessmentNumber)
	}
	return name
}

// Address is the one-line school address.
func (s SchoolView) Address() string {
	return strings.Join([]string{s.Street, s.City, s.State}, ", ")
}

// NewDocument normalizes `in`. Missing text becomes "N/A", grades and totals are derived.
// `now` is used when the input carries no generation timestamp.
func NewDocument(in Input, now time.Time) Document {
	doc := Document{
		Student: StudentView{
			Name:        core.OrNA(in.Student.Name),
			AdmissionNo: core.OrNA(in.Student.AdmissionNo),
			Grade:       core.OrNA(in.Student.Grade),
			Section:     core.OrNA(in.Student.Section),
			RollNo:      core.OrNA(in.Student.RollNo),
			FatherName:  core.OrNA(in.Student.FatherName),
			MotherName:  core.OrNA(in.Student.MotherName),
		},
		School: SchoolView{
			Name:       core.OrNA(in.School.Name),
			LogoURL:    core.CleanString(in.School.LogoURL),
			Street:     core.OrNA(in.School.Address.Street),
			City:       core.OrNA(in.School.Address.City),
			State:      core.OrNA(in.School.Address.State),
			District:   core.OrNA(in.School.District),
			Mandal:     core.OrNA(in.School.Mandal),
			Village:    core.OrNA(in.School.Village),
			SchoolCode: core.OrNA(in.School.SchoolCode),
		},
		Exam: ExamView{
			Type:             strings.ToUpper(core.CleanString(in.Exam.Type)),
			AssessmentNumber: in.Exam.AssessmentNumber,
			AcademicYear:     core.OrNA(in.Exam.AcademicYear),
			DateRange:        core.OrNA(in.Exam.DateRange),
		},
		Remarks:     in.Remarks,
		GeneratedAt: now,
	}
	if in.GeneratedAt != nil {
		doc.GeneratedAt = *in.GeneratedAt
	}
	doc.Exam.Name = core.OrNA(in.Exam.Name, doc.Exam.Title())

	doc.Scale = scaleFor(in)
	doc.Subjects = make([]SubjectRow, 0, len(in.Subjects))
	subjects := make([]grading.Subject, 0, len(in.Subjects))
	for i, s := range in.Subjects {
		row := newSubjectRow(i+1, s, doc.Scale)
		if !row.Matched {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("no grade band for %s (score %g)", row.SubjectName, row.Score))
		}
		doc.Subjects = append(doc.Subjects, row)
		subjects = append(subjects, grading.Subject{
			MaxMarks:      s.MaxMarks,
			MarksObtained: markValue(s.MarksObtained),
			IsAbsent:      s.IsAbsent,
		})
	}

	doc.Summary = grading.Overall(subjects, doc.Scale)
	if in.Overall != nil && core.CleanString(in.Overall.Grade) != "" {
		doc.Summary.Grade = core.CleanString(in.Overall.Grade)
		doc.Summary.Remark = in.Overall.Remark
		doc.Summary.Matched = true
	}
	if doc.Summary.TotalMarks > 0 && !doc.Summary.Matched {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("no grade band for the overall score %g", doc.Summary.Score))
	}
	if doc.Summary.Grade == "" {
		doc.Summary.Grade = core.NotAvailable
	}

	for _, m := range attendance.Months(in.Attendance) {
		monthly := in.Attendance[m]
		if monthly.Percentage == 0 && monthly.PresentDays > 0 {
			// omitted by the caller
			monthly.Percentage = attendance.Percentage(monthly.PresentDays, monthly.WorkingDays)
		}
		doc.Attendance = append(doc.Attendance, AttendanceRow{
			Month:     m,
			MonthName: attendance.MonthName(m),
			Monthly:   monthly,
		})
	}
	doc.Totals = attendance.Aggregate(in.Attendance)
	return doc
}

func newSubjectRow(idx int, s SubjectInput, scale grading.Scale) SubjectRow {
	row := SubjectRow{
		Index:       idx,
		SubjectName: core.OrNA(s.SubjectName),
		MaxMarks:    s.MaxMarks,
		IsAbsent:    s.IsAbsent,
	}
	if s.IsAbsent {
		row.Marks = grading.Absent
		row.Result = grading.Grade(0, true, scale.Bands)
		return row
	}

	marks := markValue(s.MarksObtained)
	row.Marks = formatNumber(marks)
	row.Percentage = grading.Percentage(marks, s.MaxMarks)
	score := grading.Score(scale.Basis, marks, s.MaxMarks)
	if grade := core.CleanString(s.Grade); grade != "" {
		row.Result = grading.Result{Grade: grade, Remark: s.Remark, Score: score, Matched: true}
		return row
	}
	row.Result = grading.Grade(score, false, scale.Bands)
	return row
}

// scaleFor returns the input's grading scale, defaulting on the exam type.
func scaleFor(in Input) grading.Scale {
	if in.Grading != nil && len(in.Grading.Bands) > 0 {
		s := *in.Grading
		if s.Basis == "" {
			s.Basis = grading.BasisMarks
		}
		return s
	}
	if s, ok := grading.DefaultScale(in.Exam.Type); ok {
		return s
	}
	s, _ := grading.DefaultScale(grading.Formative)
	return s
}

func markValue(m *float64) float64 {
	if m == nil {
		return 0
	}
	return *m
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
