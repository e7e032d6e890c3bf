package reportcard

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolerp/erp/core/attendance"
	"github.com/schoolerp/erp/core/grading"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func fPtr(f float64) *float64 { return &f }

func render(t *testing.T, in Input) (Document, string) {
	doc := NewDocument(in, testNow)
	html, err := Render(doc)
	require.NoError(t, err)
	return doc, string(html)
}

func fullInput() Input {
	return Input{
		Student: StudentInput{
			Name:        "Ravi Kumar",
			AdmissionNo: "ADM-042",
			Grade:       "7",
			Section:     "B",
			RollNo:      "12",
			FatherName:  "Suresh Kumar",
			MotherName:  "Lakshmi",
		},
		School: SchoolInput{
			Name:       "ZPHS Kondapur",
			Address:    Address{Street: "Main Road", City: "Hyderabad", State: "Telangana"},
			District:   "Rangareddy",
			Mandal:     "Serilingampally",
			Village:    "Kondapur",
			SchoolCode: "36100200",
		},
		Exam: ExamInput{Type: "FA", AssessmentNumber: 1, AcademicYear: "2023-24", DateRange: "01 Mar 2024 - 05 Mar 2024"},
		Subjects: []SubjectInput{
			{SubjectName: "Mathematics", MaxMarks: 20, MarksObtained: fPtr(18)},
		},
		Grading: &grading.Scale{
			Bands: grading.Table{
				{Grade: "O", Min: 18, Max: 20, Remark: "Outstanding"},
				{Grade: "A", Min: 15, Max: 17, Remark: "Excellent"},
			},
		},
		Attendance: map[int]attendance.Monthly{
			3: {WorkingDays: 22, PresentDays: 20},
		},
	}
}

func TestRender_endToEnd(t *testing.T) {
	doc, html := render(t, fullInput())

	require.Len(t, doc.Subjects, 1)
	assert.Equal(t, "O", doc.Subjects[0].Grade)
	assert.Equal(t, "Outstanding", doc.Subjects[0].Remark)
	assert.Empty(t, doc.Warnings)
	assert.Equal(t, attendance.Totals{WorkingDays: 22, PresentDays: 20, Percentage: 90.9}, doc.Totals)

	assert.Contains(t, html, `<td>Mathematics</td>`)
	assert.Contains(t, html, `<td class="num">18</td>`)
	assert.Contains(t, html, `<td class="num grade grade-o">O</td>`)
	assert.Contains(t, html, "<td>Total</td>\n        <td class=\"num\">22</td>\n        <td class=\"num\">20</td>\n        <td class=\"num\">90.9%</td>")
	assert.Contains(t, html, "<td>March</td>")

	for _, want := range []string{
		"ZPHS Kondapur",
		"Main Road, Hyderabad, Telangana",
		"District: Rangareddy | Mandal: Serilingampally | Village: Kondapur",
		"School Code: 36100200",
		"Formative Assessment 1 (FA-1) | Academic Year 2023-24",
		"Class Teacher",
		"Principal",
		"Parent/Guardian",
		"auto-generated by the School ERP on 15 March 2024, 10:30 AM",
		`onclick="window.print()"`,
	} {
		assert.Contains(t, html, want)
	}
}

func TestRender_absentSubject(t *testing.T) {
	in := fullInput()
	in.Subjects = []SubjectInput{{SubjectName: "Science", MaxMarks: 20, MarksObtained: nil, IsAbsent: true}}
	doc, html := render(t, in)

	assert.Equal(t, grading.Absent, doc.Subjects[0].Marks)
	assert.Equal(t, grading.Absent, doc.Subjects[0].Grade)
	assert.Contains(t, html, `<td class="num">AB</td>`)
	assert.Contains(t, html, `<td class="num grade grade-ab">AB</td>`)

	// absent marks are ignored even when set
	in.Subjects[0].MarksObtained = fPtr(20)
	doc, _ = render(t, in)
	assert.Equal(t, grading.Absent, doc.Subjects[0].Grade)
	assert.Equal(t, 0.0, doc.Summary.ObtainedMarks)
}

func TestRender_missingOptionalFields(t *testing.T) {
	in := fullInput()
	in.Student = StudentInput{Name: "Ravi Kumar"}
	in.School = SchoolInput{Name: "ZPHS Kondapur", Address: Address{City: "Hyderabad"}}
	in.Exam.DateRange = ""
	doc, html := render(t, in)

	assert.Equal(t, "N/A", doc.Student.FatherName)
	assert.Equal(t, "N/A", doc.Student.MotherName)
	assert.Equal(t, "N/A", doc.Student.AdmissionNo)
	assert.Equal(t, "N/A", doc.Student.Section)
	assert.Equal(t, "N/A", doc.Student.Grade)

	assert.Contains(t, html, `<td class="label">Father's Name</td><td>N/A</td>`)
	assert.Contains(t, html, `<td class="label">Mother's Name</td><td colspan="3">N/A</td>`)
	assert.Contains(t, html, `<td class="label">Admission No.</td><td>N/A</td>`)
	assert.Contains(t, html, `<td class="label">Class</td><td>N/A</td>`)
	assert.Contains(t, html, `<td class="label">Section</td><td>N/A</td>`)
	assert.Contains(t, html, "N/A, Hyderabad, N/A")
	assert.Contains(t, html, "Examination Period: N/A")
	assert.NotContains(t, html, "<img")
}

func TestRender_emptyInput(t *testing.T) {
	doc, html := render(t, Input{})

	assert.Equal(t, "N/A", doc.Student.Name)
	assert.Equal(t, "N/A", doc.Summary.Grade)
	assert.Equal(t, attendance.Totals{}, doc.Totals)
	assert.Contains(t, html, "No marks recorded")
	assert.Contains(t, html, "No attendance recorded")
	assert.Contains(t, html, `<td class="num">0.0%</td>`)
}

func TestRender_escapesText(t *testing.T) {
	in := fullInput()
	in.Student.Name = `<script>alert("x")</script>`
	in.School.Name = "St. Mary's & Sons"
	in.School.LogoURL = "javascript:alert(1)"
	in.Subjects[0].SubjectName = `<b onmouseover="x()">Maths</b>`
	_, html := render(t, in)

	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<b onmouseover")
	assert.NotContains(t, html, "javascript:alert")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "St. Mary&#39;s &amp; Sons")
}

func TestRender_idempotent(t *testing.T) {
	in := fullInput()
	in.Attendance[1] = attendance.Monthly{WorkingDays: 20, PresentDays: 19, Percentage: 95}
	in.Attendance[12] = attendance.Monthly{WorkingDays: 18, PresentDays: 18, Percentage: 100}

	_, first := render(t, in)
	_, second := render(t, in)
	assert.Equal(t, first, second)

	// the input timestamp wins over the fallback
	at := testNow.Add(time.Hour)
	in.GeneratedAt = &at
	doc := NewDocument(in, time.Now())
	assert.Equal(t, at, doc.GeneratedAt)
}

func TestRender_monthOrder(t *testing.T) {
	in := fullInput()
	in.Attendance = map[int]attendance.Monthly{
		12: {WorkingDays: 18, PresentDays: 18, Percentage: 100},
		1:  {WorkingDays: 20, PresentDays: 19, Percentage: 95},
		10: {WorkingDays: 21, PresentDays: 20, Percentage: 95.2},
	}
	doc, html := render(t, in)

	require.Len(t, doc.Attendance, 3)
	assert.Equal(t, []int{1, 10, 12}, []int{doc.Attendance[0].Month, doc.Attendance[1].Month, doc.Attendance[2].Month})

	jan := strings.Index(html, "<td>January</td>")
	oct := strings.Index(html, "<td>October</td>")
	dec := strings.Index(html, "<td>December</td>")
	assert.True(t, jan > 0 && jan < oct && oct < dec, "months out of order")
	assert.Contains(t, html, `<td class="num">95.2%</td>`)
}

func TestRender_unmatchedGrade(t *testing.T) {
	in := fullInput()
	in.Subjects = append(in.Subjects, SubjectInput{SubjectName: "English", MaxMarks: 20, MarksObtained: fPtr(5)})
	doc, _ := render(t, in)

	assert.Equal(t, grading.Unmatched, doc.Subjects[1].Grade)
	assert.NotEmpty(t, doc.Warnings)
}

func TestNewDocument_preGraded(t *testing.T) {
	in := fullInput()
	in.Subjects = []SubjectInput{
		{SubjectName: "Mathematics", MaxMarks: 20, MarksObtained: fPtr(18), Grade: "A", Remark: "Excellent"},
		{SubjectName: "Science", MaxMarks: 20, MarksObtained: fPtr(19)},
		{SubjectName: "English", MaxMarks: 20, IsAbsent: true, Grade: "O"},
	}
	in.Overall = &OverallInput{Grade: "B", Remark: "Good"}
	doc := NewDocument(in, testNow)

	assert.Equal(t, "A", doc.Subjects[0].Grade, "stored grade wins over the scale")
	assert.Equal(t, "Excellent", doc.Subjects[0].Remark)
	assert.Equal(t, 18.0, doc.Subjects[0].Score)
	assert.Equal(t, "O", doc.Subjects[1].Grade, "graded when no grade is given")
	assert.Equal(t, grading.Absent, doc.Subjects[2].Grade, "absence overrides a stored grade")
	assert.Equal(t, "B", doc.Summary.Grade)
	assert.Equal(t, "Good", doc.Summary.Remark)
	assert.Equal(t, 37.0, doc.Summary.ObtainedMarks)
	assert.Empty(t, doc.Warnings)
}

func TestNewDocument_defaultScale(t *testing.T) {
	in := fullInput()
	in.Grading = nil
	in.Exam.Type = "sa"
	in.Subjects = []SubjectInput{
		{SubjectName: "Telugu", MaxMarks: 100, MarksObtained: fPtr(91)},
		{SubjectName: "Hindi", MaxMarks: 100, MarksObtained: fPtr(70)},
	}
	doc := NewDocument(in, testNow)

	assert.Equal(t, grading.BasisPercentage, doc.Scale.Basis)
	assert.Equal(t, "O", doc.Subjects[0].Grade)
	assert.Equal(t, "B", doc.Subjects[1].Grade)
	assert.Equal(t, "A", doc.Summary.Grade) // 80.5%
	assert.Equal(t, "SA-1", doc.Exam.Code())
	assert.Equal(t, "Summative Assessment 1", doc.Exam.Name)
}

func TestFilename(t *testing.T) {
	in := fullInput()
	in.Student.Name = " Ravi   Kumar\tReddy "
	in.Exam.AcademicYear = "2023/24"
	doc := NewDocument(in, testNow)
	assert.Equal(t, "report-card-Ravi-Kumar-Reddy-FA1-202324.html", Filename(doc))
}

func TestInput_JSON(t *testing.T) {
	data := []byte(`{
		"student": {"name": "Anu"},
		"school": {"name": "ZPHS", "address": "12 Temple Street"},
		"exam": {"type": "FA", "assessment_number": 2, "academic_year": "2024-25"},
		"subjects": [{"subject_name": "English", "max_marks": 20, "marks_obtained": null, "is_absent": true}],
		"attendance": {"7": {"working_days": 22, "present_days": 20, "attendance_percentage": 90.9}}
	}`)
	var in Input
	require.NoError(t, json.Unmarshal(data, &in))

	assert.Equal(t, "12 Temple Street", in.School.Address.Street)
	assert.Nil(t, in.Subjects[0].MarksObtained)
	assert.Equal(t, 90.9, in.Attendance[7].Percentage)
}
