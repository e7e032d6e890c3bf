package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/attendance"
	"github.com/schoolerp/erp/core/grading"
	"github.com/schoolerp/erp/core/reportcard"
	"github.com/schoolerp/erp/tests"
)

func fPtr(f float64) *float64 { return &f }

func TestReportcardRepository_schoolsAndStudents(t *testing.T) {
	ctx := context.Background()
	repo := NewReportcardRepository(testutil.OpenDB(t))

	school := testutil.CreateSchool(t, repo, "ZPHS Hanamkonda")
	other := testutil.CreateSchool(t, repo, "Govt High School Kazipet")
	stu := testutil.CreateStudent(t, repo, school.ID, "Priya Sharma", "parent@example.com", "mother@example.com")
	testutil.CreateStudent(t, repo, other.ID, "Arjun Reddy")

	got, err := repo.GetSchool(ctx, school.ID)
	require.NoError(t, err)
	assert.Equal(t, "ZPHS Hanamkonda", got.Name)
	assert.Equal(t, reportcard.Address{Street: "Main Road", City: "Warangal", State: "Telangana"}, got.Address)
	assert.Equal(t, "", got.LogoURL)

	_, err = repo.GetSchool(ctx, "missing")
	assert.Equal(t, reportcard.ErrSchoolNotFound, err)

	schools, err := repo.QuerySchools(ctx)
	require.NoError(t, err)
	require.Len(t, schools, 2)
	assert.Equal(t, other.ID, schools[0].ID) // ordered by name

	gotStu, err := repo.GetStudent(ctx, school.ID, stu.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"parent@example.com", "mother@example.com"}, gotStu.ParentEmails)
	assert.Equal(t, "7", gotStu.Grade)

	_, err = repo.GetStudent(ctx, other.ID, stu.ID)
	assert.Equal(t, reportcard.ErrStudentNotFound, err, "students are scoped by school")

	students, err := repo.QueryStudents(ctx, school.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, stu.ID, students[0].ID)
}

func TestReportcardRepository_examGroupsAndMarks(t *testing.T) {
	ctx := context.Background()
	repo := NewReportcardRepository(testutil.OpenDB(t))
	school := testutil.CreateSchool(t, repo, "ZPHS Hanamkonda")
	stu := testutil.CreateStudent(t, repo, school.ID, "Priya Sharma")
	eg := testutil.CreateExamGroup(t, repo, school.ID)

	got, err := repo.GetExamGroup(ctx, school.ID, eg.ID)
	require.NoError(t, err)
	assert.Equal(t, "FA", got.AssessmentType)
	assert.True(t, got.EndDate.Equal(eg.EndDate))
	assert.Equal(t, "22 Jul 2024 - 26 Jul 2024", got.DateRange())

	_, err = repo.GetExamGroup(ctx, "other-school", eg.ID)
	assert.Equal(t, reportcard.ErrExamGroupNotFound, err)

	groups, err := repo.QueryExamGroups(ctx, reportcard.ExamGroupFilter{SchoolID: school.ID, AssessmentType: "SA"})
	require.NoError(t, err)
	assert.Empty(t, groups)
	groups, err = repo.QueryExamGroups(ctx, reportcard.ExamGroupFilter{SchoolID: school.ID, AcademicYear: "2024-2025"})
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	now := time.Date(2024, time.July, 27, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertMarks(ctx,
		reportcard.Mark{ExamGroupID: eg.ID, StudentID: stu.ID, SubjectName: "Telugu", MaxMarks: 20, MarksObtained: fPtr(15), DisplayOrder: 1, UpdatedAt: now},
		reportcard.Mark{ExamGroupID: eg.ID, StudentID: stu.ID, SubjectName: "English", MaxMarks: 20, IsAbsent: true, DisplayOrder: 2, UpdatedAt: now},
		reportcard.Mark{ExamGroupID: eg.ID, StudentID: stu.ID, SubjectName: "Mathematics", MaxMarks: 20, MarksObtained: fPtr(12), DisplayOrder: 2, UpdatedAt: now},
	))
	// re-entering a mark replaces it
	require.NoError(t, repo.UpsertMarks(ctx,
		reportcard.Mark{ExamGroupID: eg.ID, StudentID: stu.ID, SubjectName: "Telugu", MaxMarks: 20, MarksObtained: fPtr(17.5), DisplayOrder: 1, UpdatedAt: now},
	))

	marks, err := repo.QueryMarks(ctx, eg.ID, stu.ID)
	require.NoError(t, err)
	require.Len(t, marks, 3)
	assert.Equal(t, "Telugu", marks[0].SubjectName)
	assert.Equal(t, 17.5, *marks[0].MarksObtained)
	assert.Equal(t, "English", marks[1].SubjectName)
	assert.True(t, marks[1].IsAbsent)
	assert.Nil(t, marks[1].MarksObtained)
	assert.Equal(t, "Mathematics", marks[2].SubjectName)

	ids, err := repo.QueryMarkedStudentIDs(ctx, eg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{stu.ID}, ids)
}

func TestReportcardRepository_attendanceAndScales(t *testing.T) {
	ctx := context.Background()
	repo := NewReportcardRepository(testutil.OpenDB(t))
	school := testutil.CreateSchool(t, repo, "ZPHS Hanamkonda")
	stu := testutil.CreateStudent(t, repo, school.ID, "Priya Sharma")

	now := time.Now().UTC()
	rec := func(year, month, working, present int) reportcard.AttendanceRecord {
		return reportcard.AttendanceRecord{
			StudentID: stu.ID, SchoolID: school.ID, Year: year, Month: month,
			Monthly: attendance.NewMonthly(working, present), UpdatedAt: now,
		}
	}
	require.NoError(t, repo.UpsertAttendance(ctx, rec(2024, 6, 20, 18), rec(2024, 7, 23, 20), rec(2023, 7, 22, 22)))
	require.NoError(t, repo.UpsertAttendance(ctx, rec(2024, 7, 23, 21)))

	records, err := repo.QueryAttendance(ctx, school.ID, stu.ID,
		attendance.MonthRef{Year: 2024, Month: 6}, attendance.MonthRef{Year: 2024, Month: 7})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 6, records[0].Month)
	assert.Equal(t, attendance.Monthly{WorkingDays: 23, PresentDays: 21, Percentage: 91.3}, records[1].Monthly)

	all, err := repo.QueryAttendance(ctx, school.ID, stu.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repo.GetGradingScale(ctx, school.ID, grading.Formative)
	assert.Equal(t, reportcard.ErrScaleNotFound, err)

	scale := reportcard.GradingScale{SchoolID: school.ID, Scale: grading.DefaultFA, UpdatedAt: now}
	_, err = repo.UpsertGradingScale(ctx, scale)
	require.NoError(t, err)
	scale.Bands = grading.Table{{Grade: "P", Min: 0, Max: 20, Remark: "Pass"}}
	_, err = repo.UpsertGradingScale(ctx, scale)
	require.NoError(t, err)

	got, err := repo.GetGradingScale(ctx, school.ID, grading.Formative)
	require.NoError(t, err)
	assert.Equal(t, grading.BasisMarks, got.Basis)
	assert.Equal(t, grading.Table{{Grade: "P", Min: 0, Max: 20, Remark: "Pass"}}, got.Bands)
}

func TestReportcardRepository_reports(t *testing.T) {
	ctx := context.Background()
	repo := NewReportcardRepository(testutil.OpenDB(t))
	school := testutil.CreateSchool(t, repo, "ZPHS Hanamkonda")
	priya := testutil.CreateStudent(t, repo, school.ID, "Priya Sharma")
	arjun := testutil.CreateStudent(t, repo, school.ID, "Arjun Reddy")
	eg := testutil.CreateExamGroup(t, repo, school.ID)

	generated := time.Date(2024, time.July, 27, 10, 0, 0, 0, time.UTC)
	newReport := func(id, studentID string, pct float64, at time.Time) reportcard.Report {
		return reportcard.Report{
			ID: id, SchoolID: school.ID, StudentID: studentID, ExamGroupID: eg.ID,
			AcademicYear: eg.AcademicYear, AssessmentType: eg.AssessmentType, AssessmentNumber: eg.AssessmentNumber,
			SubjectMarks: []reportcard.SubjectResult{
				{SubjectName: "Telugu", MaxMarks: 20, MarksObtained: fPtr(18), Percentage: 90, Grade: "A1", Remark: "Excellent"},
				{SubjectName: "English", MaxMarks: 20, IsAbsent: true, Grade: grading.Absent, Remark: grading.AbsentRemark},
			},
			TotalMarks: 20, ObtainedMarks: 18, Percentage: pct, OverallGrade: "A1",
			Attendance: map[int]attendance.Monthly{7: attendance.NewMonthly(23, 21)},
			Scale:      grading.DefaultFA,
			Status:     reportcard.StatusGenerated, GeneratedAt: at, UpdatedAt: at,
		}
	}

	first, err := repo.UpsertReport(ctx, newReport("rep-1", priya.ID, 90, generated))
	require.NoError(t, err)
	assert.Equal(t, "rep-1", first.ID)
	assert.Equal(t, map[int]attendance.Monthly{7: {WorkingDays: 23, PresentDays: 21, Percentage: 91.3}}, first.Attendance)
	require.Len(t, first.SubjectMarks, 2)
	assert.Nil(t, first.SubjectMarks[1].MarksObtained)
	assert.Equal(t, grading.DefaultFA, first.Scale)

	// regenerating keeps the stored ID
	again, err := repo.UpsertReport(ctx, newReport("rep-2", priya.ID, 85, generated.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "rep-1", again.ID)
	assert.Equal(t, 85.0, again.Percentage)

	_, err = repo.UpsertReport(ctx, newReport("rep-3", arjun.ID, 70, generated.Add(2*time.Hour)))
	require.NoError(t, err)

	_, err = repo.GetReport(ctx, "other-school", "rep-1")
	assert.Equal(t, reportcard.ErrReportNotFound, err)

	reports, err := repo.QueryReports(ctx, reportcard.ReportFilter{SchoolID: school.ID}, nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "rep-3", reports[0].ID) // newest first

	reports, err = repo.QueryReports(ctx, reportcard.ReportFilter{SchoolID: school.ID, StudentID: priya.ID}, nil)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	reports, err = repo.QueryReports(ctx, reportcard.ReportFilter{SchoolID: school.ID},
		[]core.DBOrdering{{Field: "percentage", Ascending: true}})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "rep-3", reports[0].ID)

	rep, err := repo.GetReport(ctx, school.ID, "rep-1")
	require.NoError(t, err)
	require.NoError(t, rep.Publish(generated.Add(3*time.Hour)))
	_, err = repo.UpdateReportStatus(ctx, rep)
	require.NoError(t, err)

	published, err := repo.QueryReports(ctx, reportcard.ReportFilter{SchoolID: school.ID, Status: reportcard.StatusPublished}, nil)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.True(t, published[0].IsPublished)
	require.NotNil(t, published[0].PublishedAt)
	assert.True(t, published[0].PublishedAt.Equal(generated.Add(3*time.Hour)))

	rep.ID = "missing"
	_, err = repo.UpdateReportStatus(ctx, rep)
	assert.Equal(t, reportcard.ErrReportNotFound, err)
}
