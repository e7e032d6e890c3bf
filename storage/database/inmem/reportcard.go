package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/attendance"
	"github.com/schoolerp/erp/core/reportcard"
)

type reportcardRepository struct {
	db *reportcardTables
}

var _ reportcard.Repository = (*reportcardRepository)(nil) // interface compliance check

func NewReportcardRepository(db *DB) reportcard.Repository {
	return &reportcardRepository{db: db.reportcard}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Schools

func (repo *reportcardRepository) CreateSchool(_ context.Context, school reportcard.School) (reportcard.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.schools[school.ID] = school
	return school, nil
}

func (repo *reportcardRepository) GetSchool(_ context.Context, id string) (reportcard.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.schools[id]; ok {
		return s, nil
	}
	return reportcard.School{}, reportcard.ErrSchoolNotFound
}

func (repo *reportcardRepository) QuerySchools(_ context.Context) ([]reportcard.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schools := make([]reportcard.School, 0, len(repo.db.schools))
	for _, s := range repo.db.schools {
		schools = append(schools, s)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].Name < schools[j].Name })
	return schools, nil
}

// Students

func (repo *reportcardRepository) CreateStudent(_ context.Context, student reportcard.Student) (reportcard.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schools[student.SchoolID]; !ok {
		return reportcard.Student{}, reportcard.ErrSchoolNotFound
	}
	student.ParentEmails = copyStrings(student.ParentEmails)
	repo.db.students[student.ID] = student
	return student, nil
}

func (repo *reportcardRepository) getStudent(schoolID, id string) (reportcard.Student, error) {
	if s, ok := repo.db.students[id]; ok && s.SchoolID == schoolID {
		s.ParentEmails = copyStrings(s.ParentEmails)
		return s, nil
	}
	return reportcard.Student{}, reportcard.ErrStudentNotFound
}

func (repo *reportcardRepository) GetStudent(_ context.Context, schoolID, id string) (reportcard.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.getStudent(schoolID, id)
}

func (repo *reportcardRepository) QueryStudents(_ context.Context, schoolID string) ([]reportcard.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]reportcard.Student, 0)
	for _, s := range repo.db.students {
		if s.SchoolID == schoolID {
			s.ParentEmails = copyStrings(s.ParentEmails)
			students = append(students, s)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		if a.RollNo != b.RollNo {
			return a.RollNo < b.RollNo
		}
		return a.FullName < b.FullName
	})
	return students, nil
}

// Exam groups

func (repo *reportcardRepository) CreateExamGroup(_ context.Context, eg reportcard.ExamGroup) (reportcard.ExamGroup, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schools[eg.SchoolID]; !ok {
		return reportcard.ExamGroup{}, reportcard.ErrSchoolNotFound
	}
	repo.db.examGroups[eg.ID] = eg
	return eg, nil
}

func (repo *reportcardRepository) GetExamGroup(_ context.Context, schoolID, id string) (reportcard.ExamGroup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if eg, ok := repo.db.examGroups[id]; ok && eg.SchoolID == schoolID {
		return eg, nil
	}
	return reportcard.ExamGroup{}, reportcard.ErrExamGroupNotFound
}

func (repo *reportcardRepository) QueryExamGroups(_ context.Context, filter reportcard.ExamGroupFilter) ([]reportcard.ExamGroup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	groups := make([]reportcard.ExamGroup, 0)
	for _, eg := range repo.db.examGroups {
		if eg.SchoolID != filter.SchoolID ||
			(filter.AcademicYear != "" && eg.AcademicYear != filter.AcademicYear) ||
			(filter.AssessmentType != "" && eg.AssessmentType != filter.AssessmentType) {
			continue
		}
		groups = append(groups, eg)
	}
	sort.Slice(groups, func(i, j int) bool {
		if c := compareTimes(groups[i].StartDate, groups[j].StartDate); c != 0 {
			return c < 0
		}
		return groups[i].Name < groups[j].Name
	})
	return groups, nil
}

// Marks

func (repo *reportcardRepository) UpsertMarks(_ context.Context, marks ...reportcard.Mark) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, m := range marks {
		if m.MarksObtained != nil {
			v := *m.MarksObtained
			m.MarksObtained = &v
		}
		repo.db.marks[markKey{m.ExamGroupID, m.StudentID, m.SubjectName}] = m
	}
	return nil
}

func (repo *reportcardRepository) QueryMarks(_ context.Context, examGroupID, studentID string) ([]reportcard.Mark, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	marks := make([]reportcard.Mark, 0)
	for k, m := range repo.db.marks {
		if k.examGroupID == examGroupID && k.studentID == studentID {
			marks = append(marks, m)
		}
	}
	sort.Slice(marks, func(i, j int) bool {
		if marks[i].DisplayOrder != marks[j].DisplayOrder {
			return marks[i].DisplayOrder < marks[j].DisplayOrder
		}
		return marks[i].SubjectName < marks[j].SubjectName
	})
	return marks, nil
}

func (repo *reportcardRepository) QueryMarkedStudentIDs(_ context.Context, examGroupID string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[string]bool)
	ids := make([]string, 0)
	for k := range repo.db.marks {
		if k.examGroupID == examGroupID && !seen[k.studentID] {
			seen[k.studentID] = true
			ids = append(ids, k.studentID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Attendance

func (repo *reportcardRepository) UpsertAttendance(_ context.Context, records ...reportcard.AttendanceRecord) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range records {
		repo.db.attendance[attendanceKey{r.StudentID, r.SchoolID, r.Year, r.Month}] = r
	}
	return nil
}

func (repo *reportcardRepository) QueryAttendance(
	_ context.Context,
	schoolID, studentID string,
	months ...attendance.MonthRef,
) ([]reportcard.AttendanceRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]reportcard.AttendanceRecord, 0)
	if len(months) == 0 {
		for k, r := range repo.db.attendance {
			if k.schoolID == schoolID && k.studentID == studentID {
				records = append(records, r)
			}
		}
	} else {
		for _, m := range months {
			if r, ok := repo.db.attendance[attendanceKey{studentID, schoolID, m.Year, m.Month}]; ok {
				records = append(records, r)
			}
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Year != records[j].Year {
			return records[i].Year < records[j].Year
		}
		return records[i].Month < records[j].Month
	})
	return records, nil
}

// Grading scales

func (repo *reportcardRepository) GetGradingScale(_ context.Context, schoolID, assessmentType string) (reportcard.GradingScale, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if gs, ok := repo.db.scales[scaleKey{schoolID, assessmentType}]; ok {
		return gs, nil
	}
	return reportcard.GradingScale{}, reportcard.ErrScaleNotFound
}

func (repo *reportcardRepository) UpsertGradingScale(_ context.Context, scale reportcard.GradingScale) (reportcard.GradingScale, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	scale.Bands = append(scale.Bands[:0:0], scale.Bands...)
	repo.db.scales[scaleKey{scale.SchoolID, scale.AssessmentType}] = scale
	return scale, nil
}

// Reports

func (repo *reportcardRepository) UpsertReport(_ context.Context, rep reportcard.Report) (reportcard.Report, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := reportKey{rep.StudentID, rep.ExamGroupID, rep.AcademicYear}
	if id, ok := repo.db.reportIDs[key]; ok {
		rep.ID = id
	}
	repo.db.reportIDs[key] = rep.ID
	repo.db.reports[rep.ID] = rep
	return rep, nil
}

func (repo *reportcardRepository) GetReport(_ context.Context, schoolID, id string) (reportcard.Report, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rep, ok := repo.db.reports[id]; ok && rep.SchoolID == schoolID {
		return rep, nil
	}
	return reportcard.Report{}, reportcard.ErrReportNotFound
}

func (repo *reportcardRepository) QueryReports(
	_ context.Context,
	filter reportcard.ReportFilter,
	orderings []core.DBOrdering,
) ([]reportcard.Report, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	reports := make([]reportcard.Report, 0)
	for _, rep := range repo.db.reports {
		if rep.SchoolID != filter.SchoolID ||
			(filter.ExamGroupID != "" && rep.ExamGroupID != filter.ExamGroupID) ||
			(filter.StudentID != "" && rep.StudentID != filter.StudentID) ||
			(filter.Status != "" && rep.Status != filter.Status) {
			continue
		}
		reports = append(reports, rep)
	}
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "generated_at"}}
	}
	sort.SliceStable(reports, func(i, j int) bool { return reportLess(reports[i], reports[j], orderings) })
	return reports, nil
}

// reportLess compares by `orderings` then by ID.
func reportLess(a, b reportcard.Report, orderings []core.DBOrdering) bool {
	for _, ord := range orderings {
		var cmp int
		switch ord.Field {
		case "generated_at":
			cmp = compareTimes(a.GeneratedAt, b.GeneratedAt)
		case "percentage":
			switch {
			case a.Percentage < b.Percentage:
				cmp = -1
			case a.Percentage > b.Percentage:
				cmp = 1
			}
		case "status":
			cmp = strings.Compare(a.Status, b.Status)
		case "academic_year":
			cmp = strings.Compare(a.AcademicYear, b.AcademicYear)
		default:
			continue
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return a.ID < b.ID
}

func (repo *reportcardRepository) UpdateReportStatus(_ context.Context, rep reportcard.Report) (reportcard.Report, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.reports[rep.ID]
	if !ok || stored.SchoolID != rep.SchoolID {
		return reportcard.Report{}, reportcard.ErrReportNotFound
	}
	stored.Status = rep.Status
	stored.IsPublished = rep.IsPublished
	stored.PublishedAt = rep.PublishedAt
	stored.DistributedAt = rep.DistributedAt
	stored.UpdatedAt = rep.UpdatedAt
	repo.db.reports[rep.ID] = stored
	return stored, nil
}
