package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/attendance"
	"github.com/schoolerp/erp/core/grading"
	"github.com/schoolerp/erp/core/reportcard"
)

const (
	schoolColumns     = `id, name, logo_url, street, city, state, district, mandal, village, school_code, created_at, updated_at`
	studentColumns    = `id, school_id, full_name, admission_no, grade, section, roll_no, father_name, mother_name, parent_emails, created_at, updated_at`
	examGroupColumns  = `id, school_id, name, assessment_type, assessment_number, academic_year, start_date, end_date, is_published, created_at, updated_at`
	markColumns       = `exam_group_id, student_id, subject_name, max_marks, marks_obtained, is_absent, display_order, updated_at`
	attendanceColumns = `student_id, school_id, year, month, working_days, present_days, attendance_percentage, updated_at`
	scaleColumns      = `school_id, assessment_type, basis, max_marks, bands, updated_at`
	reportColumns     = `id, school_id, student_id, exam_group_id, academic_year, assessment_type, assessment_number,
		subject_marks, total_marks, obtained_marks, percentage, overall_grade, overall_remark, attendance, grading_scale, status,
		is_published, published_at, distributed_at, generated_by, generated_at, updated_at`
)

type (
	schoolRow struct {
		ID         string      `db:"id"`
		Name       string      `db:"name"`
		LogoURL    null.String `db:"logo_url"`
		Street     null.String `db:"street"`
		City       null.String `db:"city"`
		State      null.String `db:"state"`
		District   null.String `db:"district"`
		Mandal     null.String `db:"mandal"`
		Village    null.String `db:"village"`
		SchoolCode null.String `db:"school_code"`
		CreatedAt  time.Time   `db:"created_at"`
		UpdatedAt  time.Time   `db:"updated_at"`
	}

	studentRow struct {
		ID           string      `db:"id"`
		SchoolID     string      `db:"school_id"`
		FullName     string      `db:"full_name"`
		AdmissionNo  null.String `db:"admission_no"`
		Grade        null.String `db:"grade"`
		Section      null.String `db:"section"`
		RollNo       null.String `db:"roll_no"`
		FatherName   null.String `db:"father_name"`
		MotherName   null.String `db:"mother_name"`
		ParentEmails string      `db:"parent_emails"`
		CreatedAt    time.Time   `db:"created_at"`
		UpdatedAt    time.Time   `db:"updated_at"`
	}

	examGroupRow struct {
		ID               string    `db:"id"`
		SchoolID         string    `db:"school_id"`
		Name             string    `db:"name"`
		AssessmentType   string    `db:"assessment_type"`
		AssessmentNumber int       `db:"assessment_number"`
		AcademicYear     string    `db:"academic_year"`
		StartDate        time.Time `db:"start_date"`
		EndDate          time.Time `db:"end_date"`
		IsPublished      bool      `db:"is_published"`
		CreatedAt        time.Time `db:"created_at"`
		UpdatedAt        time.Time `db:"updated_at"`
	}

	markRow struct {
		ExamGroupID   string       `db:"exam_group_id"`
		StudentID     string       `db:"student_id"`
		SubjectName   string       `db:"subject_name"`
		MaxMarks      float64      `db:"max_marks"`
		MarksObtained null.Float64 `db:"marks_obtained"`
		IsAbsent      bool         `db:"is_absent"`
		DisplayOrder  int          `db:"display_order"`
		UpdatedAt     time.Time    `db:"updated_at"`
	}

	attendanceRow struct {
		StudentID   string    `db:"student_id"`
		SchoolID    string    `db:"school_id"`
		Year        int       `db:"year"`
		Month       int       `db:"month"`
		WorkingDays int       `db:"working_days"`
		PresentDays int       `db:"present_days"`
		Percentage  float64   `db:"attendance_percentage"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	scaleRow struct {
		SchoolID       string    `db:"school_id"`
		AssessmentType string    `db:"assessment_type"`
		Basis          string    `db:"basis"`
		MaxMarks       float64   `db:"max_marks"`
		Bands          string    `db:"bands"`
		UpdatedAt      time.Time `db:"updated_at"`
	}

	reportRow struct {
		ID               string      `db:"id"`
		SchoolID         string      `db:"school_id"`
		StudentID        string      `db:"student_id"`
		ExamGroupID      string      `db:"exam_group_id"`
		AcademicYear     string      `db:"academic_year"`
		AssessmentType   string      `db:"assessment_type"`
		AssessmentNumber int         `db:"assessment_number"`
		SubjectMarks     string      `db:"subject_marks"`
		TotalMarks       float64     `db:"total_marks"`
		ObtainedMarks    float64     `db:"obtained_marks"`
		Percentage       float64     `db:"percentage"`
		OverallGrade     string      `db:"overall_grade"`
		OverallRemark    null.String `db:"overall_remark"`
		Attendance       string      `db:"attendance"`
		GradingScale     string      `db:"grading_scale"`
		Status           string      `db:"status"`
		IsPublished      bool        `db:"is_published"`
		PublishedAt      null.Time   `db:"published_at"`
		DistributedAt    null.Time   `db:"distributed_at"`
		GeneratedBy      null.String `db:"generated_by"`
		GeneratedAt      time.Time   `db:"generated_at"`
		UpdatedAt        time.Time   `db:"updated_at"`
	}
)

func nullStr(s string) null.String {
	return null.NewString(s, s != "")
}

func nullTimePtr(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func timePtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func newSchoolRow(s reportcard.School) schoolRow {
	return schoolRow{
		ID:         s.ID,
		Name:       s.Name,
		LogoURL:    nullStr(s.LogoURL),
		Street:     nullStr(s.Address.Street),
		City:       nullStr(s.Address.City),
		State:      nullStr(s.Address.State),
		District:   nullStr(s.District),
		Mandal:     nullStr(s.Mandal),
		Village:    nullStr(s.Village),
		SchoolCode: nullStr(s.SchoolCode),
		CreatedAt:  s.CreatedAt.UTC(),
		UpdatedAt:  s.UpdatedAt.UTC(),
	}
}

func (row schoolRow) school() reportcard.School {
	return reportcard.School{
		ID:      row.ID,
		Name:    row.Name,
		LogoURL: row.LogoURL.String,
		Address: reportcard.Address{
			Street: row.Street.String,
			City:   row.City.String,
			State:  row.State.String,
		},
		District:   row.District.String,
		Mandal:     row.Mandal.String,
		Village:    row.Village.String,
		SchoolCode: row.SchoolCode.String,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

func newStudentRow(s reportcard.Student) (studentRow, error) {
	emails := s.ParentEmails
	if emails == nil {
		emails = []string{}
	}
	emailsJSON, err := toJSON(emails)
	if err != nil {
		return studentRow{}, errors.Wrap(err, "encoding parent emails")
	}
	return studentRow{
		ID:           s.ID,
		SchoolID:     s.SchoolID,
		FullName:     s.FullName,
		AdmissionNo:  nullStr(s.AdmissionNo),
		Grade:        nullStr(s.Grade),
		Section:      nullStr(s.Section),
		RollNo:       nullStr(s.RollNo),
		FatherName:   nullStr(s.FatherName),
		MotherName:   nullStr(s.MotherName),
		ParentEmails: emailsJSON,
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}, nil
}

func (row studentRow) student() (reportcard.Student, error) {
	s := reportcard.Student{
		ID:          row.ID,
		SchoolID:    row.SchoolID,
		FullName:    row.FullName,
		AdmissionNo: row.AdmissionNo.String,
		Grade:       row.Grade.String,
		Section:     row.Section.String,
		RollNo:      row.RollNo.String,
		FatherName:  row.FatherName.String,
		MotherName:  row.MotherName.String,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if err := fromJSON(row.ParentEmails, &s.ParentEmails); err != nil {
		return reportcard.Student{}, errors.Wrap(err, "decoding parent emails")
	}
	return s, nil
}

func newExamGroupRow(eg reportcard.ExamGroup) examGroupRow {
	return examGroupRow{
		ID:               eg.ID,
		SchoolID:         eg.SchoolID,
		Name:             eg.Name,
		AssessmentType:   eg.AssessmentType,
		AssessmentNumber: eg.AssessmentNumber,
		AcademicYear:     eg.AcademicYear,
		StartDate:        eg.StartDate.UTC(),
		EndDate:          eg.EndDate.UTC(),
		IsPublished:      eg.IsPublished,
		CreatedAt:        eg.CreatedAt.UTC(),
		UpdatedAt:        eg.UpdatedAt.UTC(),
	}
}

func (row examGroupRow) examGroup() reportcard.ExamGroup {
	return reportcard.ExamGroup{
		ID:               row.ID,
		SchoolID:         row.SchoolID,
		Name:             row.Name,
		AssessmentType:   row.AssessmentType,
		AssessmentNumber: row.AssessmentNumber,
		AcademicYear:     row.AcademicYear,
		StartDate:        row.StartDate.UTC(),
		EndDate:          row.EndDate.UTC(),
		IsPublished:      row.IsPublished,
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
}

func newReportRow(rep reportcard.Report) (reportRow, error) {
	subjects, err := toJSON(rep.SubjectMarks)
	if err != nil {
		return reportRow{}, errors.Wrap(err, "encoding subject marks")
	}
	att := rep.Attendance
	if att == nil {
		att = map[int]attendance.Monthly{}
	}
	attJSON, err := toJSON(att)
	if err != nil {
		return reportRow{}, errors.Wrap(err, "encoding attendance")
	}
	scaleJSON, err := toJSON(rep.Scale)
	if err != nil {
		return reportRow{}, errors.Wrap(err, "encoding grading scale")
	}
	return reportRow{
		ID:               rep.ID,
		SchoolID:         rep.SchoolID,
		StudentID:        rep.StudentID,
		ExamGroupID:      rep.ExamGroupID,
		AcademicYear:     rep.AcademicYear,
		AssessmentType:   rep.AssessmentType,
		AssessmentNumber: rep.AssessmentNumber,
		SubjectMarks:     subjects,
		TotalMarks:       rep.TotalMarks,
		ObtainedMarks:    rep.ObtainedMarks,
		Percentage:       rep.Percentage,
		OverallGrade:     rep.OverallGrade,
		OverallRemark:    nullStr(rep.OverallRemark),
		Attendance:       attJSON,
		GradingScale:     scaleJSON,
		Status:           rep.Status,
		IsPublished:      rep.IsPublished,
		PublishedAt:      nullTimePtr(rep.PublishedAt),
		DistributedAt:    nullTimePtr(rep.DistributedAt),
		GeneratedBy:      nullStr(rep.GeneratedBy),
		GeneratedAt:      rep.GeneratedAt.UTC(),
		UpdatedAt:        rep.UpdatedAt.UTC(),
	}, nil
}

func (row reportRow) report() (reportcard.Report, error) {
	rep := reportcard.Report{
		ID:               row.ID,
		SchoolID:         row.SchoolID,
		StudentID:        row.StudentID,
		ExamGroupID:      row.ExamGroupID,
		AcademicYear:     row.AcademicYear,
		AssessmentType:   row.AssessmentType,
		AssessmentNumber: row.AssessmentNumber,
		TotalMarks:       row.TotalMarks,
		ObtainedMarks:    row.ObtainedMarks,
		Percentage:       row.Percentage,
		OverallGrade:     row.OverallGrade,
		OverallRemark:    row.OverallRemark.String,
		Status:           row.Status,
		IsPublished:      row.IsPublished,
		PublishedAt:      timePtr(row.PublishedAt),
		DistributedAt:    timePtr(row.DistributedAt),
		GeneratedBy:      row.GeneratedBy.String,
		GeneratedAt:      row.GeneratedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
	if err := fromJSON(row.SubjectMarks, &rep.SubjectMarks); err != nil {
		return reportcard.Report{}, errors.Wrap(err, "decoding subject marks")
	}
	if err := fromJSON(row.Attendance, &rep.Attendance); err != nil {
		return reportcard.Report{}, errors.Wrap(err, "decoding attendance")
	}
	if err := fromJSON(row.GradingScale, &rep.Scale); err != nil {
		return reportcard.Report{}, errors.Wrap(err, "decoding grading scale")
	}
	return rep, nil
}

type reportcardRepository struct {
	exec sqlx.ExtContext
}

var _ reportcard.Repository = (*reportcardRepository)(nil) // interface compliance check

// NewReportcardRepository returns a reportcard.Repository running its queries on `exec`.
func NewReportcardRepository(exec sqlx.ExtContext) reportcard.Repository {
	return &reportcardRepository{exec: exec}
}

// get scans one row into `dest`, returning `notFound` when there is none.
func (repo *reportcardRepository) get(ctx context.Context, dest interface{}, notFound error, q string, args ...interface{}) error {
	if err := sqlx.GetContext(ctx, repo.exec, dest, repo.exec.Rebind(q), args...); err != nil {
		return trapNoRowsErr(err, notFound, "querying "+strings.TrimSuffix(notFound.Error(), " not found"))
	}
	return nil
}

func (repo *reportcardRepository) selectAll(ctx context.Context, dest interface{}, q string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, repo.exec, dest, repo.exec.Rebind(q), args...)
}

// Schools

func (repo *reportcardRepository) CreateSchool(ctx context.Context, school reportcard.School) (reportcard.School, error) {
	q := "INSERT INTO schools (" + schoolColumns + ") VALUES " +
		"(:id, :name, :logo_url, :street, :city, :state, :district, :mandal, :village, :school_code, :created_at, :updated_at)"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, newSchoolRow(school)); err != nil {
		return reportcard.School{}, errors.Wrap(err, "inserting school")
	}
	return school, nil
}

func (repo *reportcardRepository) GetSchool(ctx context.Context, id string) (reportcard.School, error) {
	var row schoolRow
	if err := repo.get(ctx, &row, reportcard.ErrSchoolNotFound, "SELECT "+schoolColumns+" FROM schools WHERE id = ?", id); err != nil {
		return reportcard.School{}, err
	}
	return row.school(), nil
}

func (repo *reportcardRepository) QuerySchools(ctx context.Context) ([]reportcard.School, error) {
	var rows []schoolRow
	if err := repo.selectAll(ctx, &rows, "SELECT "+schoolColumns+" FROM schools ORDER BY name ASC"); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	schools := make([]reportcard.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, row.school())
	}
	return schools, nil
}

// Students

func (repo *reportcardRepository) CreateStudent(ctx context.Context, student reportcard.Student) (reportcard.Student, error) {
	row, err := newStudentRow(student)
	if err != nil {
		return reportcard.Student{}, err
	}
	q := "INSERT INTO students (" + studentColumns + ") VALUES " +
		"(:id, :school_id, :full_name, :admission_no, :grade, :section, :roll_no, :father_name, :mother_name, :parent_emails, :created_at, :updated_at)"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return reportcard.Student{}, errors.Wrap(err, "inserting student")
	}
	return student, nil
}

func (repo *reportcardRepository) GetStudent(ctx context.Context, schoolID, id string) (reportcard.Student, error) {
	var row studentRow
	q := "SELECT " + studentColumns + " FROM students WHERE school_id = ? AND id = ?"
	if err := repo.get(ctx, &row, reportcard.ErrStudentNotFound, q, schoolID, id); err != nil {
		return reportcard.Student{}, err
	}
	return row.student()
}

func (repo *reportcardRepository) QueryStudents(ctx context.Context, schoolID string) ([]reportcard.Student, error) {
	var rows []studentRow
	q := "SELECT " + studentColumns + " FROM students WHERE school_id = ? ORDER BY grade, section, roll_no, full_name"
	if err := repo.selectAll(ctx, &rows, q, schoolID); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]reportcard.Student, 0, len(rows))
	for _, row := range rows {
		s, err := row.student()
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, nil
}

// Exam groups

func (repo *reportcardRepository) CreateExamGroup(ctx context.Context, eg reportcard.ExamGroup) (reportcard.ExamGroup, error) {
	q := "INSERT INTO exam_groups (" + examGroupColumns + ") VALUES " +
		"(:id, :school_id, :name, :assessment_type, :assessment_number, :academic_year, :start_date, :end_date, :is_published, :created_at, :updated_at)"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, newExamGroupRow(eg)); err != nil {
		return reportcard.ExamGroup{}, errors.Wrap(err, "inserting exam group")
	}
	return eg, nil
}

func (repo *reportcardRepository) GetExamGroup(ctx context.Context, schoolID, id string) (reportcard.ExamGroup, error) {
	var row examGroupRow
	q := "SELECT " + examGroupColumns + " FROM exam_groups WHERE school_id = ? AND id = ?"
	if err := repo.get(ctx, &row, reportcard.ErrExamGroupNotFound, q, schoolID, id); err != nil {
		return reportcard.ExamGroup{}, err
	}
	return row.examGroup(), nil
}

func (repo *reportcardRepository) QueryExamGroups(ctx context.Context, filter reportcard.ExamGroupFilter) ([]reportcard.ExamGroup, error) {
	conds := []string{"school_id = ?"}
	args := []interface{}{filter.SchoolID}
	if filter.AcademicYear != "" {
		conds = append(conds, "academic_year = ?")
		args = append(args, filter.AcademicYear)
	}
	if filter.AssessmentType != "" {
		conds = append(conds, "assessment_type = ?")
		args = append(args, filter.AssessmentType)
	}

	var rows []examGroupRow
	q := "SELECT " + examGroupColumns + " FROM exam_groups" + where(conds) + " ORDER BY start_date ASC, name ASC"
	if err := repo.selectAll(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying exam groups")
	}
	groups := make([]reportcard.ExamGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, row.examGroup())
	}
	return groups, nil
}

// Marks

func (repo *reportcardRepository) UpsertMarks(ctx context.Context, marks ...reportcard.Mark) error {
	q := "INSERT INTO marks (" + markColumns + ") VALUES " +
		"(:exam_group_id, :student_id, :subject_name, :max_marks, :marks_obtained, :is_absent, :display_order, :updated_at) " +
		"ON CONFLICT (exam_group_id, student_id, subject_name) DO UPDATE SET " +
		"max_marks = excluded.max_marks, marks_obtained = excluded.marks_obtained, is_absent = excluded.is_absent, " +
		"display_order = excluded.display_order, updated_at = excluded.updated_at"
	for _, m := range marks {
		row := markRow{
			ExamGroupID:   m.ExamGroupID,
			StudentID:     m.StudentID,
			SubjectName:   m.SubjectName,
			MaxMarks:      m.MaxMarks,
			MarksObtained: null.Float64FromPtr(m.MarksObtained),
			IsAbsent:      m.IsAbsent,
			DisplayOrder:  m.DisplayOrder,
			UpdatedAt:     m.UpdatedAt.UTC(),
		}
		if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
			return errors.Wrapf(err, "upserting %s mark of student %s", m.SubjectName, m.StudentID)
		}
	}
	return nil
}

func (repo *reportcardRepository) QueryMarks(ctx context.Context, examGroupID, studentID string) ([]reportcard.Mark, error) {
	var rows []markRow
	q := "SELECT " + markColumns + " FROM marks WHERE exam_group_id = ? AND student_id = ? ORDER BY display_order ASC, subject_name ASC"
	if err := repo.selectAll(ctx, &rows, q, examGroupID, studentID); err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	marks := make([]reportcard.Mark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, reportcard.Mark{
			ExamGroupID:   row.ExamGroupID,
			StudentID:     row.StudentID,
			SubjectName:   row.SubjectName,
			MaxMarks:      row.MaxMarks,
			MarksObtained: row.MarksObtained.Ptr(),
			IsAbsent:      row.IsAbsent,
			DisplayOrder:  row.DisplayOrder,
			UpdatedAt:     row.UpdatedAt.UTC(),
		})
	}
	return marks, nil
}

func (repo *reportcardRepository) QueryMarkedStudentIDs(ctx context.Context, examGroupID string) ([]string, error) {
	var ids []string
	q := "SELECT DISTINCT student_id FROM marks WHERE exam_group_id = ? ORDER BY student_id"
	if err := repo.selectAll(ctx, &ids, q, examGroupID); err != nil {
		return nil, errors.Wrap(err, "querying marked students")
	}
	return ids, nil
}

// Attendance

func (repo *reportcardRepository) UpsertAttendance(ctx context.Context, records ...reportcard.AttendanceRecord) error {
	q := "INSERT INTO monthly_attendance (" + attendanceColumns + ") VALUES " +
		"(:student_id, :school_id, :year, :month, :working_days, :present_days, :attendance_percentage, :updated_at) " +
		"ON CONFLICT (student_id, school_id, year, month) DO UPDATE SET " +
		"working_days = excluded.working_days, present_days = excluded.present_days, " +
		"attendance_percentage = excluded.attendance_percentage, updated_at = excluded.updated_at"
	for _, r := range records {
		row := attendanceRow{
			StudentID:   r.StudentID,
			SchoolID:    r.SchoolID,
			Year:        r.Year,
			Month:       r.Month,
			WorkingDays: r.WorkingDays,
			PresentDays: r.PresentDays,
			Percentage:  r.Percentage,
			UpdatedAt:   r.UpdatedAt.UTC(),
		}
		if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
			return errors.Wrapf(err, "upserting attendance of student %s for %d-%02d", r.StudentID, r.Year, r.Month)
		}
	}
	return nil
}

// QueryAttendance returns the records of `months` (every month when empty) ordered by year and month.
func (repo *reportcardRepository) QueryAttendance(
	ctx context.Context,
	schoolID, studentID string,
	months ...attendance.MonthRef,
) ([]reportcard.AttendanceRecord, error) {
	conds := []string{"school_id = ?", "student_id = ?"}
	args := []interface{}{schoolID, studentID}
	if len(months) > 0 {
		monthConds := make([]string, 0, len(months))
		for _, m := range months {
			monthConds = append(monthConds, "(year = ? AND month = ?)")
			args = append(args, m.Year, m.Month)
		}
		conds = append(conds, "("+strings.Join(monthConds, " OR ")+")")
	}

	var rows []attendanceRow
	q := "SELECT " + attendanceColumns + " FROM monthly_attendance" + where(conds) + " ORDER BY year ASC, month ASC"
	if err := repo.selectAll(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]reportcard.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, reportcard.AttendanceRecord{
			StudentID: row.StudentID,
			SchoolID:  row.SchoolID,
			Year:      row.Year,
			Month:     row.Month,
			Monthly: attendance.Monthly{
				WorkingDays: row.WorkingDays,
				PresentDays: row.PresentDays,
				Percentage:  row.Percentage,
			},
			UpdatedAt: row.UpdatedAt.UTC(),
		})
	}
	return records, nil
}

// Grading scales

func (repo *reportcardRepository) GetGradingScale(ctx context.Context, schoolID, assessmentType string) (reportcard.GradingScale, error) {
	var row scaleRow
	q := "SELECT " + scaleColumns + " FROM grading_scales WHERE school_id = ? AND assessment_type = ?"
	if err := repo.get(ctx, &row, reportcard.ErrScaleNotFound, q, schoolID, assessmentType); err != nil {
		return reportcard.GradingScale{}, err
	}
	gs := reportcard.GradingScale{
		SchoolID: row.SchoolID,
		Scale: grading.Scale{
			AssessmentType: row.AssessmentType,
			Basis:          grading.Basis(row.Basis),
			MaxMarks:       row.MaxMarks,
		},
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if err := fromJSON(row.Bands, &gs.Bands); err != nil {
		return reportcard.GradingScale{}, errors.Wrap(err, "decoding grade bands")
	}
	return gs, nil
}

func (repo *reportcardRepository) UpsertGradingScale(ctx context.Context, scale reportcard.GradingScale) (reportcard.GradingScale, error) {
	bands, err := toJSON(scale.Bands)
	if err != nil {
		return reportcard.GradingScale{}, errors.Wrap(err, "encoding grade bands")
	}
	row := scaleRow{
		SchoolID:       scale.SchoolID,
		AssessmentType: scale.AssessmentType,
		Basis:          string(scale.Basis),
		MaxMarks:       scale.MaxMarks,
		Bands:          bands,
		UpdatedAt:      scale.UpdatedAt.UTC(),
	}
	q := "INSERT INTO grading_scales (" + scaleColumns + ") VALUES " +
		"(:school_id, :assessment_type, :basis, :max_marks, :bands, :updated_at) " +
		"ON CONFLICT (school_id, assessment_type) DO UPDATE SET " +
		"basis = excluded.basis, max_marks = excluded.max_marks, bands = excluded.bands, updated_at = excluded.updated_at"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return reportcard.GradingScale{}, errors.Wrap(err, "upserting grading scale")
	}
	return scale, nil
}

// Reports

func (repo *reportcardRepository) UpsertReport(ctx context.Context, rep reportcard.Report) (reportcard.Report, error) {
	row, err := newReportRow(rep)
	if err != nil {
		return reportcard.Report{}, err
	}
	q := "INSERT INTO reports (" + reportColumns + ") VALUES " +
		"(:id, :school_id, :student_id, :exam_group_id, :academic_year, :assessment_type, :assessment_number, " +
		":subject_marks, :total_marks, :obtained_marks, :percentage, :overall_grade, :overall_remark, :attendance, :grading_scale, :status, " +
		":is_published, :published_at, :distributed_at, :generated_by, :generated_at, :updated_at) " +
		"ON CONFLICT (student_id, exam_group_id, academic_year) DO UPDATE SET " +
		"assessment_type = excluded.assessment_type, assessment_number = excluded.assessment_number, " +
		"subject_marks = excluded.subject_marks, total_marks = excluded.total_marks, obtained_marks = excluded.obtained_marks, " +
		"percentage = excluded.percentage, overall_grade = excluded.overall_grade, overall_remark = excluded.overall_remark, " +
		"attendance = excluded.attendance, grading_scale = excluded.grading_scale, status = excluded.status, is_published = excluded.is_published, " +
		"published_at = excluded.published_at, distributed_at = excluded.distributed_at, " +
		"generated_by = excluded.generated_by, generated_at = excluded.generated_at, updated_at = excluded.updated_at"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return reportcard.Report{}, errors.Wrap(err, "upserting report")
	}

	// the conflicting row keeps its ID
	var saved reportRow
	sel := "SELECT " + reportColumns + " FROM reports WHERE student_id = ? AND exam_group_id = ? AND academic_year = ?"
	if err := repo.get(ctx, &saved, reportcard.ErrReportNotFound, sel, rep.StudentID, rep.ExamGroupID, rep.AcademicYear); err != nil {
		return reportcard.Report{}, err
	}
	return saved.report()
}

func (repo *reportcardRepository) GetReport(ctx context.Context, schoolID, id string) (reportcard.Report, error) {
	var row reportRow
	q := "SELECT " + reportColumns + " FROM reports WHERE school_id = ? AND id = ?"
	if err := repo.get(ctx, &row, reportcard.ErrReportNotFound, q, schoolID, id); err != nil {
		return reportcard.Report{}, err
	}
	return row.report()
}

func (repo *reportcardRepository) QueryReports(
	ctx context.Context,
	filter reportcard.ReportFilter,
	orderings []core.DBOrdering,
) ([]reportcard.Report, error) {
	conds := []string{"school_id = ?"}
	args := []interface{}{filter.SchoolID}
	if filter.ExamGroupID != "" {
		conds = append(conds, "exam_group_id = ?")
		args = append(args, filter.ExamGroupID)
	}
	if filter.StudentID != "" {
		conds = append(conds, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}

	orderBy := core.OrderBy(orderings, "generated_at DESC, id ASC", "generated_at", "percentage", "status", "academic_year")
	q := fmt.Sprintf("SELECT %s FROM reports%s ORDER BY %s", reportColumns, where(conds), orderBy)

	var rows []reportRow
	if err := repo.selectAll(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying reports")
	}
	reports := make([]reportcard.Report, 0, len(rows))
	for _, row := range rows {
		rep, err := row.report()
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (repo *reportcardRepository) UpdateReportStatus(ctx context.Context, rep reportcard.Report) (reportcard.Report, error) {
	row, err := newReportRow(rep)
	if err != nil {
		return reportcard.Report{}, err
	}
	q := `UPDATE reports SET status = :status, is_published = :is_published, published_at = :published_at,
		distributed_at = :distributed_at, updated_at = :updated_at WHERE school_id = :school_id AND id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, row)
	if err != nil {
		return reportcard.Report{}, errors.Wrap(err, "updating report status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return reportcard.Report{}, reportcard.ErrReportNotFound
	}
	return rep, nil
}
