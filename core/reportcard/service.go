// Package reportcard builds, stores, renders and distributes State Board report cards.
package reportcard

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/attendance"
	"github.com/schoolerp/erp/core/grading"
)

var (
	// errors
	ErrSchoolNotFound    = errors.New("school not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrExamGroupNotFound = errors.New("exam group not found")
	ErrReportNotFound    = errors.New("report not found")
	ErrScaleNotFound     = errors.New("grading scale not found")
	ErrNoMarks           = errors.New("no marks recorded for this student")
	ErrNotGenerated      = errors.New("only generated reports can be published")
	ErrNotPublished      = errors.New("only published reports can be distributed")
	ErrNoParentEmail     = errors.New("the student has no parent email")
)

// IsNotFound reports whether the cause of `err` is one of the "not found" errors.
func IsNotFound(err error) bool {
	switch errors.Cause(err) {
	case ErrSchoolNotFound, ErrStudentNotFound, ErrExamGroupNotFound, ErrReportNotFound, ErrScaleNotFound:
		return true
	}
	return false
}

type (
	Repository interface {
		CreateSchool(ctx context.Context, school School) (School, error)
		GetSchool(ctx context.Context, id string) (School, error)
		QuerySchools(ctx context.Context) ([]School, error)

		CreateStudent(ctx context.Context, student Student) (Student, error)
		GetStudent(ctx context.Context, schoolID, id string) (Student, error)
		QueryStudents(ctx context.Context, schoolID string) ([]Student, error)

		CreateExamGroup(ctx context.Context, eg ExamGroup) (ExamGroup, error)
		GetExamGroup(ctx context.Context, schoolID, id string) (ExamGroup, error)
		QueryExamGroups(ctx context.Context, filter ExamGroupFilter) ([]ExamGroup, error)

		// UpsertMarks inserts or replaces marks on (exam_group_id, student_id, subject_name).
		UpsertMarks(ctx context.Context, marks ...Mark) error
		// QueryMarks returns marks ordered by display order then subject name.
		QueryMarks(ctx context.Context, examGroupID, studentID string) ([]Mark, error)
		QueryMarkedStudentIDs(ctx context.Context, examGroupID string) ([]string, error)

		// UpsertAttendance inserts or replaces records on (student_id, school_id, year, month).
		UpsertAttendance(ctx context.Context, records ...AttendanceRecord) error
		QueryAttendance(ctx context.Context, schoolID, studentID string, months ...attendance.MonthRef) ([]AttendanceRecord, error)

		GetGradingScale(ctx context.Context, schoolID, assessmentType string) (GradingScale, error)
		UpsertGradingScale(ctx context.Context, scale GradingScale) (GradingScale, error)

		// UpsertReport inserts or replaces a report on (student_id, exam_group_id, academic_year).
		// The ID of an existing report is kept.
		UpsertReport(ctx context.Context, rep Report) (Report, error)
		GetReport(ctx context.Context, schoolID, id string) (Report, error)
		QueryReports(ctx context.Context, filter ReportFilter, orderings []core.DBOrdering) ([]Report, error)
		UpdateReportStatus(ctx context.Context, rep Report) (Report, error)
	}

	ServiceInterface interface {
		Render(in Input) (Rendered, error)

		CreateSchool(ctx context.Context, ns NewSchool) (School, error)
		GetSchool(ctx context.Context, id string) (School, error)
		QuerySchools(ctx context.Context) ([]School, error)

		CreateStudent(ctx context.Context, sess core.Session, ns NewStudent) (Student, error)
		GetStudent(ctx context.Context, sess core.Session, id string) (Student, error)
		QueryStudents(ctx context.Context, sess core.Session) ([]Student, error)

		CreateExamGroup(ctx context.Context, sess core.Session, ne NewExamGroup) (ExamGroup, error)
		GetExamGroup(ctx context.Context, sess core.Session, id string) (ExamGroup, error)
		QueryExamGroups(ctx context.Context, sess core.Session, filter ExamGroupFilter) ([]ExamGroup, error)
		SaveMarks(ctx context.Context, sess core.Session, examGroupID string, entries []MarkEntry) ([]Mark, error)

		SaveMonthlyAttendance(ctx context.Context, sess core.Session, entries []AttendanceEntry) ([]AttendanceRecord, error)
		SaveDailyAttendance(ctx context.Context, sess core.Session, studentID string, req DailyAttendanceRequest) (AttendanceRecord, error)

		GetGradingScale(ctx context.Context, sess core.Session, assessmentType string) (grading.Scale, error)
		SaveGradingScale(ctx context.Context, sess core.Session, scale grading.Scale) (grading.Scale, error)

		Generate(ctx context.Context, sess core.Session, examGroupID string, studentIDs ...string) ([]Report, error)
		GetReport(ctx context.Context, sess core.Session, id string) (Report, error)
		QueryReports(ctx context.Context, sess core.Session, filter ReportFilter, orderings []core.DBOrdering) ([]Report, error)
		Publish(ctx context.Context, sess core.Session, id string) (Report, error)
		Distribute(ctx context.Context, sess core.Session, id string) (Report, error)
		Document(ctx context.Context, sess core.Session, id string) (Rendered, error)
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config
		nowFunc func() time.Time
	}

	// Rendered is a rendered report card.
	Rendered struct {
		Document Document
		HTML     []byte
		Filename string
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) ServiceInterface {
	return newService(repo, mailSvc, logger, conf)
}

func newService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
		nowFunc: time.Now,
	}
}

func (svc *service) now() time.Time {
	return svc.nowFunc().UTC()
}

// Render runs the stateless pipeline on `in`.
func (svc *service) Render(in Input) (Rendered, error) {
	doc := NewDocument(in, svc.now().In(svc.conf.Location()))
	for _, w := range doc.Warnings {
		svc.logger.Warn(w, map[string]interface{}{"student": doc.Student.Name, "exam": doc.Exam.Code()})
	}
	html, err := Render(doc)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Document: doc, HTML: html, Filename: Filename(doc)}, nil
}

// Schools

func (svc *service) CreateSchool(ctx context.Context, ns NewSchool) (School, error) {
	now := svc.now()
	return svc.repo.CreateSchool(ctx, School{
		ID:         uuid.NewString(),
		Name:       ns.Name,
		LogoURL:    ns.LogoURL,
		Address:    ns.Address,
		District:   ns.District,
		Mandal:     ns.Mandal,
		Village:    ns.Village,
		SchoolCode: ns.SchoolCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *service) GetSchool(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchool(ctx, id)
}

func (svc *service) QuerySchools(ctx context.Context) ([]School, error) {
	return svc.repo.QuerySchools(ctx)
}

// Students

func (svc *service) CreateStudent(ctx context.Context, sess core.Session, ns NewStudent) (Student, error) {
	now := svc.now()
	return svc.repo.CreateStudent(ctx, Student{
		ID:           uuid.NewString(),
		SchoolID:     sess.SchoolID,
		FullName:     ns.FullName,
		AdmissionNo:  ns.AdmissionNo,
		Grade:        ns.Grade,
		Section:      ns.Section,
		RollNo:       ns.RollNo,
		FatherName:   ns.FatherName,
		MotherName:   ns.MotherName,
		ParentEmails: ns.ParentEmails,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *service) GetStudent(ctx context.Context, sess core.Session, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, sess.SchoolID, id)
}

func (svc *service) QueryStudents(ctx context.Context, sess core.Session) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, sess.SchoolID)
}

// Exam groups & marks

func (svc *service) CreateExamGroup(ctx context.Context, sess core.Session, ne NewExamGroup) (ExamGroup, error) {
	now := svc.now()
	return svc.repo.CreateExamGroup(ctx, ExamGroup{
		ID:               uuid.NewString(),
		SchoolID:         sess.SchoolID,
		Name:             ne.Name,
		AssessmentType:   strings.ToUpper(ne.AssessmentType),
		AssessmentNumber: ne.AssessmentNumber,
		AcademicYear:     ne.AcademicYear,
		StartDate:        ne.StartDate.UTC(),
		EndDate:          ne.EndDate.UTC(),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}

func (svc *service) GetExamGroup(ctx context.Context, sess core.Session, id string) (ExamGroup, error) {
	return svc.repo.GetExamGroup(ctx, sess.SchoolID, id)
}

func (svc *service) QueryExamGroups(ctx context.Context, sess core.Session, filter ExamGroupFilter) ([]ExamGroup, error) {
	filter.SchoolID = sess.SchoolID
	filter.AssessmentType = strings.ToUpper(filter.AssessmentType)
	return svc.repo.QueryExamGroups(ctx, filter)
}

// SaveMarks upserts `entries` for the exam group. Marks must lie within [0, max_marks] unless absent.
func (svc *service) SaveMarks(ctx context.Context, sess core.Session, examGroupID string, entries []MarkEntry) ([]Mark, error) {
	if _, err := svc.repo.GetExamGroup(ctx, sess.SchoolID, examGroupID); err != nil {
		return nil, errors.Wrap(err, "getting exam group")
	}

	now := svc.now()
	checked := make(map[string]bool)
	marks := make([]Mark, 0, len(entries))
	for i, e := range entries {
		if !e.IsAbsent {
			if e.MarksObtained == nil {
				return nil, markError(i, "marks are required unless the student is absent")
			}
			if *e.MarksObtained < 0 || *e.MarksObtained > e.MaxMarks {
				return nil, markError(i, "marks must be between 0 and max_marks")
			}
		}
		if !checked[e.StudentID] {
			if _, err := svc.repo.GetStudent(ctx, sess.SchoolID, e.StudentID); err != nil {
				return nil, errors.Wrapf(err, "getting student %s", e.StudentID)
			}
			checked[e.StudentID] = true
		}

		m := Mark{
			ExamGroupID:   examGroupID,
			StudentID:     e.StudentID,
			SubjectName:   e.SubjectName,
			MaxMarks:      e.MaxMarks,
			MarksObtained: e.MarksObtained,
			IsAbsent:      e.IsAbsent,
			DisplayOrder:  e.DisplayOrder,
			UpdatedAt:     now,
		}
		if m.IsAbsent {
			m.MarksObtained = nil
		}
		marks = append(marks, m)
	}

	if err := svc.repo.UpsertMarks(ctx, marks...); err != nil {
		return nil, errors.Wrap(err, "saving marks")
	}
	return marks, nil
}

func markError(idx int, msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: "marks[" + strconv.Itoa(idx) + "]", Error: msg})
}

// Attendance

func attendanceError(idx int, msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: "records[" + strconv.Itoa(idx) + "]", Error: msg})
}

// SaveMonthlyAttendance upserts monthly records. Months lie in 1-12 and present days never exceed working days.
func (svc *service) SaveMonthlyAttendance(ctx context.Context, sess core.Session, entries []AttendanceEntry) ([]AttendanceRecord, error) {
	now := svc.now()
	checked := make(map[string]bool)
	records := make([]AttendanceRecord, 0, len(entries))
	for i, e := range entries {
		switch {
		case e.Month < 1 || e.Month > 12:
			return nil, attendanceError(i, "month must be between 1 and 12")
		case e.WorkingDays < 0 || e.PresentDays < 0:
			return nil, attendanceError(i, "days cannot be negative")
		case e.PresentDays > e.WorkingDays:
			return nil, attendanceError(i, "present days cannot exceed working days")
		}
		if !checked[e.StudentID] {
			if _, err := svc.repo.GetStudent(ctx, sess.SchoolID, e.StudentID); err != nil {
				return nil, errors.Wrapf(err, "getting student %s", e.StudentID)
			}
			checked[e.StudentID] = true
		}
		records = append(records, AttendanceRecord{
			StudentID: e.StudentID,
			SchoolID:  sess.SchoolID,
			Year:      e.Year,
			Month:     e.Month,
			Monthly:   attendance.NewMonthly(e.WorkingDays, e.PresentDays),
			UpdatedAt: now,
		})
	}
	if err := svc.repo.UpsertAttendance(ctx, records...); err != nil {
		return nil, errors.Wrap(err, "saving attendance")
	}
	return records, nil
}

// SaveDailyAttendance rolls the daily statuses of one month up and stores them as that month's record.
func (svc *service) SaveDailyAttendance(ctx context.Context, sess core.Session, studentID string, req DailyAttendanceRequest) (AttendanceRecord, error) {
	if _, err := svc.repo.GetStudent(ctx, sess.SchoolID, studentID); err != nil {
		return AttendanceRecord{}, errors.Wrap(err, "getting student")
	}
	ref := attendance.MonthRef{Year: req.Year, Month: req.Month}
	monthly, err := attendance.FromDaily(ref, req.Days)
	if err != nil {
		return AttendanceRecord{}, core.NewValidationError(err, core.FieldError{Field: "days", Error: err.Error()})
	}

	rec := AttendanceRecord{
		StudentID: studentID,
		SchoolID:  sess.SchoolID,
		Year:      req.Year,
		Month:     req.Month,
		Monthly:   monthly,
		UpdatedAt: svc.now(),
	}
	if err := svc.repo.UpsertAttendance(ctx, rec); err != nil {
		return AttendanceRecord{}, errors.Wrap(err, "saving attendance")
	}
	return rec, nil
}

// Grading scales

// GetGradingScale returns the school's scale for `assessmentType`, or the State Board default.
func (svc *service) GetGradingScale(ctx context.Context, sess core.Session, assessmentType string) (grading.Scale, error) {
	assessmentType = strings.ToUpper(assessmentType)
	gs, err := svc.repo.GetGradingScale(ctx, sess.SchoolID, assessmentType)
	if err == nil {
		return gs.Scale, nil
	}
	if errors.Cause(err) != ErrScaleNotFound {
		return grading.Scale{}, errors.Wrap(err, "getting grading scale")
	}
	if s, ok := grading.DefaultScale(assessmentType); ok {
		return s, nil
	}
	return grading.Scale{}, ErrScaleNotFound
}

func (svc *service) SaveGradingScale(ctx context.Context, sess core.Session, scale grading.Scale) (grading.Scale, error) {
	scale.AssessmentType = strings.ToUpper(scale.AssessmentType)
	gs, err := svc.repo.UpsertGradingScale(ctx, GradingScale{
		SchoolID:  sess.SchoolID,
		Scale:     scale,
		UpdatedAt: svc.now(),
	})
	if err != nil {
		return grading.Scale{}, errors.Wrap(err, "saving grading scale")
	}
	return gs.Scale, nil
}

// Reports

// Generate grades the marks of `studentIDs` (every student with marks by default) and
// stores one report per student with status generated.
func (svc *service) Generate(ctx context.Context, sess core.Session, examGroupID string, studentIDs ...string) ([]Report, error) {
	eg, err := svc.repo.GetExamGroup(ctx, sess.SchoolID, examGroupID)
	if err != nil {
		return nil, errors.Wrap(err, "getting exam group")
	}
	scale, err := svc.GetGradingScale(ctx, sess, eg.AssessmentType)
	if err != nil {
		return nil, errors.Wrap(err, "getting grading scale")
	}
	if len(studentIDs) == 0 {
		if studentIDs, err = svc.repo.QueryMarkedStudentIDs(ctx, eg.ID); err != nil {
			return nil, errors.Wrap(err, "querying marked students")
		}
	}
	studentIDs = sortedIDs(studentIDs)
	window := attendance.Window(eg.EndDate, svc.conf.Reports.AttendanceMonths)

	reports := make([]Report, 0, len(studentIDs))
	for _, sid := range studentIDs {
		rep, err := svc.generateOne(ctx, sess, eg, scale, sid, window)
		if err != nil {
			return nil, errors.Wrapf(err, "generating report of student %s", sid)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (svc *service) generateOne(
	ctx context.Context,
	sess core.Session,
	eg ExamGroup,
	scale grading.Scale,
	studentID string,
	window []attendance.MonthRef,
) (Report, error) {
	if _, err := svc.repo.GetStudent(ctx, sess.SchoolID, studentID); err != nil {
		return Report{}, errors.Wrap(err, "getting student")
	}
	marks, err := svc.repo.QueryMarks(ctx, eg.ID, studentID)
	if err != nil {
		return Report{}, errors.Wrap(err, "loading marks")
	}
	if len(marks) == 0 {
		return Report{}, core.NewValidationError(ErrNoMarks, core.FieldError{Field: "student_ids", Error: ErrNoMarks.Error()})
	}

	results := make([]SubjectResult, 0, len(marks))
	subjects := make([]grading.Subject, 0, len(marks))
	for _, m := range marks {
		obtained := markValue(m.MarksObtained)
		res := grading.Grade(grading.Score(scale.Basis, obtained, m.MaxMarks), m.IsAbsent, scale.Bands)
		if !res.Matched {
			svc.logger.Warn("no grade band for subject score", map[string]interface{}{
				"student": studentID, "subject": m.SubjectName, "score": res.Score,
			})
		}
		sr := SubjectResult{
			SubjectName:   m.SubjectName,
			MaxMarks:      m.MaxMarks,
			MarksObtained: m.MarksObtained,
			IsAbsent:      m.IsAbsent,
			Grade:         res.Grade,
			Remark:        res.Remark,
		}
		if !m.IsAbsent {
			sr.Percentage = grading.Round1(grading.Percentage(obtained, m.MaxMarks))
		}
		results = append(results, sr)
		subjects = append(subjects, grading.Subject{MaxMarks: m.MaxMarks, MarksObtained: obtained, IsAbsent: m.IsAbsent})
	}
	sum := grading.Overall(subjects, scale)

	records, err := svc.repo.QueryAttendance(ctx, sess.SchoolID, studentID, window...)
	if err != nil {
		return Report{}, errors.Wrap(err, "loading attendance")
	}
	att := make(map[int]attendance.Monthly, len(records))
	for _, r := range records {
		att[r.Month] = r.Monthly
	}

	now := svc.now()
	rep := Report{
		ID:               uuid.NewString(),
		SchoolID:         sess.SchoolID,
		StudentID:        studentID,
		ExamGroupID:      eg.ID,
		AcademicYear:     eg.AcademicYear,
		AssessmentType:   eg.AssessmentType,
		AssessmentNumber: eg.AssessmentNumber,
		SubjectMarks:     results,
		TotalMarks:       sum.TotalMarks,
		ObtainedMarks:    sum.ObtainedMarks,
		Percentage:       grading.Round1(sum.Percentage),
		OverallGrade:     sum.Grade,
		OverallRemark:    sum.Remark,
		Attendance:       att,
		Scale:            scale,
		Status:           StatusGenerated,
		GeneratedBy:      sess.UserID,
		GeneratedAt:      now,
		UpdatedAt:        now,
	}
	if rep.OverallGrade == "" {
		rep.OverallGrade = core.NotAvailable
	}
	rep, err = svc.repo.UpsertReport(ctx, rep)
	return rep, errors.Wrap(err, "saving report")
}

func (svc *service) GetReport(ctx context.Context, sess core.Session, id string) (Report, error) {
	return svc.repo.GetReport(ctx, sess.SchoolID, id)
}

func (svc *service) QueryReports(ctx context.Context, sess core.Session, filter ReportFilter, orderings []core.DBOrdering) ([]Report, error) {
	filter.SchoolID = sess.SchoolID
	return svc.repo.QueryReports(ctx, filter, orderings)
}

func (svc *service) Publish(ctx context.Context, sess core.Session, id string) (Report, error) {
	rep, err := svc.repo.GetReport(ctx, sess.SchoolID, id)
	if err != nil {
		return Report{}, errors.Wrap(err, "getting report")
	}
	if err := rep.Publish(svc.now()); err != nil {
		return Report{}, err
	}
	rep, err = svc.repo.UpdateReportStatus(ctx, rep)
	return rep, errors.Wrap(err, "publishing report")
}

// Distribute emails the rendered report to the student's parents and marks it distributed.
func (svc *service) Distribute(ctx context.Context, sess core.Session, id string) (Report, error) {
	rep, err := svc.repo.GetReport(ctx, sess.SchoolID, id)
	if err != nil {
		return Report{}, errors.Wrap(err, "getting report")
	}
	if rep.Status != StatusPublished {
		return Report{}, core.NewValidationError(ErrNotPublished, core.FieldError{Field: "status", Error: ErrNotPublished.Error()})
	}
	in, stu, err := svc.loadInput(ctx, sess, rep)
	if err != nil {
		return Report{}, err
	}
	if len(stu.ParentEmails) == 0 {
		return Report{}, core.NewValidationError(ErrNoParentEmail, core.FieldError{Field: "parent_emails", Error: ErrNoParentEmail.Error()})
	}
	rendered, err := svc.Render(in)
	if err != nil {
		return Report{}, err
	}

	msg, err := newReportMessage(stu, rendered)
	if err != nil {
		return Report{}, errors.Wrap(err, "building report email")
	}
	if err := msg.Render(svc.conf.AppName, svc.conf.FrontendBaseURL); err != nil {
		return Report{}, errors.Wrap(err, "rendering report email")
	}
	if err := rep.Distribute(svc.now()); err != nil {
		return Report{}, err
	}
	rep, err = svc.repo.UpdateReportStatus(ctx, rep)
	if err != nil {
		return Report{}, errors.Wrap(err, "distributing report")
	}
	svc.mailSvc.SendMessages(msg)
	return rep, nil
}

func newReportMessage(stu Student, rendered Rendered) (*core.EmailMessage, error) {
	doc := rendered.Document
	to := make([]mail.Address, 0, len(stu.ParentEmails))
	for _, e := range stu.ParentEmails {
		to = append(to, mail.Address{Address: e})
	}
	msg := &core.EmailMessage{
		To:           to,
		Subject:      "Report card of " + doc.Student.Name + " - " + doc.Exam.Code() + " " + doc.Exam.AcademicYear,
		TemplateName: "report_card",
		TemplateData: map[string]interface{}{
			"StudentName":  doc.Student.Name,
			"SchoolName":   doc.School.Name,
			"Assessment":   doc.Exam.Title(),
			"AcademicYear": doc.Exam.AcademicYear,
			"Percentage":   fmt.Sprintf("%.1f%%", doc.Summary.Percentage),
			"Grade":        doc.Summary.Grade,
			"Attendance":   fmt.Sprintf("%.1f%%", doc.Totals.Percentage),
		},
	}
	err := msg.Attach(bytes.NewReader(rendered.HTML), rendered.Filename, "text/html; charset=utf-8")
	return msg, err
}

// Document rebuilds the Input of a stored report and renders it.
func (svc *service) Document(ctx context.Context, sess core.Session, id string) (Rendered, error) {
	rep, err := svc.repo.GetReport(ctx, sess.SchoolID, id)
	if err != nil {
		return Rendered{}, errors.Wrap(err, "getting report")
	}
	in, _, err := svc.loadInput(ctx, sess, rep)
	if err != nil {
		return Rendered{}, err
	}
	return svc.Render(in)
}

func (svc *service) loadInput(ctx context.Context, sess core.Session, rep Report) (Input, Student, error) {
	stu, err := svc.repo.GetStudent(ctx, sess.SchoolID, rep.StudentID)
	if err != nil {
		return Input{}, Student{}, errors.Wrap(err, "getting student")
	}
	sch, err := svc.repo.GetSchool(ctx, sess.SchoolID)
	if err != nil {
		return Input{}, Student{}, errors.Wrap(err, "getting school")
	}
	eg, err := svc.repo.GetExamGroup(ctx, sess.SchoolID, rep.ExamGroupID)
	if err != nil {
		return Input{}, Student{}, errors.Wrap(err, "getting exam group")
	}
	scale := rep.Scale
	if len(scale.Bands) == 0 {
		// graded before scales were stored with reports
		if scale, err = svc.GetGradingScale(ctx, sess, rep.AssessmentType); err != nil {
			return Input{}, Student{}, errors.Wrap(err, "getting grading scale")
		}
	}

	generatedAt := rep.GeneratedAt.In(svc.conf.Location())
	in := Input{
		Student:     stu.input(),
		School:      sch.input(),
		Exam:        eg.input(),
		Subjects:    rep.subjects(),
		Attendance:  rep.Attendance,
		Grading:     &scale,
		Overall:     &OverallInput{Grade: rep.OverallGrade, Remark: rep.OverallRemark},
		GeneratedAt: &generatedAt,
	}
	return in, stu, nil
}

// sortedIDs returns a sorted copy of ids without duplicates.
func sortedIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
