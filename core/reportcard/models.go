package reportcard

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/attendance"
	"github.com/schoolerp/erp/core/grading"
)

// Report statuses
const (
	StatusDraft       = "draft"
	StatusGenerated   = "generated"
	StatusPublished   = "published"
	StatusDistributed = "distributed"
)

type School struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LogoURL    string    `json:"logo_url"`
	Address    Address   `json:"address"`
	District   string    `json:"district"`
	Mandal     string    `json:"mandal"`
	Village    string    `json:"village"`
	SchoolCode string    `json:"school_code"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (s School) input() SchoolInput {
	return SchoolInput{
		Name:       s.Name,
		LogoURL:    s.LogoURL,
		Address:    s.Address,
		District:   s.District,
		Mandal:     s.Mandal,
		Village:    s.Village,
		SchoolCode: s.SchoolCode,
	}
}

type Student struct {
	ID           string    `json:"id"`
	SchoolID     string    `json:"school_id"`
	FullName     string    `json:"full_name"`
	AdmissionNo  string    `json:"admission_no"`
	Grade        string    `json:"grade"`
	Section      string    `json:"section"`
	RollNo       string    `json:"roll_no"`
	FatherName   string    `json:"father_name"`
	MotherName   string    `json:"mother_name"`
	ParentEmails []string  `json:"parent_emails"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (s Student) input() StudentInput {
	return StudentInput{
		Name:        s.FullName,
		AdmissionNo: s.AdmissionNo,
		Grade:       s.Grade,
		Section:     s.Section,
		RollNo:      s.RollNo,
		FatherName:  s.FatherName,
		MotherName:  s.MotherName,
	}
}

type ExamGroup struct {
	ID               string    `json:"id"`
	SchoolID         string    `json:"school_id"`
	Name             string    `json:"name"`
	AssessmentType   string    `json:"assessment_type"`
	AssessmentNumber int       `json:"assessment_number"`
	AcademicYear     string    `json:"academic_year"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	IsPublished      bool      `json:"is_published"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

// DateRange is the printable exam period.
func (eg ExamGroup) DateRange() string {
	if eg.StartDate.IsZero() || eg.EndDate.IsZero() {
		return ""
	}
	return eg.StartDate.Format("02 Jan 2006") + " - " + eg.EndDate.Format("02 Jan 2006")
}

func (eg ExamGroup) input() ExamInput {
	return ExamInput{
		Name:             eg.Name,
		Type:             eg.AssessmentType,
		AssessmentNumber: eg.AssessmentNumber,
		AcademicYear:     eg.AcademicYear,
		DateRange:        eg.DateRange(),
	}
}

// Mark is the result of one student in one subject of an exam group.
type Mark struct {
	ExamGroupID   string    `json:"exam_group_id"`
	StudentID     string    `json:"student_id"`
	SubjectName   string    `json:"subject_name"`
	MaxMarks      float64   `json:"max_marks"`
	MarksObtained *float64  `json:"marks_obtained"`
	IsAbsent      bool      `json:"is_absent"`
	DisplayOrder  int       `json:"display_order"`
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

type AttendanceRecord struct {
	StudentID string `json:"student_id"`
	SchoolID  string `json:"school_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	attendance.Monthly
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (r AttendanceRecord) Ref() attendance.MonthRef {
	return attendance.MonthRef{Year: r.Year, Month: r.Month}
}

type GradingScale struct {
	SchoolID string `json:"school_id"`
	grading.Scale
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// SubjectResult is a graded Mark as stored on a Report.
type SubjectResult struct {
	SubjectName   string   `json:"subject_name"`
	MaxMarks      float64  `json:"max_marks"`
	MarksObtained *float64 `json:"marks_obtained"`
	IsAbsent      bool     `json:"is_absent"`
	Percentage    float64  `json:"percentage"`
	Grade         string   `json:"grade"`
	Remark        string   `json:"remark"`
}

type Report struct {
	ID               string                     `json:"id"`
	SchoolID         string                     `json:"school_id"`
	StudentID        string                     `json:"student_id"`
	ExamGroupID      string                     `json:"exam_group_id"`
	AcademicYear     string                     `json:"academic_year"`
	AssessmentType   string                     `json:"assessment_type"`
	AssessmentNumber int                        `json:"assessment_number"`
	SubjectMarks     []SubjectResult            `json:"subject_marks"`
	TotalMarks       float64                    `json:"total_marks"`
	ObtainedMarks    float64                    `json:"obtained_marks"`
	Percentage       float64                    `json:"percentage"`
	OverallGrade     string                     `json:"overall_grade"`
	OverallRemark    string                     `json:"overall_remark"`
	Attendance       map[int]attendance.Monthly `json:"attendance"`
	// Scale is the grading scale the report was graded with.
	Scale         grading.Scale `json:"grading_scale"`
	Status        string        `json:"status"`
	IsPublished   bool          `json:"is_published"`
	PublishedAt   *time.Time    `json:"published_at"`
	DistributedAt *time.Time    `json:"distributed_at"`
	GeneratedBy   string        `json:"generated_by"`
	GeneratedAt   time.Time     `json:"generated_at"` // UTC
	UpdatedAt     time.Time     `json:"updated_at"`   // UTC
}

// Publish moves a generated report to published.
func (r *Report) Publish(now time.Time) error {
	if r.Status != StatusGenerated {
		return core.NewValidationError(ErrNotGenerated, core.FieldError{Field: "status", Error: ErrNotGenerated.Error()})
	}
	r.Status = StatusPublished
	r.IsPublished = true
	r.PublishedAt = &now
	r.UpdatedAt = now
	return nil
}

// Distribute moves a published report to distributed.
func (r *Report) Distribute(now time.Time) error {
	if r.Status != StatusPublished {
		return core.NewValidationError(ErrNotPublished, core.FieldError{Field: "status", Error: ErrNotPublished.Error()})
	}
	r.Status = StatusDistributed
	r.DistributedAt = &now
	r.UpdatedAt = now
	return nil
}

func (r Report) subjects() []SubjectInput {
	subjects := make([]SubjectInput, 0, len(r.SubjectMarks))
	for _, sm := range r.SubjectMarks {
		subjects = append(subjects, SubjectInput{
			SubjectName:   sm.SubjectName,
			MaxMarks:      sm.MaxMarks,
			MarksObtained: sm.MarksObtained,
			IsAbsent:      sm.IsAbsent,
			Grade:         sm.Grade,
			Remark:        sm.Remark,
		})
	}
	return subjects
}

// Requests

type NewSchool struct {
	Name       string  `json:"name" validate:"required,notblank"`
	LogoURL    string  `json:"logo_url" validate:"omitempty,url"`
	Address    Address `json:"address"`
	District   string  `json:"district"`
	Mandal     string  `json:"mandal"`
	Village    string  `json:"village"`
	SchoolCode string  `json:"school_code" validate:"omitempty,alphanum_"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.SchoolCode = core.CleanString(ns.SchoolCode)
	return validate.Struct(ns)
}

type NewStudent struct {
	FullName     string   `json:"full_name" validate:"required,notblank"`
	AdmissionNo  string   `json:"admission_no"`
	Grade        string   `json:"grade"`
	Section      string   `json:"section"`
	RollNo       string   `json:"roll_no"`
	FatherName   string   `json:"father_name"`
	MotherName   string   `json:"mother_name"`
	ParentEmails []string `json:"parent_emails" validate:"omitempty,dive,email"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FullName = core.CleanString(ns.FullName)
	for i, e := range ns.ParentEmails {
		ns.ParentEmails[i] = core.CleanString(e, true /* lower */)
	}
	return validate.Struct(ns)
}

type NewExamGroup struct {
	Name             string    `json:"name" validate:"required,notblank"`
	AssessmentType   string    `json:"assessment_type" validate:"required,assessment"`
	AssessmentNumber int       `json:"assessment_number" validate:"required,min=1,max=4"`
	AcademicYear     string    `json:"academic_year" validate:"required,notblank"`
	StartDate        time.Time `json:"start_date" validate:"required"`
	EndDate          time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
}

func (ne *NewExamGroup) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	ne.AssessmentType = core.CleanString(ne.AssessmentType)
	ne.AcademicYear = core.CleanString(ne.AcademicYear)
	return validate.Struct(ne)
}

type MarkEntry struct {
	StudentID     string   `json:"student_id" validate:"required"`
	SubjectName   string   `json:"subject_name" validate:"required,notblank"`
	MaxMarks      float64  `json:"max_marks" validate:"gt=0"`
	MarksObtained *float64 `json:"marks_obtained" validate:"omitempty,gte=0"`
	IsAbsent      bool     `json:"is_absent"`
	DisplayOrder  int      `json:"display_order" validate:"gte=0"`
}

type MarksRequest struct {
	Marks []MarkEntry `json:"marks" validate:"required,min=1,dive"`
}

func (mr *MarksRequest) Validate(validate *validator.Validate) error {
	for i := range mr.Marks {
		mr.Marks[i].SubjectName = core.CleanString(mr.Marks[i].SubjectName)
	}
	return validate.Struct(mr)
}

type AttendanceEntry struct {
	StudentID   string `json:"student_id" validate:"required"`
	Year        int    `json:"year" validate:"required,min=2000,max=2100"`
	Month       int    `json:"month" validate:"required,min=1,max=12"`
	WorkingDays int    `json:"working_days" validate:"gte=0,max=31"`
	PresentDays int    `json:"present_days" validate:"gte=0,ltefield=WorkingDays"`
}

type AttendanceRequest struct {
	Records []AttendanceEntry `json:"records" validate:"required,min=1,dive"`
}

func (ar *AttendanceRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}

type DailyAttendanceRequest struct {
	Year  int              `json:"year" validate:"required,min=2000,max=2100"`
	Month int              `json:"month" validate:"required,min=1,max=12"`
	Days  []attendance.Day `json:"days" validate:"dive"`
}

func (dr *DailyAttendanceRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(dr)
}

type GenerateRequest struct {
	// StudentIDs defaults to every student with marks in the exam group.
	StudentIDs []string `json:"student_ids"`
}

type ExamGroupFilter struct {
	SchoolID       string `query:"-"`
	AcademicYear   string `query:"academic_year"`
	AssessmentType string `query:"assessment_type"`
}

func (f *ExamGroupFilter) Clean() {
	f.AcademicYear = core.CleanString(f.AcademicYear)
	f.AssessmentType = core.CleanString(f.AssessmentType)
}

type ReportFilter struct {
	SchoolID    string `query:"-"`
	ExamGroupID string `query:"exam_group_id"`
	StudentID   string `query:"student_id"`
	Status      string `query:"status"`
}

func (f *ReportFilter) Clean() {
	f.ExamGroupID = core.CleanString(f.ExamGroupID)
	f.StudentID = core.CleanString(f.StudentID)
	f.Status = core.CleanString(f.Status, true /* lower */)
}
