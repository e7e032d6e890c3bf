package reportcard

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/schoolerp/erp/core/attendance"
	"github.com/schoolerp/erp/core/grading"
)

// Input is everything needed to render one report card. All text fields are optional.
type Input struct {
	Student    StudentInput               `json:"student"`
	School     SchoolInput                `json:"school"`
	Exam       ExamInput                  `json:"exam" validate:"required"`
	Subjects   []SubjectInput             `json:"subjects" validate:"dive"`
	Attendance map[int]attendance.Monthly `json:"attendance" validate:"dive,keys,min=1,max=12,endkeys"`
	// Grading defaults to the State Board scale of the exam type.
	Grading *grading.Scale `json:"grading,omitempty"`
	// Overall, when set, is used as is instead of grading the totals.
	Overall     *OverallInput `json:"overall,omitempty"`
	Remarks     Remarks       `json:"remarks"`
	GeneratedAt *time.Time    `json:"generated_at,omitempty"`
}

type StudentInput struct {
	Name        string `json:"name"`
	AdmissionNo string `json:"admission_no"`
	Grade       string `json:"grade"`
	Section     string `json:"section"`
	RollNo      string `json:"roll_no"`
	FatherName  string `json:"father_name"`
	MotherName  string `json:"mother_name"`
}

type SchoolInput struct {
	Name       string  `json:"name"`
	LogoURL    string  `json:"logo_url"`
	Address    Address `json:"address"`
	District   string  `json:"district"`
	Mandal     string  `json:"mandal"`
	Village    string  `json:"village"`
	SchoolCode string  `json:"school_code"`
}

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
}

// UnmarshalJSON accepts either an address object or a single line stored as the street.
func (a *Address) UnmarshalJSON(data []byte) error {
	var line string
	if err := json.Unmarshal(data, &line); err == nil {
		*a = Address{Street: line}
		return nil
	}
	type plain Address
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Address(p)
	return nil
}

type ExamInput struct {
	Name             string `json:"name"`
	Type             string `json:"type" validate:"required,assessment"`
	AssessmentNumber int    `json:"assessment_number" validate:"gte=0"`
	AcademicYear     string `json:"academic_year"`
	DateRange        string `json:"date_range"`
}

type SubjectInput struct {
	SubjectName   string   `json:"subject_name"`
	MaxMarks      float64  `json:"max_marks" validate:"gte=0"`
	MarksObtained *float64 `json:"marks_obtained"`
	IsAbsent      bool     `json:"is_absent"`
	// Grade and Remark of an already graded subject; looked up in the scale when Grade is empty.
	Grade  string `json:"grade,omitempty"`
	Remark string `json:"remark,omitempty"`
}

type OverallInput struct {
	Grade  string `json:"grade"`
	Remark string `json:"remark"`
}

type Remarks struct {
	ClassTeacher string `json:"class_teacher"`
	Principal    string `json:"principal"`
}

func (in Input) Validate(validate *validator.Validate) error {
	return validate.Struct(in)
}
