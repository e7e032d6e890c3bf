// Package inmemdb implements the repositories in memory, for tests and demos.
package inmemdb

import (
	"sync"

	"github.com/schoolerp/erp/core/reportcard"
	"github.com/schoolerp/erp/core/user"
)

type (
	DB struct {
		user       *userTable
		reportcard *reportcardTables
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	markKey struct {
		examGroupID, studentID, subjectName string
	}

	attendanceKey struct {
		studentID, schoolID string
		year, month         int
	}

	scaleKey struct {
		schoolID, assessmentType string
	}

	reportKey struct {
		studentID, examGroupID, academicYear string
	}

	reportcardTables struct {
		schools    map[string]reportcard.School
		students   map[string]reportcard.Student
		examGroups map[string]reportcard.ExamGroup
		marks      map[markKey]reportcard.Mark
		attendance map[attendanceKey]reportcard.AttendanceRecord
		scales     map[scaleKey]reportcard.GradingScale
		reports    map[string]reportcard.Report
		reportIDs  map[reportKey]string
		mutex      sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		reportcard: &reportcardTables{
			schools:    make(map[string]reportcard.School),
			students:   make(map[string]reportcard.Student),
			examGroups: make(map[string]reportcard.ExamGroup),
			marks:      make(map[markKey]reportcard.Mark),
			attendance: make(map[attendanceKey]reportcard.AttendanceRecord),
			scales:     make(map[scaleKey]reportcard.GradingScale),
			reports:    make(map[string]reportcard.Report),
			reportIDs:  make(map[reportKey]string),
		},
	}
}
