package testutil

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/reportcard"
	"github.com/schoolerp/erp/core/user"
	logsvc "github.com/schoolerp/erp/services/logger"
	"github.com/schoolerp/erp/storage/database"
)

// Config returns the TEST configuration, backed by SQLite.
func Config(t *testing.T) *core.Config {
	conf, err := core.LoadConfig("TEST", t.TempDir())
	if err != nil {
		t.Fatalf("Config() failed: %v", err)
	}
	conf.Database.Engine = database.EngineSQLite
	conf.Reports.Timezone = "UTC"
	return conf
}

// Logger returns a logger that discards everything.
func Logger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// OpenDB opens a fresh, migrated SQLite database that is closed when the test ends.
func OpenDB(t *testing.T) *sqlx.DB {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = database.Migrate(db); err != nil {
		t.Fatalf("OpenDB() failed to migrate: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	schoolID string,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		SchoolID:  schoolID,
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSchool(t *testing.T, repo reportcard.Repository, name string) reportcard.School {
	now := time.Now().UTC()
	school, err := repo.CreateSchool(context.Background(), reportcard.School{
		ID:         uuid.NewString(),
		Name:       name,
		Address:    reportcard.Address{Street: "Main Road", City: "Warangal", State: "Telangana"},
		District:   "Warangal",
		SchoolCode: "36090100101",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return school
}

func CreateStudent(t *testing.T, repo reportcard.Repository, schoolID, name string, parentEmails ...string) reportcard.Student {
	now := time.Now().UTC()
	student, err := repo.CreateStudent(context.Background(), reportcard.Student{
		ID:           uuid.NewString(),
		SchoolID:     schoolID,
		FullName:     name,
		AdmissionNo:  "ADM-" + name[:1],
		Grade:        "7",
		Section:      "A",
		RollNo:       "12",
		ParentEmails: parentEmails,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return student
}

// CreateExamGroup creates a "FA-1" exam group held in July 2024.
func CreateExamGroup(t *testing.T, repo reportcard.Repository, schoolID string) reportcard.ExamGroup {
	now := time.Now().UTC()
	eg, err := repo.CreateExamGroup(context.Background(), reportcard.ExamGroup{
		ID:               uuid.NewString(),
		SchoolID:         schoolID,
		Name:             "Formative Assessment 1",
		AssessmentType:   "FA",
		AssessmentNumber: 1,
		AcademicYear:     "2024-2025",
		StartDate:        time.Date(2024, time.July, 22, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2024, time.July, 26, 0, 0, 0, 0, time.UTC),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("CreateExamGroup() failed: %v", err)
	}
	return eg
}
