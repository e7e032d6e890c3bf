package main

import (
	"fmt"
	"log"
	"os"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/reportcard"
	"github.com/schoolerp/erp/core/user"
	emailsvc "github.com/schoolerp/erp/services/email"
	logsvc "github.com/schoolerp/erp/services/logger"
	"github.com/schoolerp/erp/storage/database"
	sqlxrepos "github.com/schoolerp/erp/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	// set up services; emails are only printed from the CLI
	mailSvc := emailsvc.NewConsoleService(conf, logger)
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	reportcard.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:         db,
		out:        os.Stdout,
		validate:   validate,
		translator: translator,
		usrSvc:     user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf),
		rcSvc:      reportcard.NewService(sqlxrepos.NewReportcardRepository(db), mailSvc, logger, conf),
	}
	err = cli.run(os.Args)
	if err != nil && err != errHelp {
		logger.Error(fmt.Sprintf("\nerror: %s", err))
	}
	_ = db.Close()
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
