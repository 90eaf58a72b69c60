package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/account"
	"github.com/trezcool/kalvi/core/exams"
	logsvc "github.com/trezcool/kalvi/services/logger"
	"github.com/trezcool/kalvi/storage/database"
	sqlxrepos "github.com/trezcool/kalvi/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	// start CLI
	acadSvc := academics.NewService(sqlxrepos.NewAcademicsRepository(db))
	cli := commandLine{
		db:         db.DB,
		accSvc:     account.NewService(sqlxrepos.NewAccountRepository(db)),
		acadSvc:    acadSvc,
		examSvc:    exams.NewService(sqlxrepos.NewExamRepository(db), acadSvc, validate),
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}
