package main

import (
	"github.com/pressly/goose/v3"

	"github.com/coastwrpt/wrpt/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(args[0], cli.db, database.MigrationsDir, args[1:]...)
}
