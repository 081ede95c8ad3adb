package main

import (
	"context"

	"github.com/coastwrpt/wrpt/core/count"
)

func (cli *commandLine) dumpCounts() error {
	_, err := count.Export(context.Background(), cli.countRepo, cli.out)
	return err
}
