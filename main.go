package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/comet-hpc/comet/cli"
)

func main() {
	if err := cli.NewApp().Exec(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
