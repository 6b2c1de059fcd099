package main

import (
	cmd "github.com/docveil/docveil/cmd/docveil"
	"github.com/docveil/docveil/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting docveil")
	cmd.Execute()
}
