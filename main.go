package main

import (
	"os"

	"github.com/smartcash/smartrewardsd/app"
)

func main() {
	if err := app.StartApp(); err != nil {
		os.Exit(1)
	}
}
