package main

import (
	"os"

	"photostamp/internal/cli"
	"photostamp/internal/exifdate"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], cli.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Clock:  exifdate.SystemClock,
	}))
}
