package main

import (
	"os"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
