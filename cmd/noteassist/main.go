package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	// .env 可选，不存在时忽略 / .env is optional
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "noteassist",
		Usage:   "AI assistant for a folder of Markdown notes",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (JSON/JSONC)",
			},
			&cli.StringFlag{
				Name:  "vault",
				Usage: "Vault root `DIR` (defaults to the configured vault or the working directory)",
			},
			&cli.StringFlag{
				Name:    "note",
				Aliases: []string{"n"},
				Usage:   "Active note `PATH`, relative to the vault",
			},
			&cli.IntFlag{
				Name:  "cursor",
				Usage: "Cursor byte `OFFSET` in the active note; negative means end of note",
				Value: -1,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output to stderr",
			},
		},
		Commands: []*cli.Command{
			chatCommand(),
			dictateCommand(),
			tagCommand(),
			calendarCommand(),
			tasksCommand(),
			backlinksCommand(),
			settingsCommand(),
			modelsCommand(),
			activityCommand(),
			draftsCommand(),
		},
		Action: runChat,
	}
}
