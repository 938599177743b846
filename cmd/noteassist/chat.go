package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"noteassist/internal/repl"
	"noteassist/internal/tui"
)

const historyFile = "chat.history"

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Chat about your notes (the default command)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Use line mode even on a terminal",
			},
		},
		Action: runChat,
	}
}

func runChat(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()
	ctx := c.Context

	docs, err := rt.Vault.List(ctx)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}
	session := rt.Service.NewSession()

	interactive := isTerminal(os.Stdin) && isTerminal(os.Stdout)
	if interactive && !c.Bool("plain") {
		return tui.Run(ctx, tui.Config{
			Session: session,
			Locale:  rt.I18n,
			Vault:   rt.Vault.Root(),
			Notes:   len(docs),
			Model:   rt.Config.Settings.ChatModel,
		})
	}

	input, inputErr := repl.NewLineInput(filepath.Join(rt.Config.Storage.BaseDir, historyFile), interactive, c.App.Reader, rt.out)
	if inputErr != nil {
		rt.notice.Warn(fmt.Sprintf("line editor unavailable, fallback to basic input: %v", inputErr))
	}
	defer input.Close()

	fmt.Fprintln(rt.out, rt.I18n.T("chat.welcome", len(docs), rt.Vault.Root()))
	return repl.NewLoop(repl.Config{
		Session: session,
		Input:   input,
		Out:     rt.out,
		Notice:  rt.notice,
		Locale:  rt.I18n,
		Model:   rt.Config.Settings.ChatModel,
	}).Run(ctx)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
