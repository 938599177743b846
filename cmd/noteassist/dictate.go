package main

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"noteassist/internal/assistant"
	"noteassist/internal/dictation"
	"noteassist/internal/vault"
)

func dictateCommand() *cli.Command {
	return &cli.Command{
		Name:  "dictate",
		Usage: "Record speech, transcribe it and insert the text at the cursor of the active note",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Transcribe a pre-recorded audio `FILE` instead of recording",
			},
		},
		Action: runDictate,
	}
}

func runDictate(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()
	ctx := c.Context

	doc, err := rt.activeNote()
	if err != nil {
		return rt.fail("dictate", err)
	}
	if err := rt.Service.RequireCredential(); err != nil {
		return rt.fail("dictate", err)
	}

	clip := strings.TrimSpace(c.String("file"))
	var rec dictation.Recorder = dictation.NewExecRecorder(rt.Config.Dictation.Command)
	if clip != "" {
		rec = dictation.FileRecorder{Path: clip}
	}
	machine := dictation.NewMachine(rec, rt.Service.Transcriber())

	if _, err := machine.Toggle(ctx); err != nil {
		return rt.fail("dictate", err)
	}
	if clip == "" {
		rt.notice.T("notice.recording_started")
		waitForEnter(ctx, c.App.Reader)
	}
	rt.notice.T("notice.recording_stopped")

	ev, err := machine.Toggle(ctx)
	if err != nil {
		return rt.fail("dictate", err)
	}

	editor := vault.NewFileEditor(rt.Vault, doc, c.Int("cursor"))
	res, err := rt.Service.Dictate(ctx, editor, ev.Text)
	if err != nil {
		return rt.fail("dictate", err)
	}
	rt.notice.T("notice.transcription_added")
	reportFollowUps(rt, res.FollowUps)
	return nil
}

// waitForEnter 阻塞直到读到一行或 ctx 取消
func waitForEnter(ctx context.Context, in io.Reader) {
	done := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(in).ReadString('\n')
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func reportFollowUps(rt *runtime, followUps []assistant.FollowUp) {
	for _, fu := range followUps {
		if fu.Err != nil {
			rt.notice.Warn(assistant.Describe(rt.I18n, fu.Action, fu.Err))
			continue
		}
		switch fu.Action {
		case "tag":
			rt.notice.T("notice.tags_added", fu.Detail)
		case "calendar":
			n, _ := strconv.Atoi(fu.Detail)
			if n == 0 {
				rt.notice.T("notice.calendar_none")
				continue
			}
			rt.notice.T("notice.calendar_found", n)
		case "tasks":
			rt.notice.T("notice.tasks_generated", fu.Detail)
		}
	}
}
