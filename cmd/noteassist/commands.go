package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v2"

	"noteassist/internal/config"
	"noteassist/internal/i18n"
	"noteassist/internal/repl"
	"noteassist/internal/storage"
)

// withRuntime 构建运行时，结束后释放；错误统一转换为本地化提示
// withRuntime builds the runtime around fn and reports its error as a notice.
func withRuntime(action string, fn func(ctx context.Context, rt *runtime) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt, err := openRuntime(c)
		if err != nil {
			return err
		}
		defer rt.Close()
		if err := fn(c.Context, rt); err != nil {
			return rt.fail(action, err)
		}
		return nil
	}
}

func tagCommand() *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Suggest tags for the active note and append them",
		Action: withRuntime("tag", func(ctx context.Context, rt *runtime) error {
			doc, err := rt.activeNote()
			if err != nil {
				return err
			}
			res, err := rt.Service.TagNote(ctx, doc)
			if err != nil {
				return err
			}
			rt.notice.T("notice.tags_added", strings.Join(res.Tags, ", "))
			return nil
		}),
	}
}

func calendarCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendar",
		Usage: "Collect date and time mentions of the active note into \"Calendar Items\"",
		Action: withRuntime("calendar", func(ctx context.Context, rt *runtime) error {
			doc, err := rt.activeNote()
			if err != nil {
				return err
			}
			res, err := rt.Service.ExtractCalendar(ctx, doc)
			if err != nil {
				return err
			}
			if len(res.Items) == 0 {
				rt.notice.Warn(rt.I18n.T("notice.calendar_none"))
				return nil
			}
			rt.notice.T("notice.calendar_found", len(res.Items))
			return nil
		}),
	}
}

func tasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "Extract actionable tasks from the active note into today's task note",
		Action: withRuntime("tasks", func(ctx context.Context, rt *runtime) error {
			doc, err := rt.activeNote()
			if err != nil {
				return err
			}
			res, err := rt.Service.GenerateTasks(ctx, doc)
			if err != nil {
				return err
			}
			rt.notice.T("notice.tasks_generated", res.Path)
			return nil
		}),
	}
}

func backlinksCommand() *cli.Command {
	return &cli.Command{
		Name:  "backlinks",
		Usage: "Append links to related existing notes",
		Action: withRuntime("backlinks", func(ctx context.Context, rt *runtime) error {
			doc, err := rt.activeNote()
			if err != nil {
				return err
			}
			links, err := rt.Service.SuggestBacklinks(ctx, doc)
			if err != nil {
				return err
			}
			rt.notice.T("notice.backlinks_added", len(links))
			return nil
		}),
	}
}

func modelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List models offered by the configured endpoint",
		Action: withRuntime("models", func(ctx context.Context, rt *runtime) error {
			if err := rt.Service.RequireCredential(); err != nil {
				return err
			}
			models, err := rt.Provider.ListModels(ctx)
			if err != nil {
				return err
			}
			current := rt.Config.Settings.ChatModel
			for _, m := range models {
				marker := "  "
				if m.ID == current {
					marker = "* "
				}
				fmt.Fprintf(rt.out, "%s%s\n", marker, m.ID)
			}
			return nil
		}),
	}
}

func activityCommand() *cli.Command {
	return &cli.Command{
		Name:  "activity",
		Usage: "Show recent outcomes recorded in the journal",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of entries",
				Value: 20,
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()
			acts, err := rt.Journal.ListActivity(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			for _, a := range acts {
				fmt.Fprintln(rt.out, formatActivity(a, 60))
			}
			return nil
		},
	}
}

func draftsCommand() *cli.Command {
	return &cli.Command{
		Name:  "drafts",
		Usage: "List chat improvement drafts and how each was resolved",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of drafts",
				Value: 20,
			},
		},
		Action: func(c *cli.Context) error {
			limit := c.Int("limit")
			return withRuntime("drafts", func(ctx context.Context, rt *runtime) error {
				drafts, err := rt.Journal.ListDrafts(ctx, limit)
				if err != nil {
					return err
				}
				for _, d := range drafts {
					fmt.Fprintln(rt.out, formatDraft(d))
				}
				return nil
			})(c)
		},
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print one draft with its full body",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := strings.TrimSpace(c.Args().First())
					if id == "" {
						return fmt.Errorf("usage: drafts show <id>")
					}
					return withRuntime("drafts", func(ctx context.Context, rt *runtime) error {
						d, err := rt.Journal.LoadDraft(ctx, id)
						if err != nil {
							return err
						}
						fmt.Fprintln(rt.out, formatDraft(d))
						fmt.Fprintf(rt.out, "\n%s\n", d.Body)
						return nil
					})(c)
				},
			},
		},
	}
}

func formatDraft(d storage.DraftRecord) string {
	target := d.Name
	if d.Path != "" {
		target += " -> " + d.Path
	}
	return fmt.Sprintf("%s  %-8s %s  %s",
		d.CreatedAt.Local().Format("2006-01-02 15:04:05"), d.Status, target, d.ID)
}

func formatActivity(a storage.Activity, detailWidth int) string {
	detail := strings.ReplaceAll(a.Detail, "\n", " ")
	detail = runewidth.Truncate(detail, detailWidth, "…")
	return fmt.Sprintf("%s  %-16s %-6s %s  %s",
		a.CreatedAt.Local().Format("2006-01-02 15:04:05"), a.Action, a.Status, a.Target, detail)
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change settings",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective settings",
				Action: runSettingsShow,
			},
			{
				Name:      "set",
				Usage:     "Persist one setting to the project config file",
				ArgsUsage: "<key> <value>",
				Action:    runSettingsSet,
			},
		},
	}
}

func runSettingsShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s := cfg.Settings
	values := map[string]string{
		"openai_api_key":        maskKey(s.APIKey),
		"auto_tag_enabled":      fmt.Sprint(s.AutoTagEnabled),
		"auto_calendar_enabled": fmt.Sprint(s.AutoCalendarEnabled),
		"auto_task_enabled":     fmt.Sprint(s.AutoTaskEnabled),
		"daily_notes_folder":    s.DailyNotesFolder,
		"chat_model":            s.ChatModel,
	}
	for _, key := range config.SettingKeys() {
		fmt.Fprintf(c.App.Writer, "%-22s %s\n", key, values[key])
	}
	return nil
}

func runSettingsSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: settings set <key> <value> (keys: %s)", strings.Join(config.SettingKeys(), ", "))
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	path := config.ResolvePath(c.String("config"))
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve cwd: %w", err)
		}
		path = config.DefaultProjectPath(cwd)
	}
	if err := config.SetSetting(path, key, value); err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	repl.NewNotifier(c.App.ErrWriter, i18n.New(cfg.Locale)).T("notice.setting_saved", key, path)
	return nil
}

// maskKey 只显示密钥末尾 4 位
func maskKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "…" + key[len(key)-4:]
}
