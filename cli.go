package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/example/hifzbot/internal/bot"
	"github.com/example/hifzbot/internal/config"
	"github.com/example/hifzbot/internal/excel"
	"github.com/example/hifzbot/internal/httpapi"
	"github.com/example/hifzbot/internal/scheduler"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	return &cli.App{
		Name:    "hifzbot",
		Usage:   "Spaced repetition for Quran memorization",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "Optional dotenv file read before the environment"},
		},
		Commands: []*cli.Command{
			serveCmd(),
			importCmd(),
			statsCmd(),
		},
	}
}

func loadApplication(c *cli.Context) (*application, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newApplication(c.Context, cfg)
}

// serveCmd runs the HTTP API, the Telegram bot and the reminder scheduler.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API, the Telegram bot and reminders",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-bot", Usage: "Serve the HTTP API only"},
		},
		Action: func(c *cli.Context) error {
			app, err := loadApplication(c)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var b *bot.Bot
			switch {
			case c.Bool("no-bot"):
			case app.cfg.TelegramToken == "":
				app.log.Warn("TELEGRAM_BOT_TOKEN is not set; serving the HTTP API only")
			default:
				botAPI, err := tgbotapi.NewBotAPI(app.cfg.TelegramToken)
				if err != nil {
					return fmt.Errorf("unable to create bot: %w", err)
				}
				app.log.Info("authorized on telegram", "account", botAPI.Self.UserName)
				b = bot.New(botAPI, app.review, app.users, app.cfg, app.log, app.metrics)
			}

			g, ctx := errgroup.WithContext(ctx)
			api := httpapi.New(app.cfg, app.review, app.registry, app.log)
			g.Go(func() error { return api.ListenAndServe(ctx) })

			if b != nil {
				g.Go(func() error { return b.Start(ctx) })

				if app.cfg.EnableScheduler {
					sched := scheduler.New(b, app.users, app.review, scheduler.Options{
						StartHour:       app.cfg.NotificationStartHour,
						EndHour:         app.cfg.NotificationEndHour,
						DefaultTimezone: app.cfg.DefaultTimezone,
					}, app.log, app.metrics)
					if err := sched.Start(ctx); err != nil {
						stop()
						_ = g.Wait()
						return err
					}
					defer sched.Stop()
				}
			}

			err = g.Wait()
			app.log.Info("shutdown complete")
			return err
		},
	}
}

// importCmd loads ayah text from a spreadsheet.
func importCmd() *cli.Command {
	defaults := excel.DefaultImportConfig()
	return &cli.Command{
		Name:  "import",
		Usage: "Import ayah text from an .xlsx or .csv file (columns: surah, ayah, text, translation)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Path to the .xlsx or .csv file"},
			&cli.StringFlag{Name: "sheet", Value: defaults.SheetName, Usage: "Excel sheet name"},
			&cli.IntFlag{Name: "start-row", Value: defaults.StartRow, Usage: "First data row (1-based)"},
		},
		Action: func(c *cli.Context) error {
			app, err := loadApplication(c)
			if err != nil {
				return err
			}
			defer app.Close()

			cfg := defaults
			cfg.FilePath = c.String("file")
			cfg.SheetName = c.String("sheet")
			cfg.StartRow = c.Int("start-row")

			result, err := excel.ImportAyahs(c.Context, cfg, app.ayahs)
			if err != nil {
				return err
			}
			app.log.Info("import finished", "processed", result.TotalProcessed,
				"imported", result.Imported, "skipped", result.Skipped)
			return outputJSON(result)
		},
	}
}

// statsCmd prints a user's statistics.
func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print a user's review statistics as JSON",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "Telegram user ID"},
			&cli.StringFlag{Name: "tz", Usage: "IANA timezone (defaults to the user's, then DEFAULT_TIMEZONE)"},
		},
		Action: func(c *cli.Context) error {
			app, err := loadApplication(c)
			if err != nil {
				return err
			}
			defer app.Close()

			userID := c.Int64("user")
			loc := app.cfg.DefaultTimezone
			if name := c.String("tz"); name != "" {
				if loc, err = time.LoadLocation(name); err != nil {
					return fmt.Errorf("unknown timezone %q: %w", name, err)
				}
			} else if user, err := app.users.GetByID(c.Context, userID); err == nil {
				loc = user.Location(loc)
			}
			return outputJSON(app.review.Stats(c.Context, userID, loc))
		},
	}
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
