package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/federicoviola/AppTwitter/internal/api"
	"github.com/federicoviola/AppTwitter/internal/config"
	"github.com/federicoviola/AppTwitter/internal/database"
	"github.com/federicoviola/AppTwitter/internal/dispatch"
	"github.com/federicoviola/AppTwitter/internal/filter"
	"github.com/federicoviola/AppTwitter/internal/generate"
	"github.com/federicoviola/AppTwitter/internal/ingest"
	"github.com/federicoviola/AppTwitter/internal/llm"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/federicoviola/AppTwitter/internal/platform"
	"github.com/federicoviola/AppTwitter/internal/repository"
	"github.com/federicoviola/AppTwitter/internal/scheduler"
	"github.com/federicoviola/AppTwitter/internal/voice"
	"github.com/federicoviola/AppTwitter/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds the wired application. Built once per command invocation;
// Close releases the database.
type app struct {
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
	importer   *ingest.Importer
	generator  *generate.Generator
	scheduler  *scheduler.Scheduler
	dispatcher *dispatch.Dispatcher
	log        zerolog.Logger
}

func newApp() (*app, error) {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repos := repository.New(db)

	profile, err := voice.Load(cfg.Voice.Path)
	if err != nil {
		db.Close()
		return nil, err
	}

	safety := filter.New(repos.Candidate, profile.ForbiddenWords, cfg.Filter, log)
	backend := llm.NewClient(cfg.LLM, profile.Generation.Temperature, log)
	generator := generate.New(repos.Article, repos.Candidate, safety, profile, backend, cfg.LLM.MaxTokens, log)

	sched, err := scheduler.New(repos.Queue, repos.Published, repos.AuditLog, cfg.Schedule, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	clients := platform.Registry{
		models.PlatformX:        platform.NewXClient(cfg.X, log),
		models.PlatformLinkedIn: platform.NewLinkedInClient(cfg.LinkedIn, log),
	}
	dispatcher := dispatch.New(sched, clients, repos.Settings, cfg.Dispatch, log)

	return &app{
		cfg:        cfg,
		db:         db,
		repos:      repos,
		importer:   ingest.New(repos.Article, log),
		generator:  generator,
		scheduler:  sched,
		dispatcher: dispatcher,
		log:        log,
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// withApp wires the application, runs fn and tears down
func withApp(fn func(ctx context.Context, a *app) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a)
	}
}

func main() {
	// Optional; real deployments set the environment directly.
	godotenv.Load()

	root := &cobra.Command{
		Use:           "apptwitter",
		Short:         "Content automation for X and LinkedIn",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		importCmd(),
		generateCmd(),
		queueCmd(),
		approveCmd(),
		skipCmd(),
		scheduleCmd(),
		rescheduleCmd(),
		postCmd(),
		runCmd(),
		serveCmd(),
		statsCmd(),
		historyCmd(),
		candidatesCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import articles from a CSV or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				summary, err := a.importer.ImportFile(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d, skipped %d, errors %d\n", summary.Imported, summary.Skipped, summary.Errors)
				return nil
			})(cmd, args)
		},
	}
}

func generateCmd() *cobra.Command {
	var (
		platformFlag string
		typeFlag     string
		articleFlag  string
		countFlag    int
		enqueueFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate post candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				p := models.Platform(platformFlag)
				if !models.ValidPlatforms[p] {
					return fmt.Errorf("invalid platform %q: want x or linkedin", platformFlag)
				}

				var ids []string
				if articleFlag != "" {
					// Explicit article; no batch rotation.
					candidate, err := a.generator.Generate(ctx, p, typeFlag, articleFlag)
					if err != nil {
						return err
					}
					ids = []string{candidate.ID}
				} else {
					var err error
					ids, err = a.generator.Batch(ctx, p, map[string]int{typeFlag: countFlag})
					if err != nil {
						return err
					}
				}

				for _, id := range ids {
					fmt.Println("Generated candidate", id)
					if enqueueFlag {
						queueID, err := a.scheduler.Enqueue(ctx, id)
						if err != nil {
							return err
						}
						fmt.Println("  queued as", queueID)
					}
				}
				if len(ids) == 0 {
					fmt.Println("No candidates survived the safety filter")
				}
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVar(&platformFlag, "platform", "x", "target platform (x or linkedin)")
	cmd.Flags().StringVar(&typeFlag, "type", models.TypeThought, "post type (promo, thought, question, thread, insight)")
	cmd.Flags().StringVar(&articleFlag, "article", "", "article ID to promote")
	cmd.Flags().IntVar(&countFlag, "count", 1, "how many candidates to generate")
	cmd.Flags().BoolVar(&enqueueFlag, "enqueue", true, "add generated candidates to the review queue as drafts")
	return cmd
}

func queueCmd() *cobra.Command {
	var (
		statusFlag string
		limitFlag  int
	)

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List review queue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				items, err := a.scheduler.List(ctx, models.QueueStatus(statusFlag), limitFlag)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Println("Queue is empty")
					return nil
				}
				for _, item := range items {
					when := "-"
					if item.ScheduledAt != nil {
						when = item.ScheduledAt.Format("2006-01-02 15:04")
					}
					fmt.Printf("%s  [%-9s] %-8s %-8s %s\n    %s\n",
						item.ID, item.Status, item.Platform, item.Type, when, preview(item.Content))
				}
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "filter by status")
	cmd.Flags().IntVar(&limitFlag, "limit", 20, "maximum entries to show")
	return cmd
}

func approveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <queue-id>",
		Short: "Approve a drafted queue entry for scheduling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				ok, err := a.scheduler.Approve(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("entry %s not found or not in drafted state", args[0])
				}
				fmt.Println("Approved", args[0])
				return nil
			})(cmd, args)
		},
	}
}

func skipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip <queue-id>",
		Short: "Skip a drafted or approved queue entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				ok, err := a.scheduler.Skip(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("entry %s not found or not in drafted/approved state", args[0])
				}
				fmt.Println("Skipped", args[0])
				return nil
			})(cmd, args)
		},
	}
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Assign approved entries to publication slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				n, err := a.scheduler.ScheduleApproved(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Scheduled %d entries\n", n)
				return nil
			})(cmd, args)
		},
	}
}

func rescheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule <queue-id> <time>",
		Short: "Move a scheduled entry to a new time (RFC3339 or \"2006-01-02 15:04\")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				newTime, err := parseTimeArg(args[1])
				if err != nil {
					return err
				}
				ok, err := a.scheduler.Reschedule(ctx, args[0], newTime)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("entry %s not found or not in scheduled state", args[0])
				}
				fmt.Println("Rescheduled", args[0], "to", newTime.Format(time.RFC3339))
				return nil
			})(cmd, args)
		},
	}
}

func postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post",
		Short: "Publish every entry due right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				summary, err := a.dispatcher.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Posted %d, failed %d\n", summary.Posted, summary.Failed)
				return nil
			})(cmd, args)
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the dispatcher daemon until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.dispatcher.RunDaemon(ctx); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			})(cmd, args)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the review queue HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				router := api.NewRouter(a.scheduler, a.dispatcher, a.log)

				srv := &http.Server{
					Addr:         ":" + a.cfg.Server.Port,
					Handler:      router,
					ReadTimeout:  a.cfg.Server.ReadTimeout,
					WriteTimeout: a.cfg.Server.WriteTimeout,
					IdleTimeout:  a.cfg.Server.ReadTimeout,
				}

				errCh := make(chan error, 1)
				go func() {
					a.log.Info().Str("port", a.cfg.Server.Port).Msg("Server listening")
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						errCh <- err
					}
				}()

				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
				}

				a.log.Info().Msg("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})(cmd, args)
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				stats, err := a.scheduler.Stats(ctx)
				if err != nil {
					return err
				}
				for _, status := range models.AllStatuses {
					fmt.Printf("%-10s %d\n", status, stats.ByStatus[status])
				}
				fmt.Printf("posted today: %d\n", stats.PostedToday)
				if stats.NextScheduled != nil {
					fmt.Printf("next slot:    %s\n", stats.NextScheduled.Format("2006-01-02 15:04"))
				}

				articles, err := a.repos.Article.Count(ctx)
				if err != nil {
					return err
				}
				candidates, err := a.repos.Candidate.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("articles:     %d\n", articles)
				fmt.Printf("candidates:   %d\n", candidates)

				if lastRun, err := a.repos.Settings.Get(ctx, dispatch.LastRunKey); err == nil && lastRun != "" {
					fmt.Printf("last dispatch: %s\n", lastRun)
				}
				return nil
			})(cmd, args)
		},
	}
}

func historyCmd() *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently published posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				records, err := a.repos.Published.ListRecent(ctx, limitFlag)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Println("Nothing published yet")
					return nil
				}
				for _, record := range records {
					fmt.Printf("%s  %s  candidate %s\n",
						record.PostedAt.Format("2006-01-02 15:04"), record.PostID, record.CandidateID)
				}
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "maximum records to show")
	return cmd
}

func candidatesCmd() *cobra.Command {
	var (
		platformFlag string
		limitFlag    int
	)

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List generated candidates for a platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				p := models.Platform(platformFlag)
				if !models.ValidPlatforms[p] {
					return fmt.Errorf("invalid platform %q: want x or linkedin", platformFlag)
				}
				candidates, err := a.repos.Candidate.ListByPlatform(ctx, p, limitFlag)
				if err != nil {
					return err
				}
				if len(candidates) == 0 {
					fmt.Println("No candidates for", platformFlag)
					return nil
				}
				for _, candidate := range candidates {
					fmt.Printf("%s  %-8s %s\n", candidate.ID, candidate.Type, preview(candidate.Content))
				}
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVar(&platformFlag, "platform", "x", "platform (x or linkedin)")
	cmd.Flags().IntVar(&limitFlag, "limit", 20, "maximum candidates to show")
	return cmd
}

func parseTimeArg(value string) (time.Time, error) {
	for _, format := range []string{time.RFC3339, "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(format, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}

func preview(content string) string {
	content = strings.ReplaceAll(content, "\n", " ")
	runes := []rune(content)
	if len(runes) > 80 {
		return string(runes[:77]) + "..."
	}
	return content
}
