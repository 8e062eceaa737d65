package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/bookbot/internal/ai"
	"github.com/xxxsen/bookbot/internal/config"
	"github.com/xxxsen/bookbot/internal/db"
	"github.com/xxxsen/bookbot/internal/handler"
	"github.com/xxxsen/bookbot/internal/job"
	"github.com/xxxsen/bookbot/internal/middleware"
	"github.com/xxxsen/bookbot/internal/params"
	"github.com/xxxsen/bookbot/internal/pkg/authz"
	"github.com/xxxsen/bookbot/internal/poster"
	"github.com/xxxsen/bookbot/internal/repo"
	"github.com/xxxsen/bookbot/internal/rotation"
	"github.com/xxxsen/bookbot/internal/schedule"
	"github.com/xxxsen/bookbot/internal/service"
	"github.com/xxxsen/bookbot/internal/transport"
	"github.com/xxxsen/bookbot/internal/uptime"
)

func newRunCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the posting service and admin api",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := context.Background()
			conn, err := db.Open(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer conn.Close()
			if err := db.ApplyMigrations(ctx, conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")
	return cmd
}

func buildGenerator(cfg config.AIConfig) (poster.Generator, error) {
	entries := make([]ai.GeneratorEntry, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		provider, err := ai.NewProvider(p.Name, p.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", p.Name, err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      p.Name + "/" + p.Model,
			Generator: ai.NewGenerator(provider, p.Model),
		})
	}
	group := ai.NewGroupGenerator(entries)
	if group == nil {
		return nil, fmt.Errorf("no ai provider configured")
	}
	return ai.NewContinuer(group, ai.ContinuerConfig{
		Timeout:        cfg.Timeout(),
		PromptTemplate: cfg.PromptTemplate,
		Raw:            cfg.Raw,
	}), nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logger := logutil.GetLogger(context.Background())
	logger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("document", cfg.Document.Path),
		zap.String("transport", cfg.Transport.Type),
		zap.Int("providers", len(cfg.AI.Providers)),
	)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := loadDocument(signalCtx, cfg)
	if err != nil {
		return err
	}
	curated, report := curateSeeds(cfg, doc, nil)
	logger.Info("seed sequence built",
		zap.String("document", doc.Name),
		zap.Int("pages", report.Pages),
		zap.Int("candidates", report.Candidates),
		zap.Int("seeds", len(curated)),
	)

	generator, err := buildGenerator(cfg.AI)
	if err != nil {
		return err
	}
	tr, err := transport.New(cfg.Transport.Type, cfg.Transport.Data)
	if err != nil {
		return fmt.Errorf("init transport: %w", err)
	}

	sessionRepo := repo.NewSessionRepo(conn)
	postRepo := repo.NewPostRepo(conn)
	budget := uptime.NewBudget(cfg.Posting.RestartAfter())

	rootCtx, cancelRoot := context.WithCancel(signalCtx)
	defer cancelRoot()

	bot := service.NewBotService(rootCtx, doc.Name, service.BotDeps{
		Seeds:     rotation.Build(curated, nil),
		Report:    report,
		Generator: generator,
		Transport: tr,
		Params:    params.NewStore(sessionRepo, cfg.ParamsCache.Size, cfg.ParamsCache.TTL()),
		Sessions:  sessionRepo,
		Posts:     postRepo,
		Restart:   budget,
		Interval: poster.Interval{
			Min: cfg.Posting.MinInterval(),
			Max: cfg.Posting.MaxInterval(),
		},
	})

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewRestartWatchJob(budget), cfg.Posting.RestartCheckSpec); err != nil {
		return fmt.Errorf("schedule restart watch: %w", err)
	}
	if err := scheduler.AddJob(job.NewPostHistoryCleanupJob(postRepo, cfg.History.KeepDays), cfg.History.CleanupSpec); err != nil {
		return fmt.Errorf("schedule history cleanup: %w", err)
	}
	scheduler.Start(rootCtx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Sessions:      handler.NewSessionHandler(bot),
		Health:        handler.NewHealthHandler(budget, scheduler, func() int { return bot.SeedStats().Seeds }),
		JWTSecret:     []byte(cfg.JWTSecret),
		Authorizer:    authz.NewAllowList(cfg.Admins),
		ReplyCooldown: cfg.Posting.ReplyCooldown(),
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logger.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	if err := bot.Resume(rootCtx); err != nil {
		logger.Error("resume sessions failed", zap.Error(err))
	}

	restart := false
	select {
	case <-signalCtx.Done():
		logger.Info("server stopping...")
	case <-budget.Requested():
		restart = true
		logger.Info("uptime budget spent, server stopping for restart", zap.Duration("uptime", budget.Uptime()))
	}
	cancelRoot()
	bot.Wait()
	if restart {
		return errRestartRequested
	}
	return nil
}
