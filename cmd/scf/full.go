package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/scfnet/scf-engine/internal/alerts"
	"github.com/scfnet/scf-engine/internal/config"
	"github.com/scfnet/scf-engine/internal/dashboard"
	"github.com/scfnet/scf-engine/internal/detector"
	"github.com/scfnet/scf-engine/internal/exit"
	"github.com/scfnet/scf-engine/internal/executor"
	"github.com/scfnet/scf-engine/internal/feature"
	"github.com/scfnet/scf-engine/internal/health"
	"github.com/scfnet/scf-engine/internal/ingest"
	"github.com/scfnet/scf-engine/internal/parser"
	"github.com/scfnet/scf-engine/internal/resolve"
	"github.com/scfnet/scf-engine/internal/shadow"
	"github.com/scfnet/scf-engine/internal/solana"
	"github.com/scfnet/scf-engine/internal/store"
	"github.com/scfnet/scf-engine/internal/supervisor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func fullCmd() *cobra.Command {
	var execMode string

	cmd := &cobra.Command{
		Use:   "full",
		Short: "Run the full pipeline: ingest, resolve, parse, feature, detect, execute, exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch execMode {
			case "paper", "live", "none":
			default:
				return fmt.Errorf("full: --exec must be one of paper, live, none (got %q)", execMode)
			}
			return runFull(cmd.Context(), execMode)
		},
	}
	cmd.Flags().StringVar(&execMode, "exec", "paper", "execution mode: paper, live, or none (detect-only)")
	return cmd
}

func runFull(ctx context.Context, execMode string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base := logrus.New()
	log := logrus.NewEntry(base)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.Connect(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("full: connecting to db: %w", err)
	}
	defer st.Close()
	if err := st.InitSchema(ctx); err != nil {
		return fmt.Errorf("full: applying schema: %w", err)
	}

	rpc := solana.NewHTTPClient(cfg.RPCHTTP)

	in := ingest.New(st, cfg.RPCWS, cfg.Programs, log.WithField("component", "ingest"))
	res := resolve.New(st, rpc, cfg.ResolvePollInterval, cfg.ParserBatch, log.WithField("component", "resolve"))
	swapParser := parser.NewSwapParser(st, cfg.Programs, cfg.ParserBatch, log.WithField("component", "parser.swap"))
	lpParser := parser.NewLpParser(st, cfg.Programs, cfg.ParserBatch, log.WithField("component", "parser.lp"))
	authParser := parser.NewAuthorityParser(st, cfg.Programs, cfg.ParserBatch, log.WithField("component", "parser.authority"))
	featureWorker := feature.New(st, cfg.DetectorPollInterval, log.WithField("component", "feature"))

	am := alerts.New(cfg.WebhookURL, log.WithField("component", "alerts"))
	handler := dashboard.NewHandler(st, am, log.WithField("component", "dashboard"))

	det := detector.New(st, cfg.Thresholds, cfg.DetectorPollInterval, cfg.DetectorDedupSec, log.WithField("component", "detector"))
	det.OnSignal(am.EmitSignal)

	shadowThresholds := cfg.Thresholds
	shadowThresholds.VCMax = shadowThresholds.VCMax.Mul(cfg.ShadowVCMultiplier)
	shadowRunner := shadow.New(st, cfg.Thresholds, shadowThresholds, cfg.DetectorPollInterval, log.WithField("component", "shadow"))

	healthTicker := health.New(st, cfg.HealthInterval, log.WithField("component", "health"))

	specs := []supervisor.WorkerSpec{
		{Name: "ingest", Run: in.Run},
		{Name: "resolve", Run: res.Run},
		{Name: "parser.swap", Run: func(ctx context.Context) error { return swapParser.Run(ctx, cfg.ParserPollInterval) }},
		{Name: "parser.lp", Run: func(ctx context.Context) error { return lpParser.Run(ctx, cfg.ParserPollInterval) }},
		{Name: "parser.authority", Run: func(ctx context.Context) error { return authParser.Run(ctx, cfg.ParserPollInterval) }},
		{Name: "feature", Run: featureWorker.Run},
		{Name: "detector", Run: det.Run},
		{Name: "shadow", Run: shadowRunner.Run},
		{Name: "health", Run: healthTicker.Run},
	}

	if execMode != "none" {
		mode := executor.ModePaper
		if execMode == "live" {
			mode = executor.ModeLive
		}
		exec := executor.New(st, mode, cfg.ExecutorPollInterval, cfg.ExecutorWindowMin, cfg.ExecutorBatch, log.WithField("component", "executor"))
		specs = append(specs, supervisor.WorkerSpec{Name: "executor", Run: exec.Run})

		exitWorker := exit.New(st, cfg.ExitPollInterval, cfg.TPMult, cfg.SLMult, cfg.TPPartials, cfg.SLPartials, log.WithField("component", "exit"))
		exitWorker.OnExit(am.EmitExit)
		specs = append(specs, supervisor.WorkerSpec{Name: "exit", Run: exitWorker.Run})
	}

	sup := supervisor.New(log.WithField("component", "supervisor"), specs...)

	srv := &http.Server{Addr: cfg.DashboardAddr, Handler: handler.SetupRouter()}
	go func() {
		log.WithField("addr", cfg.DashboardAddr).Info("dashboard: listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("dashboard: server failed")
		}
	}()

	sup.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HealthInterval)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
