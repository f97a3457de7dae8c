package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"complaintsync/internal/browser"
	"complaintsync/internal/config"
	apperrors "complaintsync/internal/errors"
	"complaintsync/internal/interpret"
	"complaintsync/internal/notify"
	"complaintsync/internal/pipeline"
	"complaintsync/internal/portal"
	"complaintsync/internal/report"
	"complaintsync/internal/sheet"
)

// run performs one harvesting pass. It returns an error only when the run
// could not be set up (session or store) or was interrupted.
func run(ctx context.Context, cfg *config.Config) error {
	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID))
	tg := notify.New(cfg.TelegramBotToken, cfg.TelegramChatID, notify.WithLogger(log.Named("telegram")))

	log.Info("starting complaint sync",
		zap.String("outlets", outletList(cfg.OutletIDs)),
		zap.String("provider", cfg.InterpretProvider),
		zap.Bool("dry_run", cfg.DryRun),
	)

	// Store
	table, err := sheet.Open(ctx, sheet.Options{
		CredentialsFile: cfg.CredentialsFile,
		SpreadsheetID:   cfg.SpreadsheetID,
		SpreadsheetName: cfg.SpreadsheetName,
		Worksheet:       cfg.WorksheetName,
		Logger:          log.Named("sheet"),
	})
	if err != nil {
		return abort(ctx, tg, log, "Store", apperrors.NewStoreError("open spreadsheet", err))
	}
	if !cfg.DryRun {
		if err := table.EnsureHeader(ctx); err != nil {
			return abort(ctx, tg, log, "Store", apperrors.NewStoreError("write header row", err))
		}
	}
	writer := sheet.NewWriter(table, cfg.DryRun, log.Named("sheet"))

	// Interpreter
	model, err := newModel(cfg)
	if err != nil {
		return err
	}
	interp := interpret.New(model,
		interpret.WithRateLimit(cfg.InterpretRPM),
		interpret.WithTimeout(cfg.InterpretTimeout),
		interpret.WithLogger(log.Named("interpret")),
	)

	// Browser session and portal
	session, err := browser.NewSession(ctx, browser.Options{
		Headless:         cfg.Headless,
		UserDataDir:      cfg.UserDataDir,
		ExecPath:         cfg.ChromePath,
		StorageStatePath: cfg.StorageStatePath,
		Logger:           log.Named("browser"),
	})
	if err != nil {
		return abort(ctx, tg, log, "Session", err)
	}
	defer session.Close()

	policy := func(timeout time.Duration) portal.WaitPolicy {
		return portal.WaitPolicy{Timeout: timeout, Interval: cfg.PollInterval, MaxInterval: cfg.PollMaxInterval}
	}
	nav := portal.New(session.Context(), portal.Options{
		PortalURL:               cfg.PortalURL,
		Selectors:               portal.Selectors(cfg.Selectors),
		NavigationTimeout:       cfg.NavigationTimeout,
		Select:                  policy(cfg.SelectTimeout),
		List:                    policy(cfg.ListTimeout),
		Detail:                  policy(cfg.DetailTimeout),
		Close:                   policy(cfg.CloseTimeout),
		ReloadBetweenComplaints: cfg.ReloadBetweenComplaints,
		Logger:                  log.Named("portal"),
	})
	if err := nav.Open(ctx); err != nil {
		return abort(ctx, tg, log, "Session", apperrors.NewSessionError("open portal inbox", err))
	}

	// Pipeline
	orch := pipeline.New(nav, interp, writer, pipeline.WithLogger(log.Named("pipeline")))
	summary, runErr := orch.Run(ctx, cfg.OutletIDs)
	if summary == nil {
		return abort(ctx, tg, log, "Store", runErr)
	}
	if runErr != nil {
		log.Warn("run interrupted", zap.Error(runErr))
	}

	publish(context.WithoutCancel(ctx), cfg, tg, log, runID, summary)
	return runErr
}

func newModel(cfg *config.Config) (interpret.Model, error) {
	switch cfg.InterpretProvider {
	case config.ProviderGemini:
		return interpret.NewGeminiModel(cfg.GeminiAPIKey, cfg.GeminiModel), nil
	case config.ProviderAnthropic:
		return interpret.NewAnthropicModel(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	default:
		return nil, eris.Errorf("unknown INTERPRET_PROVIDER %q", cfg.InterpretProvider)
	}
}

// abort logs a fatal setup failure and alerts Telegram before returning it.
func abort(ctx context.Context, tg *notify.Client, log *zap.Logger, kind string, err error) error {
	log.Error("fatal error, aborting run",
		zap.String("kind", kind),
		zap.Bool("fatal", apperrors.IsFatal(err)),
		zap.Error(err),
	)
	if aerr := tg.SendCriticalAlert(context.WithoutCancel(ctx), kind+" failure", err); aerr != nil {
		log.Warn("critical alert not sent", zap.Error(aerr))
	}
	return err
}

// publish renders the appended rows and sends the run summary.
func publish(ctx context.Context, cfg *config.Config, tg *notify.Client, log *zap.Logger, runID string, summary *pipeline.Summary) {
	var image []byte
	if len(summary.Appended) > 0 {
		title := fmt.Sprintf("New complaints  %s", time.Now().Format("02 Jan 2006, 03:04 PM"))
		png, err := report.RenderTable(summary.Appended, title)
		if err != nil {
			log.Warn("summary image not rendered", zap.Error(err))
		} else {
			image = png
		}
	}

	if image != nil && cfg.SummaryImagePath != "" {
		if err := os.WriteFile(cfg.SummaryImagePath, image, 0o644); err != nil {
			log.Warn("summary image not written", zap.String("path", cfg.SummaryImagePath), zap.Error(err))
		} else {
			log.Info("summary image written", zap.String("path", cfg.SummaryImagePath))
		}
	}

	err := tg.SendRunSummary(ctx, notify.RunReport{
		RunID:    runID,
		Summary:  summary.Text(),
		Appended: len(summary.Appended),
		Image:    image,
	})
	if err != nil {
		log.Warn("run summary not sent", zap.Error(err))
	}
}
