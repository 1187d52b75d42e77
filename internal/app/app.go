// Package app assembles configuration, infrastructure and use cases into a
// runnable service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"TubeScribe/internal/config"
	"TubeScribe/internal/domain"
	"TubeScribe/internal/httpapi"
	"TubeScribe/internal/infrastructure/llm"
	"TubeScribe/internal/infrastructure/storage"
	"TubeScribe/internal/infrastructure/store"
	"TubeScribe/internal/infrastructure/transcribe"
	"TubeScribe/internal/infrastructure/youtube"
	"TubeScribe/internal/logging"
	"TubeScribe/internal/ports"
	"TubeScribe/internal/refine"
	"TubeScribe/internal/usecase"
	"TubeScribe/internal/validate"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	orchestrator *usecase.Orchestrator
	server       *httpapi.Server
	validator    *validate.Validator
	refiner      *refine.Refiner
	closers      []func()
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	jobStore, err := a.buildStore()
	if err != nil {
		return nil, err
	}

	var archive ports.ArticleArchive
	if cfg.Database.DSN != "" {
		pg, err := storage.Open(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open article archive: %w", err)
		}
		a.closers = append(a.closers, func() { _ = pg.Close() })
		archive = pg
	}

	scorer := llm.NewClient(backendFor(cfg.Backends, cfg.Backends.Scorer))
	writer := llm.NewClient(backendFor(cfg.Backends, cfg.Backends.Writer))
	reviewer := llm.NewClient(backendFor(cfg.Backends, cfg.Backends.Reviewer))

	limits := validate.Limits{
		MinWords: cfg.Generation.MinWords,
		MaxWords: cfg.Generation.MaxWords,
	}
	a.validator = validate.New(limits)
	a.refiner = refine.New(reviewer, a.validator, cfg.Generation.RetryBudget,
		baseLogger.With("component", "refiner"))

	a.orchestrator = usecase.New(usecase.Deps{
		Store:       jobStore,
		Fetcher:     youtube.NewFetcher(&http.Client{Timeout: 30 * time.Second}, cfg.Media),
		Transcriber: transcribe.NewClient(cfg.Transcribe),
		Scorer:      scorer,
		Writer:      writer,
		Refiner:     a.refiner,
		Saver:       storage.NewFileSaver(cfg.Generation.OutputDirectory),
		Archive:     archive,
		ScoreScale:  scorer.ScoreScale(),
		Limits:      limits,
		Timeouts:    cfg.Timeouts,
		Attempts:    cfg.Generation.RetryBudget,
		Logger:      baseLogger.With("component", "orchestrator"),
	})

	a.server = httpapi.NewServer(cfg.Server.Address, a.orchestrator,
		baseLogger.With("component", "httpapi"))
	return a, nil
}

func (a *Application) buildStore() (ports.JobStore, error) {
	switch a.cfg.Store.Backend {
	case "redis":
		rs := store.NewRedisStore(a.cfg.Store.Redis, a.cfg.Store.Retention())
		if err := rs.Ping(context.Background()); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rs.Close() })
		return rs, nil
	default:
		ms := store.NewMemoryStore(a.cfg.Store.Retention())
		a.closers = append(a.closers, ms.Close)
		return ms, nil
	}
}

func backendFor(backends config.BackendsConfig, name string) config.BackendConfig {
	if name == config.BackendOpenAI {
		return backends.OpenAI
	}
	return backends.DeepSeek
}

// Serve runs the HTTP API until the context is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

// RunOnce submits a single topic and blocks until the job finishes,
// returning an error when it fails.
func (a *Application) RunOnce(ctx context.Context, topic string, mode domain.Mode) (domain.Job, error) {
	id, err := a.orchestrator.Submit(ctx, topic, mode)
	if err != nil {
		return domain.Job{}, err
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return domain.Job{}, ctx.Err()
		case <-ticker.C:
		}

		job, err := a.orchestrator.GetStatus(ctx, id)
		if err != nil {
			return domain.Job{}, err
		}

		a.logger.Info("job progress", "progress", job.Progress, "message", job.Message)
		if job.Status.Terminal() {
			if job.Status == domain.StatusFailed {
				return job, fmt.Errorf("%s", job.Message)
			}
			return job, nil
		}
	}
}

// ReviewFile validates an existing article file. With fix set, an invalid
// article goes through the refiner and the repaired text is written back.
func (a *Application) ReviewFile(ctx context.Context, path string, fix bool) (domain.ValidationReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("read article: %w", err)
	}

	article := string(raw)
	report := a.validator.Check(article)
	if report.IsValid || !fix {
		return report, nil
	}

	repaired, report := a.refiner.Refine(ctx, article)
	if repaired != article {
		if err := os.WriteFile(path, []byte(repaired), 0o644); err != nil {
			return report, fmt.Errorf("write repaired article: %w", err)
		}
	}
	return report, nil
}

// Close releases held resources.
func (a *Application) Close() {
	for _, closer := range a.closers {
		closer()
	}
}
