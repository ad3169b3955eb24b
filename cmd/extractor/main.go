// Command extractor downloads the JHU CSSE COVID-19 daily reports, keeps the
// rows for the configured jurisdictions, and writes them to a local CSV file.
//
// Usage:
//
//	OUTPUT_FILE=cases.csv go run ./cmd/extractor
//
// Without MODE set, the command asks whether to generate a new file or
// update the existing one.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chinjsg/csv-extractor/internal/adapter/csvfile"
	"github.com/chinjsg/csv-extractor/internal/adapter/github"
	httpadapter "github.com/chinjsg/csv-extractor/internal/adapter/http"
	"github.com/chinjsg/csv-extractor/internal/adapter/kafka"
	"github.com/chinjsg/csv-extractor/internal/config"
	"github.com/chinjsg/csv-extractor/internal/domain"
	"github.com/chinjsg/csv-extractor/internal/observability"
	"github.com/chinjsg/csv-extractor/internal/pipeline"
	"github.com/google/uuid"
)

func main() {
	os.Exit(run(os.Stdin, os.Stdout, os.Stderr))
}

func run(stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()

	targets, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		logger.Error("failed to load targets", "error", err)
		return 1
	}
	schema, err := domain.SchemaByName(cfg.OutputSchema)
	if err != nil {
		logger.Error("invalid output schema", "error", err)
		return 1
	}

	mode := cfg.Mode
	if mode == config.ModePrompt {
		mode, err = promptMode(stdin, stdout)
		if err != nil {
			logger.Error("no run mode chosen", "error", err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := github.NewClient(cfg, logger)
	store := csvfile.NewStore(cfg.OutputFile)
	transformer := pipeline.NewTransformer(targets, schema, logger)

	var mirrors []pipeline.Loader
	if cfg.KafkaEnabled() {
		writer := kafka.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		mirrors = append(mirrors, writer)
		logger.Info("kafka mirror enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(client, client, transformer, store, schema.Header(), logger, metrics, mirrors...)

	if cfg.MetricsAddr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		srv := httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Serve(srvCtx, cfg.ShutdownTimeout); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	logger.Info("run starting",
		"mode", mode,
		"output", cfg.OutputFile,
		"schema", schema.Name(),
		"countries", targets.Countries(),
	)

	res, err := execute(ctx, p, mode)
	if err != nil {
		logger.Error("run failed", "error", err)
		fmt.Fprintln(stderr, describe(err))
		return 1
	}
	if res.UpToDate {
		fmt.Fprintln(stdout, "Already up to date")
		return 0
	}

	logger.Info("run complete", "files", res.Files, "rows", res.Rows, "last_date", res.LastDate)
	fmt.Fprintln(stdout, "Completed")
	return 0
}

// runner is the part of the pipeline the command drives.
type runner interface {
	Generate(ctx context.Context) (pipeline.Result, error)
	Update(ctx context.Context) (pipeline.Result, error)
}

func execute(ctx context.Context, r runner, mode string) (pipeline.Result, error) {
	switch mode {
	case config.ModeGenerate:
		return r.Generate(ctx)
	case config.ModeUpdate:
		return r.Update(ctx)
	default:
		return pipeline.Result{}, fmt.Errorf("unknown mode %q", mode)
	}
}

// describe turns a fatal run error into the message shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, github.ErrTimeout):
		return "Connection timeout: " + err.Error()
	case errors.Is(err, github.ErrTooManyRedirects):
		return "Bad URL. Check URL and retry: " + err.Error()
	case errors.Is(err, domain.ErrUnsupportedLayout):
		return "Upstream files use a column layout this program does not support and it needs to be updated: " + err.Error()
	case errors.Is(err, domain.ErrResumeState):
		return "The output file does not match the upstream files, generate a new file instead: " + err.Error()
	case errors.Is(err, csvfile.ErrNoOutput):
		return "There is no output file to update, generate a new file first: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "Interrupted, rows written so far were kept"
	default:
		return "An error occurred: " + err.Error()
	}
}
