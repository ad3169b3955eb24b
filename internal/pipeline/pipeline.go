package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/chinjsg/csv-extractor/internal/domain"
	"github.com/chinjsg/csv-extractor/internal/observability"
)

// Lister returns the upstream daily report directory.
type Lister interface {
	ListDirectory(ctx context.Context) ([]domain.DirEntry, error)
}

// Fetcher downloads one upstream daily report.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Transformer turns a parsed source file into the rows to write.
type Transformer interface {
	Transform(ctx context.Context, file domain.SourceFile) (domain.Batch, error)
}

// Loader receives each batch after it has been written to the output file.
type Loader interface {
	Name() string
	Load(ctx context.Context, batch domain.Batch) error
}

// Output is the local CSV file the extractor generates or updates.
type Output interface {
	Create(header domain.Row) (domain.RowSink, error)
	Append() (domain.RowSink, error)
	State() (domain.OutputState, error)
}

// Result summarizes one run.
type Result struct {
	Files    int
	Rows     int
	LastDate string
	UpToDate bool
}

// Pipeline orchestrates list, fetch, transform and load, one file at a time.
type Pipeline struct {
	lister      Lister
	fetcher     Fetcher
	transformer Transformer
	output      Output
	header      domain.Row
	mirrors     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline. header is written when generating a fresh output
// file; mirrors receive every batch after the output file does.
func New(l Lister, f Fetcher, t Transformer, o Output, header domain.Row, logger *slog.Logger, metrics *observability.Metrics, mirrors ...Loader) *Pipeline {
	return &Pipeline{
		lister:      l,
		fetcher:     f,
		transformer: t,
		output:      o,
		header:      header,
		mirrors:     mirrors,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once the pipeline has processed at least one file.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any files yet")
	}
	return nil
}

// ListFiles returns the upstream csv filenames in chronological order.
func (p *Pipeline) ListFiles(ctx context.Context) ([]string, error) {
	entries, err := p.lister.ListDirectory(ctx)
	if err != nil {
		p.metrics.RunErrors.WithLabelValues("list").Inc()
		return nil, err
	}
	names, err := domain.CSVFilenames(entries)
	if err != nil {
		p.metrics.RunErrors.WithLabelValues("list").Inc()
		return nil, err
	}
	p.metrics.FilesListed.Set(float64(len(names)))
	p.logger.Info("upstream files listed", "entries", len(entries), "files", len(names))
	return names, nil
}

// Generate recreates the output file and ingests every upstream file.
func (p *Pipeline) Generate(ctx context.Context) (Result, error) {
	names, err := p.ListFiles(ctx)
	if err != nil {
		return Result{}, err
	}

	sink, err := p.output.Create(p.header)
	if err != nil {
		return Result{}, err
	}
	return p.run(ctx, sink, names)
}

// Update appends only the upstream files dated after the last row of the
// existing output file. A header-only file is treated as holding no dates,
// and an empty file gets its header written first.
func (p *Pipeline) Update(ctx context.Context) (Result, error) {
	names, err := p.ListFiles(ctx)
	if err != nil {
		return Result{}, err
	}

	state, err := p.output.State()
	if err != nil {
		return Result{}, err
	}
	if !state.Header {
		p.logger.Warn("output file is empty, writing header before ingesting")
		sink, err := p.output.Create(p.header)
		if err != nil {
			return Result{}, err
		}
		return p.run(ctx, sink, names)
	}
	if state.Ingested() {
		plan, err := domain.PlanResume(state.LastDate, names)
		if err != nil {
			return Result{}, err
		}
		if plan.UpToDate() {
			p.logger.Info("output already up to date", "last_date", plan.LastDate)
			return Result{LastDate: plan.LastDate, UpToDate: true}, nil
		}
		p.logger.Info("resuming after last recorded date", "last_date", plan.LastDate, "pending", len(plan.Pending))
		names = plan.Pending
	}

	sink, err := p.output.Append()
	if err != nil {
		return Result{}, err
	}
	return p.run(ctx, sink, names)
}

func (p *Pipeline) run(ctx context.Context, sink domain.RowSink, names []string) (res Result, err error) {
	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := p.processFile(ctx, sink, name)
		if err != nil {
			return res, fmt.Errorf("%s: %w", name, err)
		}
		res.Files++
		res.Rows += n
		res.LastDate = domain.TrimExt(name)
	}
	return res, nil
}

// processFile fetches, parses, transforms and loads one file and returns the
// number of rows written.
func (p *Pipeline) processFile(ctx context.Context, sink domain.RowSink, name string) (int, error) {
	start := domain.Now()

	data, err := p.fetcher.Fetch(ctx, name)
	if err != nil {
		p.metrics.RunErrors.WithLabelValues("fetch").Inc()
		return 0, err
	}
	p.metrics.FetchDuration.Observe(domain.Now().Sub(start).Seconds())

	records, err := parseCSV(data)
	if err != nil {
		p.metrics.RunErrors.WithLabelValues("parse").Inc()
		return 0, err
	}
	if len(records) == 0 {
		p.logger.Warn("empty upstream file, skipping", "file", name)
		return 0, nil
	}

	file, err := domain.NewSourceFile(name, records)
	if err != nil {
		p.metrics.RunErrors.WithLabelValues("parse").Inc()
		return 0, err
	}

	batch, err := p.transformer.Transform(ctx, file)
	if err != nil {
		p.metrics.RunErrors.WithLabelValues("transform").Inc()
		return 0, err
	}
	p.metrics.RowsScanned.Add(float64(batch.Scanned))
	p.metrics.RowsMatched.Add(float64(len(batch.Rows)))

	if err := p.load(ctx, sink, batch); err != nil {
		p.metrics.RunErrors.WithLabelValues("load").Inc()
		return 0, err
	}

	p.metrics.FilesProcessed.Inc()
	p.metrics.FileProcessingDuration.Observe(domain.Now().Sub(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("file processed",
		"file", name,
		"columns", len(file.Header),
		"scanned", batch.Scanned,
		"rows", len(batch.Rows),
	)
	return len(batch.Rows), nil
}

func (p *Pipeline) load(ctx context.Context, sink domain.RowSink, batch domain.Batch) error {
	if len(batch.Rows) == 0 {
		return nil
	}
	if err := sink.Load(ctx, batch); err != nil {
		return fmt.Errorf("%s sink: %w", sink.Name(), err)
	}
	p.metrics.RowsWritten.WithLabelValues(sink.Name()).Add(float64(len(batch.Rows)))

	for _, m := range p.mirrors {
		if err := m.Load(ctx, batch); err != nil {
			return fmt.Errorf("%s mirror: %w", m.Name(), err)
		}
		p.metrics.RowsWritten.WithLabelValues(m.Name()).Add(float64(len(batch.Rows)))
	}
	return nil
}

// parseCSV reads a comma-delimited, quote-aware document. A leading UTF-8
// byte order mark is dropped and rows may vary in width.
func parseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}
