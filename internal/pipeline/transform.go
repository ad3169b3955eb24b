package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chinjsg/csv-extractor/internal/domain"
)

// CaseTransformer implements Transformer by filtering rows to the target
// jurisdictions and mapping them onto an output schema.
type CaseTransformer struct {
	targets domain.Targets
	schema  domain.OutputSchema
	logger  *slog.Logger
}

// NewTransformer creates a CaseTransformer.
func NewTransformer(targets domain.Targets, schema domain.OutputSchema, logger *slog.Logger) *CaseTransformer {
	return &CaseTransformer{
		targets: targets,
		schema:  schema,
		logger:  logger,
	}
}

func (t *CaseTransformer) Transform(_ context.Context, file domain.SourceFile) (domain.Batch, error) {
	mapper, err := t.schema.Bind(file.Header)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("header: %w", err)
	}

	batch := domain.Batch{
		Source:    file.Name,
		Date:      file.Date,
		Header:    t.schema.Header(),
		FetchedAt: file.FetchedAt,
	}
	for i, rec := range file.Records {
		batch.Scanned++

		ok, err := t.targets.Match(rec)
		if err != nil {
			return domain.Batch{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		if !ok {
			continue
		}

		row, err := mapper(rec, file.Date)
		if err != nil {
			return domain.Batch{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		batch.Rows = append(batch.Rows, row)
	}

	t.logger.Debug("file transformed", "file", file.Name, "matched", len(batch.Rows))
	return batch, nil
}
