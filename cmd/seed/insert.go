package main

import (
	"context"
	"fmt"
	"log/slog"

	"cityscope/internal/district/models"
	"cityscope/internal/district/normalize"
	"cityscope/internal/district/store/seed"
)

type catalogWriter interface {
	Insert(ctx context.Context, d *models.District, m models.Metrics) (*models.District, error)
}

// insertRecords writes records in file order. With deriveCodes each code is
// recomputed from the name, which repairs the legacy underscore codes.
func insertRecords(ctx context.Context, w catalogWriter, records []seed.Record, deriveCodes bool, log *slog.Logger) (int, error) {
	for i, rec := range records {
		d := rec.District()
		if deriveCodes {
			if derived := normalize.Code(d.Name); derived != d.Code {
				log.Info("code derived from name", "name", d.Name, "stored", d.Code, "derived", derived)
				d.Code = derived
			}
		}
		if _, err := w.Insert(ctx, d, rec.Metrics(0)); err != nil {
			return i, fmt.Errorf("insert %s: %w", d.Code, err)
		}
	}
	return len(records), nil
}
