// Package importer implements the bulk profile import pipeline: decoding
// legacy dumps, extracting account records, reconciling referenced entities
// and upserting accounts. Records are independent; one bad record never
// aborts the batch.
package importer

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/internal/repositories/account"
	"github.com/asterhq/aster/internal/repositories/social"
	"github.com/asterhq/aster/internal/repositories/tag"
	"github.com/asterhq/aster/pkg/database"
	"github.com/asterhq/aster/pkg/metrics"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
)

// MediaProvisioner prepares the per-account media directory after a
// successful import. Provisioning is best effort; a storage failure is
// logged, not surfaced as a record failure.
type MediaProvisioner interface {
	CreateDirectory(ctx context.Context, name string) error
}

// EventEmitter publishes account lifecycle events after a record commits.
type EventEmitter interface {
	AccountImported(ctx context.Context, account *models.Account)
}

// Failure describes one record that could not be imported.
type Failure struct {
	Index         int    `json:"index"`
	Identificator string `json:"identificator"`
	Reason        string `json:"reason"`
}

// Result summarises a dump import.
type Result struct {
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
	Failures []Failure `json:"failures,omitempty"`
}

// Importer runs dumps through the pipeline sequentially. Each record gets
// its own transaction so a failed record rolls back completely while the
// rest of the batch proceeds.
type Importer struct {
	db         database.DB
	accounts   account.AccountRepository
	tags       tag.TagRepository
	socials    social.SocialRepository
	reconciler *Reconciler
	media      MediaProvisioner
	events     EventEmitter
	policy     MissingDatePolicy
	logger     ectologger.Logger
}

func NewImporter(
	db database.DB,
	accounts account.AccountRepository,
	tags tag.TagRepository,
	socials social.SocialRepository,
	reconciler *Reconciler,
	media MediaProvisioner,
	events EventEmitter,
	policy MissingDatePolicy,
	logger ectologger.Logger,
) *Importer {
	if policy != MissingDateNull {
		policy = MissingDateNow
	}

	return &Importer{
		db:         db,
		accounts:   accounts,
		tags:       tags,
		socials:    socials,
		reconciler: reconciler,
		media:      media,
		events:     events,
		policy:     policy,
		logger:     logger,
	}
}

// Run imports a raw dump. It returns an error only when the dump as a whole
// is unusable (empty or without a single record); per-record problems are
// reported in the result.
func (i *Importer) Run(ctx context.Context, data []byte) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "Importer.Run")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.ImportDuration.Observe(time.Since(start).Seconds())
	}()

	text, err := Decode(data)
	if err != nil {
		return nil, err
	}

	records, err := Extract(text)
	if err != nil {
		return nil, err
	}

	i.logger.WithContext(ctx).WithFields(map[string]any{
		"records": len(records),
	}).Info("starting dump import")

	result := &Result{}

	for idx, rec := range records {
		if rec.Identificator() == "" {
			result.Skipped++
			metrics.ImportRecordsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
			continue
		}

		stored, err := i.importRecord(ctx, rec)
		if err != nil {
			result.Failures = append(result.Failures, Failure{
				Index:         idx,
				Identificator: rec.Identificator(),
				Reason:        err.Error(),
			})
			metrics.ImportRecordsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
			i.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"index":         idx,
				"identificator": rec.Identificator(),
			}).Warn("record import failed")
			continue
		}

		result.Imported++
		metrics.ImportRecordsTotal.WithLabelValues(metrics.OutcomeImported).Inc()

		if i.media != nil {
			if err := i.media.CreateDirectory(ctx, stored.Identificator); err != nil {
				i.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"identificator": stored.Identificator,
				}).Warn("failed to provision media directory")
			}
		}

		if i.events != nil {
			i.events.AccountImported(ctx, stored)
		}
	}

	i.logger.WithContext(ctx).WithFields(map[string]any{
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"failed":   len(result.Failures),
		"duration": time.Since(start).String(),
	}).Info("finished dump import")

	return result, nil
}

// importRecord reconciles and upserts a single record inside its own
// transaction.
func (i *Importer) importRecord(ctx context.Context, rec *RawRecord) (*models.Account, error) {
	ctx, span := tracing.StartSpan(ctx, "Importer.importRecord")
	defer span.End()

	ctx, tx, err := i.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cityID, err := i.reconciler.ResolveCity(ctx, rec)
	if err != nil {
		return nil, err
	}

	tagIDs, err := i.reconciler.ResolveTags(ctx, rec)
	if err != nil {
		return nil, err
	}

	socialIDs, err := i.reconciler.ResolveSocials(ctx, rec)
	if err != nil {
		return nil, err
	}

	row := BuildAccount(rec, i.policy, time.Now().UTC())
	row.CityID = cityID

	stored, err := i.accounts.Upsert(ctx, row)
	if err != nil {
		return nil, err
	}

	for _, tagID := range tagIDs {
		if err := i.tags.AttachToAccount(ctx, stored.ID, tagID); err != nil {
			return nil, err
		}
	}

	for _, socialID := range socialIDs {
		if err := i.socials.AttachToAccount(ctx, stored.ID, socialID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return stored, nil
}
