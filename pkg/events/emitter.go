// Package events emits account lifecycle events. Emission is best effort:
// a broker outage is logged and counted, never surfaced to the caller,
// because the database write has already committed.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/kafka"
	"github.com/asterhq/aster/pkg/metrics"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
)

// Event types.
const (
	TypeAccountImported = "account.imported"
	TypeAccountUpdated  = "account.updated"
	TypeAccountDeleted  = "account.deleted"
)

// Emitter publishes account lifecycle events. A nil producer disables
// emission, which is how deployments without Kafka run.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// AccountImported emits an account.imported event after an import commit.
func (e *Emitter) AccountImported(ctx context.Context, account *models.Account) {
	e.emit(ctx, TypeAccountImported, account)
}

// AccountUpdated emits an account.updated event after an admin edit.
func (e *Emitter) AccountUpdated(ctx context.Context, account *models.Account) {
	e.emit(ctx, TypeAccountUpdated, account)
}

// AccountDeleted emits an account.deleted event.
func (e *Emitter) AccountDeleted(ctx context.Context, accountID int, identificator string) {
	e.emit(ctx, TypeAccountDeleted, &models.Account{ID: accountID, Identificator: identificator})
}

func (e *Emitter) emit(ctx context.Context, eventType string, account *models.Account) {
	if e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	event := &kafka.AccountEvent{
		EventType:     eventType,
		AccountID:     account.ID,
		Identificator: account.Identificator,
		Name:          account.Name,
		CityID:        account.CityID,
		DateOfCreate:  account.DateOfCreate,
	}

	if err := e.producer.PublishAccountEvent(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type":    eventType,
			"identificator": account.Identificator,
		}).Warn("failed to publish account event")
		return
	}

	metrics.EventsPublishedTotal.WithLabelValues(eventType, "ok").Inc()
}
