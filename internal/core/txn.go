package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	txMaxAttempts  = 3
	txRetryBackoff = 25 * time.Millisecond
)

// UnitOfWork is one atomic command execution: a single transaction plus the
// events produced inside it. Events buffered here reach the publisher only
// after the transaction commits, never before.
type UnitOfWork struct {
	Tx     pgx.Tx
	events []Event
}

// Emit buffers an event for post-commit publication.
func (u *UnitOfWork) Emit(ev Event) {
	u.events = append(u.events, ev)
}

// Coordinator wraps each command in an all-or-nothing transaction, retries
// transient write conflicts with backoff, and hands the produced events to the
// publisher after commit.
type Coordinator struct {
	pool      *pgxpool.Pool
	publisher EventPublisher
}

func NewCoordinator(pool *pgxpool.Pool, publisher EventPublisher) *Coordinator {
	return &Coordinator{pool: pool, publisher: publisher}
}

// Run executes fn inside a transaction. Either every write fn performs
// commits, or none does. Serialization failures and deadlocks are retried up
// to txMaxAttempts with doubling backoff before surfacing as a conflict.
func (c *Coordinator) Run(ctx context.Context, fn func(ctx context.Context, uow *UnitOfWork) error) error {
	backoff := txRetryBackoff
	for attempt := 1; ; attempt++ {
		events, err := c.runOnce(ctx, fn)
		if err == nil {
			c.publish(ctx, events)
			return nil
		}
		if !retryableTxErr(err) {
			return err
		}
		if attempt >= txMaxAttempts {
			log.Warn().Err(err).Int("attempts", attempt).Msg("write conflict retry budget exhausted")
			return ConflictErr("command aborted after %d conflicting attempts, try again", attempt)
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("retrying command after write conflict")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
}

func (c *Coordinator) runOnce(ctx context.Context, fn func(ctx context.Context, uow *UnitOfWork) error) ([]Event, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	uow := &UnitOfWork{Tx: tx}
	if err := fn(ctx, uow); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return uow.events, nil
}

// publish is best-effort: a failed publish is logged and never rolls back or
// retries the committed business transaction.
func (c *Coordinator) publish(ctx context.Context, events []Event) {
	for _, ev := range events {
		if err := c.publisher.Publish(ctx, ev); err != nil {
			log.Error().Err(err).
				Str("event_id", ev.ID.String()).
				Str("event_type", string(ev.Type)).
				Msg("event publish failed")
		}
	}
}

// retryableTxErr reports whether err is a transient conflict worth retrying:
// a serialization failure or a deadlock detected by Postgres.
func retryableTxErr(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}
