// Package event provides event publisher implementations for local use.
package event

import (
	"context"

	"github.com/rs/zerolog/log"

	"bakehouse/internal/core"
)

// LogPublisher writes events to the structured log instead of a broker. It is
// the default when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev core.Event) error {
	log.Info().
		Str("event_id", ev.ID.String()).
		Str("event_type", string(ev.Type)).
		Time("occurred_at", ev.OccurredAt).
		Interface("payload", ev.Payload).
		Msg("event published")
	return nil
}
