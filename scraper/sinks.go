package scraper

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sodiqardianto/edlink-scrap/common/messaging"
	"github.com/sodiqardianto/edlink-scrap/common/services"
)

// StatusCacheSink mirrors the latest event of every session into the Redis
// status cache so clients can poll instead of streaming.
func StatusCacheSink(cache *services.StatusCache) func(ProgressEvent) {
	return func(event ProgressEvent) {
		status := services.SessionStatus{
			SessionID: event.SessionID,
			Status:    string(event.Status),
			Message:   event.Message,
		}
		if progress, ok := event.Data["progress"].(int); ok {
			status.Progress = progress
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.Set(ctx, status); err != nil {
			log.Warn().Err(err).Str("session_id", event.SessionID).Msg("Failed to cache session status")
		}
	}
}

// NatsMirrorSink publishes every event on the session's progress subject.
// Fire and forget; a dropped progress event is acceptable.
func NatsMirrorSink(broker *messaging.NatsBroker) func(ProgressEvent) {
	return func(event ProgressEvent) {
		payload, err := json.Marshal(event)
		if err != nil {
			return
		}
		subject := messaging.SubjectProgressPrefix + event.SessionID
		if err := broker.Publish(subject, payload); err != nil {
			log.Debug().Err(err).Str("subject", subject).Msg("Failed to mirror progress event")
		}
	}
}
