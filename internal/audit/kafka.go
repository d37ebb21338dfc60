package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes every audit event to a topic so downstream compliance
// consumers can materialize their own views. Produce errors are logged, never
// surfaced; the local store remains the source of truth for queries.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaSink(client *kgo.Client, topic string, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{client: client, topic: topic, logger: logger}
}

type kafkaPayload struct {
	ActorID   string `json:"actor_id"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (s *KafkaSink) Publish(ctx context.Context, event Event) {
	value, err := json.Marshal(kafkaPayload{
		ActorID:   event.ActorID.String(),
		Action:    string(event.Action),
		Detail:    event.Detail,
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "audit kafka marshal failed", "error", err)
		}
		return
	}

	record := &kgo.Record{Topic: s.topic, Key: []byte(event.ActorID.String()), Value: value}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && s.logger != nil {
			s.logger.Error("audit kafka produce failed",
				"action", string(event.Action), "error", err)
		}
	})
}

// EnsureTopic creates the audit topic when it does not exist yet. Called once
// at startup; an already-exists response is not an error.
func EnsureTopic(ctx context.Context, adm *kadm.Client, topic string) error {
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return err
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return r.Err
		}
	}
	return nil
}
