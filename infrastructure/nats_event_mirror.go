package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"pixeldesk/events"
)

// MessagePublisher sends raw bytes to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// PublishRecorder observes successful publishes
type PublishRecorder interface {
	RecordNATSPublished(eventType string)
}

// EventEnvelope wraps every mirrored event
type EventEnvelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"sourceService"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventMirror republishes committed domain events to NATS
type NATSEventMirror struct {
	publisher     MessagePublisher
	subjectMapper *EventSubjectMapper
	source        string
	recorder      PublishRecorder
	now           func() time.Time
}

// NewNATSEventMirror creates a mirror. recorder may be nil.
func NewNATSEventMirror(publisher MessagePublisher, subjectMapper *EventSubjectMapper, source string, recorder PublishRecorder) *NATSEventMirror {
	return &NATSEventMirror{
		publisher:     publisher,
		subjectMapper: subjectMapper,
		source:        source,
		recorder:      recorder,
		now:           time.Now,
	}
}

// Register subscribes the mirror to every event type on the bus
func (m *NATSEventMirror) Register(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		if err := m.Publish(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to mirror event to NATS")
		}
	})
}

// Publish wraps the event in an envelope and publishes it on its subject
func (m *NATSEventMirror) Publish(ctx context.Context, event events.Event) error {
	subject := m.subjectMapper.MapEventToSubject(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     string(event.Type()),
		Timestamp:     m.now().UTC(),
		SourceService: m.source,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := m.publisher.Publish(ctx, subject, data); err != nil {
		// The stream may not be provisioned yet
		if strings.Contains(err.Error(), "no response from stream") {
			log.WithField("subject", subject).Debug("No JetStream stream for subject, event dropped")
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if m.recorder != nil {
		m.recorder.RecordNATSPublished(string(event.Type()))
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Mirrored event to NATS")
	return nil
}
