package infrastructure

import (
	"fmt"

	"pixeldesk/events"
)

// DomainEventStream is the JetStream stream that carries mirrored events
const DomainEventStream = "pixeldesk_events"

var subjects = map[events.EventType]string{
	events.EventTypePointsChanged:      "points.changed",
	events.EventTypeWorkstationBound:   "workstations.bound",
	events.EventTypeWorkstationUnbound: "workstations.unbound",
	events.EventTypeBindingReclaimed:   "workstations.reclaimed",
	events.EventTypeInactivityWarning:  "workstations.warned",
	events.EventTypeSweepCompleted:     "sweeps.completed",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	all := make([]string, 0, len(subjects))
	for _, eventType := range events.AllEventTypes() {
		all = append(all, subjects[eventType])
	}
	return all
}
