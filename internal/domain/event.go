package domain

import "time"

// Event is a decoded container lifecycle event from the daemon's event
// stream. The daemon emits both the legacy top-level status/id fields and
// the structured Action/Actor form; either may be populated depending on
// the daemon version.
type Event struct {
	Status string     `json:"status"`
	ID     string     `json:"id"`
	Type   string     `json:"Type"`
	Action string     `json:"Action"`
	Actor  EventActor `json:"Actor"`
	Time   int64      `json:"time"`
}

// EventActor identifies the object an event refers to.
type EventActor struct {
	ID         string            `json:"ID"`
	Attributes map[string]string `json:"Attributes"`
}

// Kind returns the event action, preferring the structured form.
func (e Event) Kind() string {
	if e.Action != "" {
		return e.Action
	}
	return e.Status
}

// ContainerID returns the subject container identifier, preferring the
// structured form.
func (e Event) ContainerID() string {
	if e.Actor.ID != "" {
		return e.Actor.ID
	}
	return e.ID
}

// ContainerName returns the subject container name when the daemon
// included it in the actor attributes.
func (e Event) ContainerName() string {
	return e.Actor.Attributes["name"]
}

// OccurredAt converts the event timestamp, zero when absent.
func (e Event) OccurredAt() time.Time {
	if e.Time == 0 {
		return time.Time{}
	}
	return time.Unix(e.Time, 0).UTC()
}
