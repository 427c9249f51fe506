package track

// EventType identifies what changed on a track.
type EventType string

const (
	// EventTrackOpened is published when a track is created.
	EventTrackOpened EventType = "track.opened"
	// EventTrackReady is published when extraction succeeds.
	EventTrackReady EventType = "track.ready"
	// EventTrackFailed is published when extraction fails.
	EventTrackFailed EventType = "track.failed"
	// EventTrackClosed is published when a track is removed.
	EventTrackClosed EventType = "track.closed"
	// EventPositionChanged is published when the playhead moves.
	EventPositionChanged EventType = "position.changed"
	// EventSelectionChanged is published when the selected region changes.
	EventSelectionChanged EventType = "selection.changed"
	// EventChaptersChanged is published when chapter marks change.
	EventChaptersChanged EventType = "chapters.changed"
)

// Selection is a selected time region in seconds.
type Selection struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Event describes a track state change for broadcast to frontends.
// Only the fields relevant to the event type are set.
type Event struct {
	Type         EventType  `json:"type"`
	TrackID      string     `json:"track_id"`
	Title        string     `json:"title,omitempty"`
	Status       Status     `json:"status,omitempty"`
	Reason       Reason     `json:"reason,omitempty"`
	Duration     float64    `json:"duration,omitempty"`
	Position     *float64   `json:"position,omitempty"`
	Selection    *Selection `json:"selection,omitempty"`
	ChapterCount int        `json:"chapter_count,omitempty"`
}

// Notifier publishes track events to interested listeners, the websocket
// hub in production. Publish must not block; droppy delivery is fine.
type Notifier interface {
	Publish(event Event)
}
