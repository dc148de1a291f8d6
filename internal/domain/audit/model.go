package audit

import "time"

type EventType string

const (
	RoleChanged     EventType = "role_changed"
	PageView        EventType = "page_view"
	DocumentView    EventType = "document_view"
	DownloadClicked EventType = "download_clicked"
	Upload          EventType = "upload"
)

var validEventTypes = map[EventType]bool{
	RoleChanged: true, PageView: true, DocumentView: true,
	DownloadClicked: true, Upload: true,
}

func (t EventType) Valid() bool {
	return validEventTypes[t]
}

// Event is one access-relevant action. Events are never mutated once recorded.
type Event struct {
	ID        string    `json:"id" toml:"id"`
	Type      EventType `json:"type" toml:"type"`
	Actor     string    `json:"actor" toml:"actor"`
	Message   string    `json:"message" toml:"message"`
	Timestamp time.Time `json:"timestamp" toml:"timestamp"`
}
