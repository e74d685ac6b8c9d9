package websocket

// EventNotesUpdated tells connected frontends that a sync completed and the
// note collection may have changed.
const EventNotesUpdated = "notes_updated"

type Event struct {
	Type string `json:"type"`
}
