package websocket

import "github.com/stemsi/certify-backend/internal/bus"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady  Event = "ready"
	EventChange Event = "change"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// ReadyResponse is sent once after the upgrade with the keys the
// connection will be told about.
type ReadyResponse struct {
	Event Event    `json:"event"`
	Keys  []string `json:"keys"`
	Inbox string   `json:"inbox"`
}

// ChangeResponse carries one store change. Exactly one of Key and
// StorageKey is set, mirroring the two change payload shapes.
type ChangeResponse struct {
	Event      Event  `json:"event"`
	Key        string `json:"key,omitempty"`
	StorageKey string `json:"storageKey,omitempty"`
}

// NewChangeResponse converts a bus change into its wire form.
func NewChangeResponse(c bus.Change) ChangeResponse {
	if c.Inbox != nil {
		return ChangeResponse{Event: EventChange, StorageKey: c.StorageKey()}
	}
	return ChangeResponse{Event: EventChange, Key: c.Key}
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
