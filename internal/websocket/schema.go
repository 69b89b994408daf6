package websocket

import "github.com/stemsi/kidquest-backend/internal/view"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer  Action = "answer"
	ActionJournal Action = "journal"
	ActionToggle  Action = "toggle"
	ActionSubmit  Action = "submit"
	ActionFlip    Action = "flip"
	ActionNext    Action = "next"
	ActionPing    Action = "ping"
)

// Request is a single client action. Only the fields the action needs are set.
type Request struct {
	Action   Action `json:"action"`
	OptionID string `json:"option_id,omitempty"`
	Text     string `json:"text,omitempty"`
	Index    *int   `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState    Event = "state"
	EventRejected Event = "rejected"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// StateResponse carries the latest render model of the session.
type StateResponse struct {
	Event   Event        `json:"event"`
	Session view.Session `json:"session"`
}

// RejectedResponse tells the client an action was ignored in the current state.
type RejectedResponse struct {
	Event  Event  `json:"event"`
	Action Action `json:"action"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
