package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionState    Action = "state"
	ActionPing     Action = "ping"
)

// Request is every client message. Fields are used per action: answer needs
// question_id and option_index, navigate needs index.
type Request struct {
	Action      Action `json:"action" binding:"required,oneof=answer navigate submit state ping"`
	QuestionID  string `json:"question_id" binding:"max=64"`
	OptionIndex *int   `json:"option_index" binding:"omitempty,min=0"`
	Index       *int   `json:"index"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventState     Event = "state"
	EventTick      Event = "tick"
	EventSubmitted Event = "submitted"
	EventAbandoned Event = "abandoned"
	EventPong      Event = "pong"
)

// StateResponse carries a full session view after an action.
type StateResponse struct {
	Event Event       `json:"event"`
	State interface{} `json:"state"`
}

// TickResponse is pushed every second while the exam runs.
type TickResponse struct {
	Event            Event  `json:"event"`
	RemainingSeconds int    `json:"remaining_seconds"`
	RemainingDisplay string `json:"remaining_display"`
}

// SubmittedResponse is pushed once the session is graded, whether by the
// client or by the timer.
type SubmittedResponse struct {
	Event  Event       `json:"event"`
	Result interface{} `json:"result"`
}

type ErrorResponse struct {
	Event  Event             `json:"event"`
	Code   string            `json:"code"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// NoticeResponse carries no payload beyond the event name (pong, abandoned).
type NoticeResponse struct {
	Event Event `json:"event"`
}
