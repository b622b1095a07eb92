package chat

// Role identifies who produced a Turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation as exchanged with the backend
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Sender identifies who a DisplayMessage is shown as coming from
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// DisplayMessage is one rendered chat bubble
type DisplayMessage struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Location holds the coordinates sent along with every request
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Request is the body posted to the backend for each turn.
// Nil Location and LastKnownCity are sent as JSON null.
type Request struct {
	Message       string    `json:"message"`
	History       []Turn    `json:"history"`
	Location      *Location `json:"location"`
	LastKnownCity *string   `json:"lastKnownCity"`
}

// Reply is the decoded backend answer
type Reply struct {
	Response string
	// City is nil when the backend did not name one
	City *string
}
