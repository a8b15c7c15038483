package stream

// Message types sent by the summary service.
const (
	TypeSummaryChunk = "summary_chunk"
	TypeError        = "error"
)

// Message is a single decoded event payload.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ActionKind classifies what a message does to the accumulated summary.
type ActionKind int

const (
	ActionIgnore ActionKind = iota
	ActionAppend
	ActionFail
)

func (k ActionKind) String() string {
	switch k {
	case ActionAppend:
		return "append"
	case ActionFail:
		return "fail"
	default:
		return "ignore"
	}
}

// Action is the result of interpreting a Message.
type Action struct {
	Kind    ActionKind
	Content string
}

// Chunk represents one read from the response body.
type Chunk struct {
	Data []byte
	Err  error
}
