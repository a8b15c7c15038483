package stream

// Interpret maps a message to the action it has on the summary.
func Interpret(msg Message) Action {
	switch msg.Type {
	case TypeSummaryChunk:
		if msg.Content == "" {
			return Action{Kind: ActionIgnore}
		}
		return Action{Kind: ActionAppend, Content: msg.Content}
	case TypeError:
		return Action{Kind: ActionFail, Content: msg.Content}
	default:
		return Action{Kind: ActionIgnore}
	}
}
