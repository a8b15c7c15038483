package stream

import (
	"encoding/json"
	"strings"
)

const dataPrefix = "data: "

// Payload extracts the payload of a "data: " line. Lines without the prefix
// carry no event. The service sometimes frames an already framed payload,
// so a second "data: " is stripped too, but no more than that.
func Payload(line string) (string, bool) {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return "", false
	}
	payload, _ = strings.CutPrefix(payload, dataPrefix)
	return payload, true
}

// DecodeMessage parses an event payload. A payload without a type field
// decodes to a Message with an empty Type.
func DecodeMessage(payload string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// ParseEvent returns the message carried by line, if any. Lines that are not
// events and events whose payload is not valid JSON both yield false.
func ParseEvent(line string) (Message, bool) {
	payload, ok := Payload(line)
	if !ok {
		return Message{}, false
	}
	msg, err := DecodeMessage(payload)
	if err != nil {
		return Message{}, false
	}
	return msg, true
}
