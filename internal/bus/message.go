package bus

import (
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// ParseMessage decodes a record body into T. A missing or malformed body
// yields nil rather than an error; consumers treat such records as noise.
func ParseMessage[T any](msg kafka.Message) *T {
	if len(msg.Value) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(msg.Value, &v); err != nil {
		return nil
	}
	return &v
}
