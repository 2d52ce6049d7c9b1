package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys on the service exchange.
const (
	RefreshCompletedKey = "refresh.completed"
)

// RefreshCompletedMessage announces the outcome of one refresh run.
type RefreshCompletedMessage struct {
	RunID     string    `json:"run_id"`
	Trigger   string    `json:"trigger"`
	Status    string    `json:"status"`
	Source    string    `json:"source,omitempty"`
	Records   int       `json:"records"`
	Dropped   int       `json:"dropped"`
	Version   uint64    `json:"version"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *RefreshCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshCompletedMessageFromJSON parses a completion event.
func RefreshCompletedMessageFromJSON(data []byte) (*RefreshCompletedMessage, error) {
	var msg RefreshCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RefreshRequestMessage asks the service to reload its records now, for
// example after the sheet was edited.
type RefreshRequestMessage struct {
	RequestedBy string    `json:"requested_by,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRefreshRequestMessage creates a request stamped with the current time.
func NewRefreshRequestMessage(requestedBy, reason string) *RefreshRequestMessage {
	return &RefreshRequestMessage{
		RequestedBy: requestedBy,
		Reason:      reason,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshRequestMessageFromJSON parses a refresh request. An empty body is a
// valid request.
func RefreshRequestMessageFromJSON(data []byte) (*RefreshRequestMessage, error) {
	var msg RefreshRequestMessage
	if len(data) == 0 {
		return &msg, nil
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
