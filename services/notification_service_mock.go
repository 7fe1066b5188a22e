package services

import (
	"sync"
)

// SentMessage records one delivery attempt made through the mock sender.
type SentMessage struct {
	Phone   string
	Message string
}

// MockMessageSender is a MessageSender for tests. It records every
// message and can be told to fail deliveries.
type MockMessageSender struct {
	mu      sync.Mutex
	sent    []SentMessage
	SendErr error // returned by Send when non-nil
}

// NewMockMessageSender creates a new mock sender
func NewMockMessageSender() *MockMessageSender {
	return &MockMessageSender{}
}

// Send records the message and returns the configured error, if any
func (m *MockMessageSender) Send(phone, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.sent = append(m.sent, SentMessage{Phone: phone, Message: message})
	return nil
}

// Channel reports the delivery channel tag
func (m *MockMessageSender) Channel() string { return "sms" }

// Sent returns a copy of the recorded messages
func (m *MockMessageSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
