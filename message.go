package pricechat

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry of the conversation transcript.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// NewMessage creates a Message with a fresh ID and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Snapshot is a read-only view of the conversation handed to sinks. Messages
// is a copy and may be retained by the receiver.
type Snapshot struct {
	Messages []Message
	State    TurnState
	// Err is the error that closed the last turn abnormally. It is nil for
	// completed and cancelled turns.
	Err error
	// Malformed counts frames of the current turn that could not be
	// interpreted, excluding empty payloads.
	Malformed int
	// Version increases with every change, so receivers that get snapshots
	// out of order can drop stale ones.
	Version uint64
}

// Last returns the last message and true, or a zero Message and false when
// the transcript is empty.
func (s Snapshot) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
