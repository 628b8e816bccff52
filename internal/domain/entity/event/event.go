// Package event models a single chat message observed by the gateway,
// together with the binary attachments it carries.
package event

import (
	"time"
)

type Message struct {
	id              string
	channelID       string
	parentChannelID string
	content         string
	createdAt       time.Time
	attachments     []Attachment
}

// NewMessage creates a valid Message with validation.
func NewMessage(
	id string,
	channelID string,
	parentChannelID string,
	content string,
	createdAt time.Time,
	attachments []Attachment,
) (*Message, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if channelID == "" {
		return nil, ErrEmptyChannel
	}
	if createdAt.IsZero() {
		return nil, ErrZeroTimestamp
	}

	return &Message{
		id:              id,
		channelID:       channelID,
		parentChannelID: parentChannelID,
		content:         content,
		createdAt:       createdAt,
		attachments:     attachments,
	}, nil
}

func (m *Message) ID() string {
	return m.id
}

func (m *Message) ChannelID() string {
	return m.channelID
}

func (m *Message) ParentChannelID() string {
	return m.parentChannelID
}

func (m *Message) Content() string {
	return m.content
}

func (m *Message) CreatedAt() time.Time {
	return m.createdAt
}

// Attachments returns the attachments in wire order (copy, immutable).
func (m *Message) Attachments() []Attachment {
	result := make([]Attachment, len(m.attachments))
	copy(result, m.attachments)
	return result
}

// InChannel reports whether the message was posted in the given channel or
// in a thread parented there.
func (m *Message) InChannel(channelID string) bool {
	return m.channelID == channelID || m.parentChannelID == channelID
}

// PartitionDate returns the UTC calendar date of the message as YYYY-MM-DD,
// the first path segment of every stored asset.
func (m *Message) PartitionDate() string {
	return m.createdAt.UTC().Format("2006-01-02")
}
