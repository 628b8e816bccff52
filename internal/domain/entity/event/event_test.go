package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAttachment(t *testing.T) Attachment {
	t.Helper()
	att, err := NewAttachment("grid.png", "https://cdn.example.com/grid.png", nil, "image/png", 1024)
	require.NoError(t, err)
	return att
}

func TestNewMessage(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		id        string
		channelID string
		createdAt time.Time
		wantErr   error
	}{
		{name: "valid", id: "111", channelID: "222", createdAt: created},
		{name: "missing id", id: "", channelID: "222", createdAt: created, wantErr: ErrEmptyID},
		{name: "missing channel", id: "111", channelID: "", createdAt: created, wantErr: ErrEmptyChannel},
		{name: "zero timestamp", id: "111", channelID: "222", wantErr: ErrZeroTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.id, tt.channelID, "", "prompt text", tt.createdAt, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, msg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, msg.ID())
			assert.Equal(t, tt.channelID, msg.ChannelID())
			assert.Equal(t, "prompt text", msg.Content())
		})
	}
}

func TestMessage_InChannel(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name            string
		channelID       string
		parentChannelID string
		target          string
		expected        bool
	}{
		{name: "direct channel", channelID: "222", target: "222", expected: true},
		{name: "thread of target", channelID: "333", parentChannelID: "222", target: "222", expected: true},
		{name: "unrelated channel", channelID: "333", target: "222", expected: false},
		{name: "unrelated thread", channelID: "333", parentChannelID: "444", target: "222", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage("111", tt.channelID, tt.parentChannelID, "", created, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, msg.InChannel(tt.target))
		})
	}
}

func TestMessage_PartitionDate(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*60*60)
	created := time.Date(2023, 12, 31, 23, 30, 0, 0, loc)

	msg, err := NewMessage("111", "222", "", "", created, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", msg.PartitionDate())
}

func TestMessage_AttachmentsAreCopied(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	msg, err := NewMessage("111", "222", "", "", created, []Attachment{validAttachment(t)})
	require.NoError(t, err)

	first := msg.Attachments()
	first[0] = Attachment{}
	assert.Equal(t, "grid.png", msg.Attachments()[0].Filename())
}

func TestNewAttachment(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		url      string
		data     []byte
		wantErr  error
	}{
		{name: "url only", filename: "a.png", url: "https://cdn.example.com/a.png"},
		{name: "inline only", filename: "a.png", data: []byte{0x89, 0x50}},
		{name: "missing filename", url: "https://cdn.example.com/a.png", wantErr: ErrEmptyFilename},
		{name: "no source", filename: "a.png", wantErr: ErrNoSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att, err := NewAttachment(tt.filename, tt.url, tt.data, "", 0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.filename, att.Filename())
			assert.Equal(t, len(tt.data) > 0, att.HasInlineData())
		})
	}
}

func TestAttachment_DataIsCopied(t *testing.T) {
	att, err := NewAttachment("a.png", "", []byte{1, 2, 3}, "", 3)
	require.NoError(t, err)

	data := att.Data()
	data[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, att.Data())
}
