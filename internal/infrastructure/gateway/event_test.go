package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	body := []byte(`{
		"id": "1201",
		"channel_id": "42",
		"parent_channel_id": "7",
		"created_at": "2024-01-01T15:04:05Z",
		"content": "golden sunrise --ar 16:9 [av:ab12]",
		"attachments": [
			{"filename": "grid.png", "url": "https://cdn.example/grid.png", "content_type": "image/png", "size": 2048},
			{"filename": "inline.png", "data": "aGVsbG8="}
		]
	}`)

	msg, dropped, err := decodeEvent(body)
	require.NoError(t, err)
	assert.Zero(t, dropped)

	assert.Equal(t, "1201", msg.ID())
	assert.Equal(t, "42", msg.ChannelID())
	assert.Equal(t, "7", msg.ParentChannelID())
	assert.Equal(t, "golden sunrise --ar 16:9 [av:ab12]", msg.Content())
	assert.Equal(t, "2024-01-01", msg.PartitionDate())
	assert.True(t, msg.InChannel("42"))
	assert.True(t, msg.InChannel("7"))

	attachments := msg.Attachments()
	require.Len(t, attachments, 2)

	assert.Equal(t, "grid.png", attachments[0].Filename())
	assert.Equal(t, "https://cdn.example/grid.png", attachments[0].URL())
	assert.Equal(t, "image/png", attachments[0].ContentType())
	assert.Equal(t, int64(2048), attachments[0].Size())
	assert.False(t, attachments[0].HasInlineData())

	assert.Equal(t, "inline.png", attachments[1].Filename())
	assert.True(t, attachments[1].HasInlineData())
	assert.Equal(t, []byte("hello"), attachments[1].Data())
}

func TestDecodeEventWithoutAttachments(t *testing.T) {
	body := []byte(`{"id": "1", "channel_id": "42", "created_at": "2024-01-01T00:00:00Z", "content": "hi"}`)

	msg, dropped, err := decodeEvent(body)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Empty(t, msg.Attachments())
}

func TestDecodeEventDropsInvalidAttachments(t *testing.T) {
	body := []byte(`{
		"id": "1",
		"channel_id": "42",
		"created_at": "2024-01-01T00:00:00Z",
		"content": "hi",
		"attachments": [
			{"filename": "", "url": "https://cdn.example/a.png"},
			{"filename": "sourceless.png"},
			{"filename": "ok.png", "url": "https://cdn.example/ok.png"}
		]
	}`)

	msg, dropped, err := decodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	attachments := msg.Attachments()
	require.Len(t, attachments, 1)
	assert.Equal(t, "ok.png", attachments[0].Filename())
}

func TestDecodeEventRejectsBadEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{broken`},
		{"missing id", `{"channel_id": "42", "created_at": "2024-01-01T00:00:00Z"}`},
		{"missing channel", `{"id": "1", "created_at": "2024-01-01T00:00:00Z"}`},
		{"zero timestamp", `{"id": "1", "channel_id": "42"}`},
		{"malformed timestamp", `{"id": "1", "channel_id": "42", "created_at": "yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodeEvent([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}
