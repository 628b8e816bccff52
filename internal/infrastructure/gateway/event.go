// Package gateway consumes chat message events from the broker the gateway
// process publishes to, and hands them to the ingest session as domain
// messages.
package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/slothsintel/AutoVisuals/internal/domain/entity/event"
)

// wireEvent is the JSON envelope the gateway publishes for every observed
// chat message. Attachment data arrives either as a URL to fetch or as
// inline base64 bytes when the gateway already drained them.
type wireEvent struct {
	ID              string           `json:"id"`
	ChannelID       string           `json:"channel_id"`
	ParentChannelID string           `json:"parent_channel_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	Content         string           `json:"content"`
	Attachments     []wireAttachment `json:"attachments,omitempty"`
}

type wireAttachment struct {
	Filename    string `json:"filename"`
	URL         string `json:"url,omitempty"`
	Data        []byte `json:"data,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// decodeEvent parses one broker payload into a domain message. Attachments
// that fail validation are dropped rather than poisoning the whole event;
// the count of dropped attachments is returned so consumers can log it.
func decodeEvent(body []byte) (*event.Message, int, error) {
	var wire wireEvent
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, 0, fmt.Errorf("decoding event: %w", err)
	}

	var attachments []event.Attachment
	dropped := 0
	for _, wa := range wire.Attachments {
		attachment, err := event.NewAttachment(wa.Filename, wa.URL, wa.Data, wa.ContentType, wa.Size)
		if err != nil {
			dropped++
			continue
		}
		attachments = append(attachments, attachment)
	}

	msg, err := event.NewMessage(wire.ID, wire.ChannelID, wire.ParentChannelID, wire.Content, wire.CreatedAt, attachments)
	if err != nil {
		return nil, dropped, fmt.Errorf("decoding event: %w", err)
	}
	return msg, dropped, nil
}
