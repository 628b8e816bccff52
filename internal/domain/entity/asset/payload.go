// Package asset models the downloaded bytes of a single attachment on their
// way into the object store.
package asset

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
)

type Payload struct {
	content     []byte
	contentType string
	source      string
}

// NewPayload creates a valid Payload with validation.
func NewPayload(content []byte, source, contentType string) (*Payload, error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}
	if source == "" {
		return nil, ErrEmptySource
	}

	return &Payload{
		content:     content,
		contentType: normalizeContentType(contentType),
		source:      source,
	}, nil
}

// NewPayloadFromReader drains reader into a Payload, refusing anything
// larger than maxSize bytes.
func NewPayloadFromReader(reader io.Reader, source, contentType string, maxSize int64) (*Payload, error) {
	if source == "" {
		return nil, ErrEmptySource
	}

	limited := io.LimitReader(reader, maxSize+1)
	content, err := io.ReadAll(limited)
	if err != nil {
		return nil, ErrReadContent(err)
	}
	if int64(len(content)) > maxSize {
		return nil, ErrSizeExceeded(maxSize)
	}

	return NewPayload(content, source, contentType)
}

// Content returns the payload bytes (immutable, returns copy).
func (p *Payload) Content() []byte {
	result := make([]byte, len(p.content))
	copy(result, p.content)
	return result
}

// Hash calculates the SHA256 hash of the content (computed, not stored).
func (p *Payload) Hash() string {
	sum := sha256.Sum256(p.content)
	return hex.EncodeToString(sum[:])
}

func (p *Payload) Size() int64 {
	return int64(len(p.content))
}

func (p *Payload) ContentType() string {
	return p.contentType
}

// Source names where the bytes came from, a URL or a gateway attachment id.
func (p *Payload) Source() string {
	return p.source
}

func (p *Payload) IsImage() bool {
	return strings.HasPrefix(p.contentType, "image/")
}

func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}
