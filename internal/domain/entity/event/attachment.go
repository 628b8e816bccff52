package event

// Attachment is one binary carried by a message. It is fetched by URL when
// the gateway forwards a link, or arrives inline when the gateway already
// holds the bytes.
type Attachment struct {
	filename    string
	url         string
	data        []byte
	contentType string
	size        int64
}

// NewAttachment creates a valid Attachment with validation. At least one of
// url and data must be set or there is nothing to ingest.
func NewAttachment(filename, url string, data []byte, contentType string, size int64) (Attachment, error) {
	if filename == "" {
		return Attachment{}, ErrEmptyFilename
	}
	if url == "" && len(data) == 0 {
		return Attachment{}, ErrNoSource
	}

	return Attachment{
		filename:    filename,
		url:         url,
		data:        data,
		contentType: contentType,
		size:        size,
	}, nil
}

func (a Attachment) Filename() string {
	return a.filename
}

func (a Attachment) URL() string {
	return a.url
}

// Data returns the inline payload bytes, nil when the attachment is
// URL-only.
func (a Attachment) Data() []byte {
	if len(a.data) == 0 {
		return nil
	}
	result := make([]byte, len(a.data))
	copy(result, a.data)
	return result
}

func (a Attachment) HasInlineData() bool {
	return len(a.data) > 0
}

func (a Attachment) ContentType() string {
	return a.contentType
}

func (a Attachment) Size() int64 {
	return a.size
}
