package catalog

import (
	"encoding/json"
	"errors"
)

// Record is one prompt-metadata entry as stored in a partition's meta.json.
// The index only consults ID; the remaining fields ride along for the
// producer side and downstream consumers.
type Record struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Theme       string   `json:"theme"`
	Prompt      string   `json:"prompt"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

var errNotAList = errors.New("records document is not a JSON list")

// DecodeRecords parses a records document, meta.json or a producer input
// file. The document must be a JSON list; entries that do not decode as
// records are dropped individually so one bad entry cannot poison the rest.
func DecodeRecords(data []byte) ([]Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errNotAList
	}

	records := make([]Record, 0, len(raw))
	for _, item := range raw {
		var rec Record
		if err := json.Unmarshal(item, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// EncodeRecords renders records the way the original producer does:
// a pretty-printed JSON list.
func EncodeRecords(records []Record) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}
