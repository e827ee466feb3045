package store

import (
	"encoding/json"
	"fmt"
	"time"

	"socialite/internal/core"
)

// TimeLayout is the canonical timestamp encoding. Fixed-width fractional
// seconds keep lexicographic order equal to chronological order, which the
// backends rely on for ordering and range scans.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

type serverTimestamp struct{}

// ServerTimestamp is a field value placeholder replaced with the commit
// time when the write is applied.
var ServerTimestamp any = serverTimestamp{}

// FormatTime encodes t in the canonical store encoding.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NormalizeFields resolves timestamp placeholders against now and reduces
// fields to the JSON-normalized shapes every backend physically stores:
// strings, float64, bool, []any, map[string]any.
func NormalizeFields(fields map[string]any, now time.Time) (map[string]any, error) {
	v, err := NormalizeValue(fields, now)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// NormalizeValue normalizes a single field value the same way.
func NormalizeValue(value any, now time.Time) (any, error) {
	resolved := resolveTimestamps(value, now)

	b, err := json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStore, err)
	}

	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return out, nil
}

func resolveTimestamps(value any, now time.Time) any {
	switch v := value.(type) {
	case serverTimestamp:
		return FormatTime(now)
	case time.Time:
		return FormatTime(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = resolveTimestamps(item, now)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = resolveTimestamps(item, now)
		}
		return out
	default:
		return value
	}
}

// Decode unmarshals a document's fields into a struct.
func Decode(doc core.Document, out any) error {
	b, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return json.Unmarshal(b, out)
}

func DecodePost(doc core.Document) (core.Post, error) {
	var post core.Post
	err := Decode(doc, &post)
	post.ID = doc.ID
	return post, err
}

func DecodeProfile(doc core.Document) (core.Profile, error) {
	var profile core.Profile
	err := Decode(doc, &profile)
	profile.UserID = doc.ID
	return profile, err
}
