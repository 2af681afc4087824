package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/carlwilson/corpus-testing/internal/model"
	"github.com/carlwilson/corpus-testing/internal/payload"
)

// timeLayout is used for every timestamp column. Fixed-width UTC text keeps
// values comparable as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// marshalErrorIDs converts a message-code map to canonical JSON TEXT.
func marshalErrorIDs(ids map[string]model.Level) (string, error) {
	m := make(map[string]any, len(ids))
	for k, v := range ids {
		m[k] = string(v)
	}
	data, err := payload.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal error ids: %w", err)
	}
	return string(data), nil
}

// unmarshalErrorIDs parses JSON TEXT written by marshalErrorIDs.
func unmarshalErrorIDs(data string) (map[string]model.Level, error) {
	ids := map[string]model.Level{}
	if data == "" || data == "{}" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal error ids: %w", err)
	}
	return ids, nil
}

// resultDigest identifies a normalized result by content.
func resultDigest(res model.CorpusTestResult) (string, error) {
	data, err := payload.CanonicalJSON(res)
	if err != nil {
		return "", fmt.Errorf("digest result: %w", err)
	}
	v, err := payload.Parse(data)
	if err != nil {
		return "", fmt.Errorf("digest result: %w", err)
	}
	return payload.Digest(payload.DomainResult, v)
}
