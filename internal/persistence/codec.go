package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jtolonen/stroll/pkg/api"
)

// recordPayload is the wire shape of the persisted record. It is JSON on
// purpose (rather than gob): the record outlives any single binary, may be
// hand-inspected or hand-edited, and mirrors the shape browser-based hosts
// keep in local storage.
//
//	{"completed":["tour-a"],"skipped":["tour-b"],"lastCompletedAt":"2026-01-02T15:04:05Z"}
type recordPayload struct {
	Completed       []string `json:"completed"`
	Skipped         []string `json:"skipped"`
	LastCompletedAt string   `json:"lastCompletedAt,omitempty"`
}

// EncodeRecord serializes a record to its JSON wire form. Timestamps are
// RFC 3339 in UTC.
func EncodeRecord(rec api.Record) ([]byte, error) {
	payload := recordPayload{
		Completed: rec.Completed,
		Skipped:   rec.Skipped,
	}
	if payload.Completed == nil {
		payload.Completed = []string{}
	}
	if payload.Skipped == nil {
		payload.Skipped = []string{}
	}
	if rec.LastCompletedAt != nil {
		payload.LastCompletedAt = rec.LastCompletedAt.UTC().Format(time.RFC3339)
	}
	return json.Marshal(payload)
}

// DecodeRecord parses the JSON wire form back into a normalized record.
func DecodeRecord(data []byte) (api.Record, error) {
	if len(data) == 0 {
		return api.Record{}, nil
	}
	var payload recordPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return api.Record{}, fmt.Errorf("decode tour record: %w", err)
	}

	rec := api.Record{
		Completed: payload.Completed,
		Skipped:   payload.Skipped,
	}
	if payload.LastCompletedAt != "" {
		t, err := time.Parse(time.RFC3339, payload.LastCompletedAt)
		if err != nil {
			return api.Record{}, fmt.Errorf("decode tour record timestamp: %w", err)
		}
		rec.LastCompletedAt = &t
	}
	return Normalize(rec), nil
}
