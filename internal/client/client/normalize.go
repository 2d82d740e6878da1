package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned for a list response that is neither a
// JSON array nor a {"results": [...]} envelope.
var ErrUnexpectedShape = errors.New("list response is neither an array nor a results envelope")

// Page is one normalized list response.
type Page struct {
	Items []json.RawMessage
	// Next is the envelope's "next" link, empty for raw arrays and the
	// last page.
	Next string
}

// NormalizeList accepts a raw JSON array or a paginated envelope
// {"results": [...], "next": "..."} and returns the items in response order.
// An equivalent array and envelope yield identical items.
func NormalizeList(data []byte) (Page, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Page{}, ErrUnexpectedShape
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return Page{}, fmt.Errorf("decode list: %w", err)
		}
		return Page{Items: nonNil(items)}, nil
	case '{':
		var env struct {
			Results *[]json.RawMessage `json:"results"`
			Next    *string            `json:"next"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return Page{}, fmt.Errorf("decode list envelope: %w", err)
		}
		if env.Results == nil {
			return Page{}, ErrUnexpectedShape
		}
		p := Page{Items: nonNil(*env.Results)}
		if env.Next != nil {
			p.Next = *env.Next
		}
		return p, nil
	default:
		return Page{}, ErrUnexpectedShape
	}
}

func nonNil(items []json.RawMessage) []json.RawMessage {
	if items == nil {
		return []json.RawMessage{}
	}
	return items
}

// DecodeItems decodes normalized items into T, keeping their order.
func DecodeItems[T any](items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode item %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
