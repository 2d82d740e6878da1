package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinels for the failure classes of a request. Every *APIError matches
// exactly one of them with errors.Is.
var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("request rejected")
	ErrConflict     = errors.New("conflict")
	ErrServer       = errors.New("server error")
	ErrUnknown      = errors.New("unexpected response")
)

// ErrorKind classifies a failed request.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindAuth
	KindValidation
	KindConflict
	KindServer
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrUnavailable
	case KindAuth:
		return ErrUnauthorized
	case KindValidation:
		return ErrValidation
	case KindConflict:
		return ErrConflict
	case KindServer:
		return ErrServer
	default:
		return ErrUnknown
	}
}

func (k ErrorKind) String() string {
	return k.sentinel().Error()
}

// APIError is returned for every failed request. Message is composed from
// the server's error payload when it has one.
type APIError struct {
	Op      string
	Kind    ErrorKind
	Status  int
	Message string
	// Fields holds per-field messages, keyed by dotted field path.
	Fields map[string][]string
	// NonField holds the "non_field_errors" messages.
	NonField []string

	cause    error
	fromBody bool
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, "HTTP %d: ", e.Status)
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

// ServerMessage reports whether Message came from the server's error
// payload rather than from the status line or a transport error.
func (e *APIError) ServerMessage() bool {
	return e.fromBody
}

func (e *APIError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.cause}
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func networkError(op string, err error) *APIError {
	return &APIError{Op: op, Kind: KindNetwork, Message: err.Error(), cause: err}
}

func decodeError(op string, status int, err error) *APIError {
	return &APIError{Op: op, Kind: KindUnknown, Status: status, Message: "decode response: " + err.Error(), cause: err}
}

// responseError builds the error for a non-2xx response.
func responseError(op string, status int, body []byte) *APIError {
	e := &APIError{Op: op, Status: status}
	parseErrorBody(e, body)
	e.Kind = classify(status, e.NonField)
	e.fromBody = e.Message != ""
	if e.Message == "" {
		e.Message = strings.ToLower(http.StatusText(status))
	}
	return e
}

func classify(status int, nonField []string) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusBadRequest && mentionsUnique(nonField):
		return KindConflict
	case status >= 400 && status < 500:
		return KindValidation
	case status >= 500 && status < 600:
		return KindServer
	default:
		return KindUnknown
	}
}

func mentionsUnique(msgs []string) bool {
	for _, m := range msgs {
		if strings.Contains(strings.ToLower(m), "unique") {
			return true
		}
	}
	return false
}

// parseErrorBody understands the REST framework error shapes:
// {"error": "..."}, {"detail": "..."}, {"non_field_errors": [...]} and
// field maps whose values are strings, lists or nested objects.
func parseErrorBody(e *APIError, body []byte) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		if s := strings.TrimSpace(string(body)); s != "" && len(s) <= 200 && !strings.HasPrefix(s, "<") {
			e.Message = s
		}
		return
	}

	var parts []string
	for _, key := range []string{"error", "detail"} {
		if v, ok := raw[key]; ok {
			parts = append(parts, messages(v)...)
			delete(raw, key)
		}
	}
	if v, ok := raw["non_field_errors"]; ok {
		e.NonField = messages(v)
		parts = append(parts, e.NonField...)
		delete(raw, "non_field_errors")
	}

	fields := map[string][]string{}
	flattenFields(fields, "", raw)
	if len(fields) > 0 {
		e.Fields = fields
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+": "+strings.Join(fields[k], " "))
		}
	}
	e.Message = strings.Join(parts, "; ")
}

func flattenFields(dst map[string][]string, prefix string, raw map[string]json.RawMessage) {
	for k, v := range raw {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		var nested map[string]json.RawMessage
		if json.Unmarshal(v, &nested) == nil {
			flattenFields(dst, name, nested)
			continue
		}
		if msgs := messages(v); len(msgs) > 0 {
			dst[name] = msgs
		}
	}
}

// messages reads a string or a list of strings.
func messages(v json.RawMessage) []string {
	var s string
	if json.Unmarshal(v, &s) == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var list []string
	if json.Unmarshal(v, &list) == nil {
		return list
	}
	return nil
}
