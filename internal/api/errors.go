package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("permission denied")
	ErrNotFound        = errors.New("not found")
)

// ValidationError carries the server's field-level rejection of a write,
// e.g. {"password": ["Passwords don’t match homie."]}.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", name, strings.Join(e.Fields[name], ", "))
	}
	return b.String()
}

// StatusError is any other non-2xx response the taxonomy does not name.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// decodeError maps a non-2xx response onto the error taxonomy.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, strings.TrimSpace(string(body)))
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, strings.TrimSpace(string(body)))
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(string(body)))
	case http.StatusBadRequest:
		if fields := parseFieldErrors(body); fields != nil {
			return &ValidationError{Fields: fields}
		}
	}
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// parseFieldErrors handles both {"field": ["msg"]} and {"field": "msg"}
// shapes the server emits.
func parseFieldErrors(body []byte) map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		return nil
	}

	fields := make(map[string][]string, len(raw))
	for name, v := range raw {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			fields[name] = list
			continue
		}
		var single string
		if err := json.Unmarshal(v, &single); err == nil {
			fields[name] = []string{single}
			continue
		}
		return nil
	}
	return fields
}
