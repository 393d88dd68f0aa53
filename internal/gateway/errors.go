package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Rrens/trip-planner/internal/domain"
)

const maxMessageLen = 512

// classify maps a non-2xx response onto the error taxonomy
func classify(resp *Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return domain.Rejected(resp.StatusCode, serverMessage(resp))
	case resp.StatusCode >= 500:
		return domain.Fault(resp.StatusCode, serverMessage(resp))
	}
	return &domain.Error{
		Kind:    domain.KindMalformedResponse,
		Code:    resp.StatusCode,
		Message: "unexpected status " + http.StatusText(resp.StatusCode),
	}
}

// serverMessage extracts a human readable message from an error body.
// Django REST style bodies carry "detail"; validation errors map fields to messages.
func serverMessage(resp *Response) string {
	var body map[string]any
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := body[key].(string); ok && s != "" {
				return truncate(s)
			}
		}
		if fields := fieldErrors(body); fields != "" {
			return truncate(fields)
		}
	}

	msg := strings.TrimSpace(string(resp.Body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return truncate(msg)
}

func fieldErrors(body map[string]any) string {
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		switch v := body[k].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s: %s", k, v))
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, fmt.Sprintf("%s: %s", k, s))
				}
			}
		}
	}
	return strings.Join(parts, "; ")
}

func truncate(s string) string {
	if len(s) > maxMessageLen {
		return s[:maxMessageLen] + "..."
	}
	return s
}
