package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const fence = "```"

// StripFences returns the body of the first Markdown code block in s, or s
// itself trimmed when it holds no fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)

	start := strings.Index(s, fence)
	if start < 0 {
		return s
	}
	body := s[start+len(fence):]

	// Drop the info string ("json", "JSON", ...) up to the end of the line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		if info := strings.TrimSpace(body[:nl]); !strings.ContainsAny(info, "{[") {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimLeft(body, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}

	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// ExtractJSON decodes the JSON object or array held in raw into a T,
// tolerating a surrounding code fence. Anything else, including trailing
// data or a field of the wrong type, fails with ErrGenerationFailed and
// returns the zero T.
func ExtractJSON[T any](raw string) (T, error) {
	var zero T
	body := StripFences(raw)
	if body == "" || (body[0] != '{' && body[0] != '[') {
		return zero, fmt.Errorf("%w: response is not JSON", ErrGenerationFailed)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	var msg json.RawMessage
	if err := dec.Decode(&msg); err != nil {
		return zero, fmt.Errorf("%w: decoding response: %w", ErrGenerationFailed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return zero, fmt.Errorf("%w: trailing data after JSON value", ErrGenerationFailed)
	}

	// Decode into a scratch value; encoding/json keeps the fields it set
	// before hitting a type error.
	var out T
	if err := json.NewDecoder(bytes.NewReader(msg)).Decode(&out); err != nil {
		return zero, fmt.Errorf("%w: decoding response: %w", ErrGenerationFailed, err)
	}
	return out, nil
}
