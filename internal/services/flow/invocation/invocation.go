// Package invocation encodes named function calls into opaque tokens that can
// be embedded in rendered output and dispatched later.
//
// A token is the canonical JSON of {title, fn, args} encoded as unpadded
// base64url, so it only contains [A-Za-z0-9_-] and can sit in an HTML
// attribute without escaping.
//
// Nil and empty Args are the same invocation: both encode as "args":[] and
// decode as an empty, non-nil slice. Decoded numbers are float64, so integer
// arguments beyond 2^53 do not survive a round trip.
package invocation

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/louisbranch/lancerflow/internal/core/encoding"
)

// Invocation is a call to the function named Fn with Args, labelled Title.
type Invocation struct {
	Title string `json:"title"`
	Fn    string `json:"fn"`
	Args  []any  `json:"args"`
}

// ErrArgIndex indicates DecodeArg was asked for an argument that is absent.
var ErrArgIndex = errors.New("invocation argument index out of range")

// DecodeError reports a token that was not produced by Encode.
type DecodeError struct {
	Token  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode invocation: %s: %v", e.Reason, e.Err)
	}
	return "decode invocation: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

var tokenEncoding = base64.RawURLEncoding

// Encode serializes inv into a deterministic token.
func Encode(inv Invocation) (string, error) {
	if strings.TrimSpace(inv.Fn) == "" {
		return "", errors.New("encode invocation: fn is required")
	}
	if inv.Args == nil {
		inv.Args = []any{}
	}
	data, err := encoding.CanonicalJSON(inv)
	if err != nil {
		return "", fmt.Errorf("encode invocation %s: %w", inv.Fn, err)
	}
	return tokenEncoding.EncodeToString(data), nil
}

// Decode parses a token produced by Encode. Arguments come back in the JSON
// data model: nil, bool, float64, string, []any and map[string]any.
func Decode(token string) (Invocation, error) {
	if token == "" {
		return Invocation{}, &DecodeError{Reason: "empty token"}
	}
	data, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return Invocation{}, &DecodeError{Token: token, Reason: "not base64url", Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var inv Invocation
	if err := dec.Decode(&inv); err != nil {
		return Invocation{}, &DecodeError{Token: token, Reason: "not an invocation object", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Invocation{}, &DecodeError{Token: token, Reason: "trailing data"}
	}
	if strings.TrimSpace(inv.Fn) == "" {
		return Invocation{}, &DecodeError{Token: token, Reason: "missing fn"}
	}
	if inv.Args == nil {
		inv.Args = []any{}
	}
	return inv, nil
}

// DecodeArg re-decodes argument i of inv into dst.
func DecodeArg(inv Invocation, i int, dst any) error {
	if i < 0 || i >= len(inv.Args) {
		return fmt.Errorf("%w: %d of %d", ErrArgIndex, i, len(inv.Args))
	}
	data, err := json.Marshal(inv.Args[i])
	if err != nil {
		return fmt.Errorf("encode arg %d: %w", i, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode arg %d: %w", i, err)
	}
	return nil
}
