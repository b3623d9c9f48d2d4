package invocation

import (
	"encoding/base64"
	"errors"
	"reflect"
	"regexp"
	"testing"
)

var tokenAlphabet = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		inv  Invocation
		want *Invocation
	}{
		{
			name: "empty args",
			inv:  Invocation{Title: "RollMacro", Fn: "rollTechMacro", Args: []any{}},
		},
		{
			name: "absent args read back as empty",
			inv:  Invocation{Title: "RollMacro", Fn: "rollTechMacro"},
			want: &Invocation{Title: "RollMacro", Fn: "rollTechMacro", Args: []any{}},
		},
		{
			name: "large integers read back as float64",
			inv:  Invocation{Fn: "f", Args: []any{int64(1) << 53, 7}},
			want: &Invocation{Fn: "f", Args: []any{float64(1 << 53), float64(7)}},
		},
		{
			name: "primitives and null",
			inv:  Invocation{Title: "Macro", Fn: "prepareTechMacro", Args: []any{"actor-1", nil, true, 2.5, float64(-3)}},
		},
		{
			name: "nested mappings and sequences",
			inv: Invocation{Title: "RollMacro", Fn: "rollTechMacro", Args: []any{
				map[string]any{
					"title":      "BASIC TECH",
					"flat_bonus": float64(2),
					"tags":       []any{},
					"acc_diff": map[string]any{
						"targets": []any{map[string]any{"id": "t1", "cover": "soft"}},
						"base":    map[string]any{"accuracy": float64(1)},
					},
				},
				true,
			}},
		},
		{
			name: "markup-hostile strings",
			inv:  Invocation{Title: `"><script>&`, Fn: "f", Args: []any{"it's <b>bold</b>\n"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := Encode(tt.inv)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !tokenAlphabet.MatchString(token) {
				t.Fatalf("token %q contains characters unsafe for attributes", token)
			}
			got, err := Decode(token)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			want := tt.inv
			if tt.want != nil {
				want = *tt.want
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip = %#v, want %#v", got, want)
			}
		})
	}
}

func TestNilAndEmptyArgsShareAToken(t *testing.T) {
	absent, err := Encode(Invocation{Fn: "f"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	empty, err := Encode(Invocation{Fn: "f", Args: []any{}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if absent != empty {
		t.Fatalf("tokens differ: %q vs %q", absent, empty)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	inv := Invocation{Fn: "f", Args: []any{map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": 1, "y": 2}}}}
	first, err := Encode(inv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Encode(inv)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if again != first {
			t.Fatalf("encode not deterministic: %q vs %q", again, first)
		}
	}
}

func TestEncodeRequiresFn(t *testing.T) {
	if _, err := Encode(Invocation{Title: "x"}); err == nil {
		t.Fatal("expected error for missing fn")
	}
}

func TestDecodeMalformed(t *testing.T) {
	valid, err := Encode(Invocation{Title: "RollMacro", Fn: "rollTechMacro", Args: []any{"a"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := map[string]string{
		"empty":          "",
		"not base64":     "!!!not-a-token!!!",
		"padded":         valid + "==",
		"truncated":      valid[:len(valid)/2],
		"array":          raw(`["rollTechMacro"]`),
		"null":           raw(`null`),
		"missing fn":     raw(`{"title":"x","args":[]}`),
		"unknown field":  raw(`{"fn":"f","args":[],"extra":1}`),
		"trailing data":  raw(`{"fn":"f","args":[]}{"fn":"g"}`),
		"args not array": raw(`{"fn":"f","args":{}}`),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(token)
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
		})
	}
}

func TestDecodeArg(t *testing.T) {
	type params struct {
		Title     string `json:"title"`
		FlatBonus int    `json:"flat_bonus"`
	}
	token, err := Encode(Invocation{Fn: "rollTechMacro", Args: []any{params{Title: "BASIC TECH", FlatBonus: 2}, true}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	inv, err := Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	var got params
	if err := DecodeArg(inv, 0, &got); err != nil {
		t.Fatalf("decode arg 0: %v", err)
	}
	if got != (params{Title: "BASIC TECH", FlatBonus: 2}) {
		t.Fatalf("params = %+v", got)
	}
	var reroll bool
	if err := DecodeArg(inv, 1, &reroll); err != nil || !reroll {
		t.Fatalf("reroll = %v, err = %v", reroll, err)
	}
	if err := DecodeArg(inv, 2, &reroll); !errors.Is(err, ErrArgIndex) {
		t.Fatalf("expected ErrArgIndex, got %v", err)
	}
	var wrong int
	if err := DecodeArg(inv, 0, &wrong); err == nil {
		t.Fatal("expected type mismatch error")
	}
}
