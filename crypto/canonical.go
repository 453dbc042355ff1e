package crypto

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Canonical produces the canonical byte encoding of a structured value:
// the UTF-8 JSON form with object keys sorted lexicographically at every
// nesting level, no insignificant whitespace, integers emitted without a
// fractional part, and floats rejected outright. This is the exact input
// to every hash and signature in the protocol; implementers MUST NOT
// deviate from it (spec §4.1) or cross-peer verification breaks.
//
// Supported value types: nil, bool, string, int, int32, int64, uint,
// uint32, uint64, []byte (hex-encoded), map[string]any, and []any built
// from the same set. float32/float64 are rejected.
func Canonical(v any) ([]byte, error) {
	var sb strings.Builder
	if err := encodeValue(&sb, v); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func encodeValue(sb *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if val {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case string:
		encodeString(sb, val)
	case int:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		sb.WriteString(strconv.FormatInt(val, 10))
	case uint:
		sb.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint32:
		sb.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint64:
		sb.WriteString(strconv.FormatUint(val, 10))
	case []byte:
		encodeString(sb, fmt.Sprintf("%x", val))
	case float32, float64:
		return fmt.Errorf("canonical encoding forbids floating-point values (got %T)", v)
	case map[string]any:
		return encodeObject(sb, val)
	case []any:
		return encodeArray(sb, val)
	default:
		return fmt.Errorf("canonical encoding: unsupported type %T", v)
	}
	return nil
}

func encodeObject(sb *strings.Builder, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		encodeString(sb, k)
		sb.WriteByte(':')
		if err := encodeValue(sb, m[k]); err != nil {
			return err
		}
	}
	sb.WriteByte('}')
	return nil
}

func encodeArray(sb *strings.Builder, arr []any) error {
	sb.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			sb.WriteByte(',')
		}
		if err := encodeValue(sb, elem); err != nil {
			return err
		}
	}
	sb.WriteByte(']')
	return nil
}

// encodeString writes a JSON string literal with standard escaping.
// We hand-roll this (rather than reach for encoding/json) because the
// canonical form must never insert the whitespace encoding/json's
// Encoder appends after each token, and because we need full control
// over key ordering at every nesting level rather than relying on
// struct field order.
func encodeString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				sb.WriteString(fmt.Sprintf(`\u%04x`, r))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}
