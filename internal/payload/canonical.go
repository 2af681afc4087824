package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 ordered JSON for v, for digests and
// snapshots.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are written as-is)
//  3. Strings are NFC normalized
//  4. Integer literals are kept as written, whatever their magnitude;
//     other numbers are written in shortest round-trip form
//
// v may be a Value or any plain Go value FromInterface accepts.
func MarshalCanonical(v any) ([]byte, error) {
	return marshal(v, true)
}

// MarshalOrdered is MarshalCanonical without the normalisation: strings
// are written with their original code points and numbers with their
// original literal. Use it where tool output is stored rather than
// compared.
func MarshalOrdered(v any) ([]byte, error) {
	return marshal(v, false)
}

func marshal(v any, normalize bool) ([]byte, error) {
	val, err := FromInterface(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeValue(&buf, val, normalize); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value, normalize bool) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case String:
		b, err := encodeString(string(val), normalize)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Number:
		s, err := encodeNumber(json.Number(val), normalize)
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem, normalize); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := encodeString(k, normalize)
			if err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeValue(buf, val[k], normalize); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported payload value: %T", v)
	}
	return nil
}

// encodeString encodes s without HTML escaping, NFC normalising it first
// when normalize is set. Only control characters, backslash and quote are
// escaped.
func encodeString(s string, normalize bool) ([]byte, error) {
	if normalize {
		s = norm.NFC.String(s)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return unescapeLineSeparators(out), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes json.Encoder
// emits back into literal characters, leaving \\u2028 (an escaped backslash
// followed by text) alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && data[i+1] == 'u' &&
			data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			slashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				slashes++
			}
			if slashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// encodeNumber writes n. Literals that are not JSON number syntax are
// rejected. Unnormalised output is the literal itself; normalised output
// keeps integer literals and rewrites everything else in shortest form.
func encodeNumber(n json.Number, normalize bool) (string, error) {
	lit := string(n)
	if !isNumberLiteral(lit) {
		return "", fmt.Errorf("invalid number %q", lit)
	}
	if !normalize || isIntegerLiteral(lit) {
		return lit, nil
	}
	f, err := n.Float64()
	if err != nil {
		return "", fmt.Errorf("invalid number %q: %w", lit, err)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", fmt.Errorf("number %q is not finite", lit)
	}
	return formatFloat(f), nil
}

// isNumberLiteral reports whether s is exactly one JSON number.
func isNumberLiteral(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	last := s[len(s)-1]
	return last >= '0' && last <= '9' && json.Valid([]byte(s))
}

// isIntegerLiteral reports whether s is "-"? digits with no fraction or
// exponent. Callers have already checked isNumberLiteral.
func isIntegerLiteral(s string) bool {
	return !strings.ContainsAny(s, ".eE")
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// CanonicalJSON marshals v with encoding/json and re-encodes the output in
// canonical form. Use it for structs, which MarshalCanonical does not
// accept directly.
func CanonicalJSON(v any) ([]byte, error) {
	return reencode(v, true)
}

// OrderedJSON is CanonicalJSON built on MarshalOrdered.
func OrderedJSON(v any) ([]byte, error) {
	return reencode(v, false)
}

func reencode(v any, normalize bool) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	val, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return marshal(val, normalize)
}
