package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// selfHashField is excluded from the canonical form before hashing
const selfHashField = "manifest_sha256"

// AggregateBundleHash digests the declared path/hash pairs in path order.
// Each entry contributes its path bytes followed by its hex digest, with no
// separators, to a single running SHA-256.
func AggregateBundleHash(entries []Entry) string {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	h := sha256.New()
	for _, e := range sorted {
		_, _ = io.WriteString(h, e.Path)
		_, _ = io.WriteString(h, e.SHA256)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SelfHash returns the SHA-256 of the canonical manifest with the
// manifest_sha256 field removed
func SelfHash(raw map[string]any) (string, error) {
	sealed := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == selfHashField {
			continue
		}
		sealed[k] = v
	}

	data, err := CanonicalJSON(sealed)
	if err != nil {
		return "", fmt.Errorf("canonicalize manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalJSON serializes v with sorted object keys, no insignificant
// whitespace and non-ASCII text emitted literally. json.Number values are
// written verbatim.
func CanonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(val.String())
	case string:
		writeString(buf, val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		// Values built in code (ints, structs, typed slices) are
		// round-tripped into the generic shapes handled above.
		data, err := json.Marshal(val)
		if err != nil {
			return err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var generic any
		if err := dec.Decode(&generic); err != nil {
			return err
		}
		return writeCanonical(buf, generic)
	}
	return nil
}

const hexDigits = "0123456789abcdef"

// writeString quotes s escaping only the quote, the backslash and control
// characters below U+0020
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
				continue
			}
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}
