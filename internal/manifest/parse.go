package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

const sha256Prefix = "sha256:"

// ParseBytes decodes a manifest document and parses it
func ParseBytes(data []byte) (*Manifest, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not valid UTF-8", ErrInvalidFormat)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidFormat)
	}

	raw, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrInvalidFormat
	}
	return Parse(raw)
}

// Parse builds a Manifest from a decoded JSON object.
//
// Rows that are not objects are dropped. Rows that are objects must carry a
// valid path and digest or the whole parse fails.
func Parse(raw map[string]any) (*Manifest, error) {
	kind, rows, ok := selectRows(raw)
	if !ok {
		return nil, ErrMissingEntries
	}

	m := &Manifest{
		Kind:           kind,
		Entries:        make([]Entry, 0, len(rows)),
		BundleSHA256:   declaredDigest(raw["bundle_sha256"]),
		ManifestSHA256: declaredDigest(raw["manifest_sha256"]),
		Raw:            raw,
	}

	for _, row := range rows {
		fields, ok := row.(map[string]any)
		if !ok {
			m.Skipped++
			continue
		}
		entry, err := parseEntry(fields)
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, entry)
	}

	return m, nil
}

func selectRows(raw map[string]any) (Kind, []any, bool) {
	if rows, ok := raw[string(KindEntries)].([]any); ok {
		return KindEntries, rows, true
	}
	if rows, ok := raw[string(KindFiles)].([]any); ok {
		return KindFiles, rows, true
	}
	return "", nil, false
}

func parseEntry(fields map[string]any) (Entry, error) {
	path, err := NormalizePath(stringValue(fields["path"]))
	if err != nil {
		return Entry{}, err
	}

	rawSHA := stringValue(fields["sha256"])
	sha, ok := NormalizeSHA256(rawSHA)
	if !ok {
		return Entry{}, newValidationError(ErrInvalidSHA256,
			fmt.Sprintf("invalid sha256 for %q: %q", path, rawSHA))
	}

	return Entry{Path: path, SHA256: sha, Size: integerValue(fields["size"])}, nil
}

// NormalizePath validates a bundle-relative path and returns it with
// backslashes converted and surrounding whitespace removed
func NormalizePath(raw string) (string, error) {
	token := strings.TrimSpace(strings.ReplaceAll(raw, `\`, "/"))
	if token == "" {
		return "", newValidationError(ErrInvalidPath, "entry path is empty")
	}
	if strings.HasPrefix(token, "/") {
		return "", newValidationError(ErrInvalidPath, fmt.Sprintf("entry path is absolute: %q", raw))
	}
	for _, part := range strings.Split(token, "/") {
		if part == "" || part == "." || part == ".." {
			return "", newValidationError(ErrInvalidPath, fmt.Sprintf("entry path is not normalized: %q", raw))
		}
	}
	return token, nil
}

// NormalizeSHA256 lowercases a declared digest, strips an optional
// "sha256:" prefix and reports whether 64 hex characters remain
func NormalizeSHA256(raw string) (string, bool) {
	sha := strings.ToLower(strings.TrimSpace(raw))
	sha = strings.TrimPrefix(sha, sha256Prefix)
	if len(sha) != 64 {
		return sha, false
	}
	for _, c := range sha {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return sha, false
		}
	}
	return sha, true
}

func declaredDigest(v any) string {
	return strings.ToLower(strings.TrimSpace(stringValue(v)))
}

// stringValue renders a decoded JSON scalar as text. Absent, null, false
// and zero values become the empty string.
func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return ""
		}
		return val.String()
	case bool:
		if !val {
			return ""
		}
		return strconv.FormatBool(val)
	case int:
		if val == 0 {
			return ""
		}
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}

// integerValue accepts integer literals only; anything else is absent
func integerValue(v any) *int64 {
	var n int64
	switch val := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseInt(val.String(), 10, 64)
		if err != nil {
			return nil
		}
		n = parsed
	case int:
		n = int64(val)
	case int64:
		n = val
	default:
		return nil
	}
	return &n
}
