package ingest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

var (
	ErrMalformedRow = errors.New("each row must be a JSON object")
	ErrEmptySchema  = errors.New("rows must be JSON objects with at least one key")
	ErrNoChunks     = errors.New("no chunks produced from content")
)

// HashRow computes the content fingerprint of a row: the record is re-serialized
// as canonical JSON (sorted keys, no whitespace) and hashed with SHA-256. Key
// order on the wire does not affect the result.
func HashRow(raw json.RawMessage) (string, error) {
	var record map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber() // keep numeric literals byte-exact
	if err := dec.Decode(&record); err != nil || record == nil {
		return "", ErrMalformedRow
	}

	canon, err := canonicalJSON(record)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// rowKeys returns the top-level keys of a JSON object in document order.
// Anything other than an object is a malformed row.
func rowKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	t, err := dec.Token()
	if err != nil {
		return nil, ErrMalformedRow
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return nil, ErrMalformedRow
	}

	var keys []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, ErrMalformedRow
		}
		key, ok := kt.(string)
		if !ok {
			return nil, ErrMalformedRow
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, ErrMalformedRow
		}
	}
	return keys, nil
}

func skipValue(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := t.(json.Delim); ok && (d == '{' || d == '[') {
		depth := 1
		for depth > 0 {
			t, err := dec.Token()
			if err != nil {
				return err
			}
			if d, ok := t.(json.Delim); ok {
				switch d {
				case '{', '[':
					depth++
				case '}', ']':
					depth--
				}
			}
		}
	}
	return nil
}
