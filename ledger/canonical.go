package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// stableJSON encodes v with sorted map keys and without HTML escaping.
func stableJSON(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// canonicalize round-trips v through JSON so that the ledger owns a plain tree
// of maps, slices, strings, bools and json.Number values. Hashes computed over
// the result are reproducible after an export and import.
func canonicalize(v any) (map[string]any, error) {
	raw, err := stableJSON(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnserializable, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnserializable, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// withoutSignature returns a shallow copy of payload with the signature field
// removed, which is the message a Signer signs.
func withoutSignature(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == FieldSignature {
			continue
		}
		out[k] = v
	}
	return out
}
