package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Marshal serializes any JSON-representable value to canonical bytes.
// Values that are not already generic JSON containers are normalized
// through an encoding round trip that preserves numeric literals.
func Marshal(value any) ([]byte, error) {
	normalized, err := normalize(value)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encode(&buf, normalized); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash returns the lowercase hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashDocument returns the SHA-256 digest of the canonical form of value.
func HashDocument(value any) (string, error) {
	data, err := Marshal(value)
	if err != nil {
		return "", err
	}
	return Hash(data), nil
}

// normalize converts value into the generic JSON shape the encoder
// understands. Already-generic containers pass through untouched so
// json.Number literals survive.
func normalize(value any) (any, error) {
	switch value.(type) {
	case nil, bool, string, json.Number, float64, map[string]any, []any:
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal value: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var generic any
	if err := decoder.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonical: normalize value: %w", err)
	}
	return generic, nil
}

func encode(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case map[string]any:
		return encodeObject(buf, v)
	case []any:
		return encodeArray(buf, v)
	default:
		// Scalar leaves delegate to encoding/json: string escaping,
		// bool/null literals, raw json.Number output, and the shortest
		// round-trip float form are all fixed there.
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("canonical: encode leaf: %w", err)
		}
		buf.Write(raw)
		return nil
	}
}

func encodeObject(buf *bytes.Buffer, object map[string]any) error {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return fmt.Errorf("canonical: encode key %q: %w", key, err)
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		if err := encode(buf, object[key]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, array []any) error {
	buf.WriteByte('[')
	for i, element := range array {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(buf, element); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}
