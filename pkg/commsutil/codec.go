package commsutil

import (
	"bytes"
	"encoding/json"
)

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target. Numbers
// decoded into untyped values are kept as json.Number so identifiers in
// request content are not rounded through float64.
func DecodePayload(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
