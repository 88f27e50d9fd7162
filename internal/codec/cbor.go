// Package codec encodes stored document bodies as deterministic CBOR.
//
// Core Deterministic Encoding (RFC 8949 section 4.2) sorts map keys, so the
// same fields always produce the same bytes regardless of map iteration order.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Document bodies are flat string maps; anything deeper is corrupt.
		MaxNestedLevels: 4,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodeFields encodes a string map document body.
func EncodeFields(fields map[string]string) ([]byte, error) {
	if fields == nil {
		fields = map[string]string{}
	}
	data, err := Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("codec: encode fields: %w", err)
	}
	return data, nil
}

// DecodeFields decodes a body produced by EncodeFields.
func DecodeFields(data []byte) (map[string]string, error) {
	fields := make(map[string]string)
	if len(data) == 0 {
		return fields, nil
	}
	if err := Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("codec: decode fields: %w", err)
	}
	return fields, nil
}
