// Package codec provides the built-in codecs: JSON with schema validation,
// UTF-8 text, and raw binary. All of them satisfy corpus.Codec.
package codec

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/f0rbit/corpus"
)

// Validator checks (and possibly coerces) a decoded JSON value into T.
// Anything with a fallible Parse works; schema packages adapt via
// ValidatorFunc.
type Validator[T any] interface {
	Parse(v any) (T, error)
}

// ValidatorFunc adapts a plain function to Validator.
type ValidatorFunc[T any] func(v any) (T, error)

func (f ValidatorFunc[T]) Parse(v any) (T, error) { return f(v) }

// ─── JSON ─────────────────────────────────────────────────────────────────────

type jsonCodec[T any] struct {
	schema Validator[T]
}

// JSON builds a JSON codec validated by schema on decode. Encode marshals
// the value as-is and does not validate; encoding a value whose decode later
// fails is legal. A nil schema decodes structurally into T.
func JSON[T any](schema Validator[T]) corpus.Codec[T] {
	return jsonCodec[T]{schema: schema}
}

func (jsonCodec[T]) ContentType() string { return "application/json" }

func (jsonCodec[T]) Encode(value T) ([]byte, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, corpus.WrapErr(corpus.KindEncode, "codec.json", err)
	}
	return b, nil
}

func (c jsonCodec[T]) Decode(data []byte) (T, error) {
	var zero T
	if c.schema == nil {
		var out T
		if err := json.Unmarshal(data, &out); err != nil {
			return zero, corpus.WrapErr(corpus.KindDecode, "codec.json", err)
		}
		return out, nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return zero, corpus.WrapErr(corpus.KindDecode, "codec.json", err)
	}
	out, err := c.schema.Parse(raw)
	if err != nil {
		return zero, corpus.WrapErr(corpus.KindValidation, "codec.json", err)
	}
	return out, nil
}

// ─── Text ─────────────────────────────────────────────────────────────────────

type textCodec struct{}

// Text builds the UTF-8 pass-through codec. Decode rejects invalid UTF-8.
func Text() corpus.Codec[string] { return textCodec{} }

func (textCodec) ContentType() string { return "text/plain" }

func (textCodec) Encode(value string) ([]byte, error) {
	return []byte(value), nil
}

func (textCodec) Decode(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", corpus.Errorf(corpus.KindDecode, "codec.text", "invalid UTF-8")
	}
	return string(data), nil
}

// ─── Raw ──────────────────────────────────────────────────────────────────────

type rawCodec struct{}

// Raw builds the identity codec over byte slices.
func Raw() corpus.Codec[[]byte] { return rawCodec{} }

func (rawCodec) ContentType() string { return "application/octet-stream" }

func (rawCodec) Encode(value []byte) ([]byte, error) { return value, nil }

func (rawCodec) Decode(data []byte) ([]byte, error) { return data, nil }
