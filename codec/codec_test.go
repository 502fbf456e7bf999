package codec_test

import (
	"fmt"
	"testing"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/codec"
)

type speech struct {
	Text  string `json:"text"`
	Words int    `json:"words"`
}

// speechSchema validates the decoded shape and coerces it into a speech.
var speechSchema = codec.ValidatorFunc[speech](func(v any) (speech, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return speech{}, fmt.Errorf("want object, got %T", v)
	}
	text, ok := obj["text"].(string)
	if !ok {
		return speech{}, fmt.Errorf("text must be a string")
	}
	words, _ := obj["words"].(float64)
	return speech{Text: text, Words: int(words)}, nil
})

func TestJSONRoundTrip(t *testing.T) {
	c := codec.JSON[speech](speechSchema)
	if c.ContentType() != "application/json" {
		t.Errorf("content type = %q", c.ContentType())
	}

	in := speech{Text: "Hello, world!", Words: 2}
	encoded, err := c.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := c.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
}

func TestJSONSchemaRejects(t *testing.T) {
	c := codec.JSON[speech](speechSchema)
	_, err := c.Decode([]byte(`{"text": 42}`))
	if corpus.KindOf(err) != corpus.KindValidation {
		t.Errorf("invalid shape: got %v, want validation_error", err)
	}

	_, err = c.Decode([]byte(`{not json`))
	if corpus.KindOf(err) != corpus.KindDecode {
		t.Errorf("malformed json: got %v, want decode_error", err)
	}
}

func TestJSONNilSchemaStructural(t *testing.T) {
	c := codec.JSON[map[string]any](nil)
	encoded, err := c.Encode(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := c.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["a"] != float64(1) {
		t.Errorf("decoded = %v", out)
	}
}

func TestEncodeDoesNotValidate(t *testing.T) {
	// Encoding a value whose decode would fail is legal; only decode checks.
	c := codec.JSON[speech](codec.ValidatorFunc[speech](func(any) (speech, error) {
		return speech{}, fmt.Errorf("always invalid")
	}))
	if _, err := c.Encode(speech{Text: "x"}); err != nil {
		t.Errorf("encode validated: %v", err)
	}
}

func TestTextCodec(t *testing.T) {
	c := codec.Text()
	encoded, err := c.Encode("héllo")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := c.Decode(encoded)
	if err != nil || out != "héllo" {
		t.Fatalf("round trip: %q, %v", out, err)
	}

	if _, err := c.Decode([]byte{0xff, 0xfe}); corpus.KindOf(err) != corpus.KindDecode {
		t.Errorf("invalid utf-8: got %v, want decode_error", err)
	}
}

func TestRawCodec(t *testing.T) {
	c := codec.Raw()
	blob := []byte{0x00, 0xff, 0x10}
	encoded, err := c.Encode(blob)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := c.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(out) != string(blob) {
		t.Errorf("round trip altered bytes: %v", out)
	}
	if c.ContentType() != "application/octet-stream" {
		t.Errorf("content type = %q", c.ContentType())
	}
}
