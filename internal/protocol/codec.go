package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec selects the frame encoding of a connection. Both codecs use the
// json struct tags, so field names are identical on the wire.
type Codec string

const (
	CodecMsgpack Codec = "msgpack"
	CodecJSON    Codec = "json"
)

// ParseCodec maps a query parameter onto a codec; empty means msgpack.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", string(CodecMsgpack):
		return CodecMsgpack, nil
	case string(CodecJSON):
		return CodecJSON, nil
	}
	return "", fmt.Errorf("unknown codec %q", s)
}

// Binary reports whether frames of this codec go out as binary websocket
// messages.
func (c Codec) Binary() bool { return c != CodecJSON }

func (c Codec) Marshal(v any) ([]byte, error) {
	if c == CodecJSON {
		return json.Marshal(v)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Codec) Unmarshal(b []byte, v any) error {
	if c == CodecJSON {
		return json.Unmarshal(b, v)
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// DecodeInput decodes one client frame and rejects inputs the world cannot
// act on.
func DecodeInput(c Codec, b []byte) (PlayerInput, error) {
	var in PlayerInput
	if err := c.Unmarshal(b, &in); err != nil {
		return in, Rejectf(ErrProtoBadRequest, "bad input frame: %v", err)
	}
	if in.Action != nil && in.Action.Kind == "" {
		return in, Rejectf(ErrProtoBadRequest, "action without kind")
	}
	if !finite(in.Movement.X) || !finite(in.Movement.Y) {
		return in, Rejectf(ErrBadRequest, "movement must be finite")
	}
	if in.Action != nil && (!finite(in.Action.X) || !finite(in.Action.Y)) {
		return in, Rejectf(ErrBadRequest, "action position must be finite")
	}
	return in, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
