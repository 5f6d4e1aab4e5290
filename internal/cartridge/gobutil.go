package cartridge

import (
	"bytes"
	"encoding/gob"
)

func encodeGob(v any) []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(v)
	return buf.Bytes()
}

func decodeGob(b []byte, v any) bool {
	if len(b) == 0 {
		return false
	}
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v) == nil
}
