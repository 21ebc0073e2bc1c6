package snapshot

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/snappy"
)

// ErrCorrupt reports durable text that cannot be turned back into an image.
// Callers treat it as "no usable snapshot".
var ErrCorrupt = errors.New("corrupt snapshot")

const (
	MimeImage       = "application/x-sqlite3"
	MimeImageSnappy = "application/x-sqlite3+snappy"

	dataPrefix   = "data:"
	base64Marker = ";base64"
)

// Codec encodes database images as data URLs.
// The zero value writes uncompressed snapshots.
type Codec struct {
	Compress bool
}

// Encode returns the durable text form of image. It never fails.
func (c Codec) Encode(image []byte) string {
	mime := MimeImage
	payload := image
	if c.Compress {
		mime = MimeImageSnappy
		payload = snappy.Encode(nil, image)
	}

	var b strings.Builder
	b.Grow(len(dataPrefix) + len(mime) + len(base64Marker) + 1 + base64.StdEncoding.EncodedLen(len(payload)))
	b.WriteString(dataPrefix)
	b.WriteString(mime)
	b.WriteString(base64Marker)
	b.WriteByte(',')
	b.WriteString(base64.StdEncoding.EncodeToString(payload))
	return b.String()
}

// Decode is the inverse of Encode. Errors wrap ErrCorrupt.
func (c Codec) Decode(text string) ([]byte, error) {
	if !strings.HasPrefix(text, dataPrefix) {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrCorrupt, dataPrefix)
	}

	header, payload, ok := strings.Cut(text[len(dataPrefix):], ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload separator", ErrCorrupt)
	}

	mime, isBase64 := strings.CutSuffix(header, base64Marker)
	if !isBase64 {
		return nil, fmt.Errorf("%w: payload is not base64", ErrCorrupt)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", ErrCorrupt, err)
	}

	if mime == MimeImageSnappy {
		raw, err = snappy.Decode(nil, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: decode snappy: %v", ErrCorrupt, err)
		}
	}

	if raw == nil {
		raw = []byte{}
	}
	return raw, nil
}
