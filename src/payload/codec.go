package payload

import (
	"fmt"
	"strings"

	"github.com/mosaicnetworks/relay/src/crypto"
)

// Codec turns payloads into bytes and back, and projects them for
// recipients.
type Codec interface {
	Encode(p *EncodedPayload) []byte
	Decode(data []byte) (*EncodedPayload, error)
	Projector
}

// Generation identifies a wire format generation. Each Generation is also a
// Codec for its own format.
type Generation uint8

const (
	// Legacy carries no privacy metadata.
	Legacy Generation = iota
	// V2 adds privacy mode, affected contract transactions and exec hash.
	V2
	// V3 adds the privacy group id.
	V3
)

// Current is the newest generation this node speaks. It decodes blobs of any
// generation.
const Current = V3

// section is one generation's contribution to the wire format.
type section struct {
	encode func(w *wireWriter, p *EncodedPayload)
	decode func(r *wireReader, b *Builder) error
}

var sections = [...]section{
	Legacy: {encode: encodeLegacy, decode: decodeLegacy},
	V2:     {encode: encodeV2, decode: decodeV2},
	V3:     {encode: encodeV3, decode: decodeV3},
}

// ParseGeneration parses "legacy", "v2" or "v3".
func ParseGeneration(s string) (Generation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy", "v1":
		return Legacy, nil
	case "v2":
		return V2, nil
	case "v3", "":
		return V3, nil
	default:
		return Current, fmt.Errorf("unknown payload generation %q", s)
	}
}

// String ...
func (g Generation) String() string {
	switch g {
	case Legacy:
		return "legacy"
	case V2:
		return "v2"
	case V3:
		return "v3"
	default:
		return fmt.Sprintf("generation(%d)", uint8(g))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (g Generation) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Generation) UnmarshalText(text []byte) error {
	parsed, err := ParseGeneration(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func (g Generation) valid() bool {
	return int(g) < len(sections)
}

// Encode writes p in the format of g. Fields that g cannot represent are
// dropped.
func (g Generation) Encode(p *EncodedPayload) []byte {
	if !g.valid() {
		g = Current
	}
	w := &wireWriter{}
	for gen := Legacy; gen <= g; gen++ {
		sections[gen].encode(w, p)
	}
	return w.bytes()
}

// Decode reads data written by g or by any older generation. Fields of
// generations that are not present take their default values, and bytes that
// belong to generations newer than g are ignored.
func (g Generation) Decode(data []byte) (*EncodedPayload, error) {
	p, _, err := decode(data, g)
	return p, err
}

// ForRecipient implements Projector.
func (g Generation) ForRecipient(p *EncodedPayload, key crypto.PublicKey) (*EncodedPayload, error) {
	return ForRecipient(p, key)
}

// WithRecipient implements Projector.
func (g Generation) WithRecipient(p *EncodedPayload, key crypto.PublicKey) (*EncodedPayload, error) {
	return WithRecipient(p, key)
}

// DetectGeneration returns the oldest generation able to carry everything
// present in data. A V3 blob without a privacy group id is indistinguishable
// from a V2 blob and is reported as V2.
func DetectGeneration(data []byte) (Generation, error) {
	_, gen, err := decode(data, Current)
	return gen, err
}

func decode(data []byte, upTo Generation) (*EncodedPayload, Generation, error) {
	if !upTo.valid() {
		return nil, Legacy, fmt.Errorf("unknown payload generation %d", upTo)
	}

	r := &wireReader{data: data}
	b := NewBuilder()

	found := Legacy
	if err := sections[Legacy].decode(r, b); err != nil {
		return nil, Legacy, err
	}
	for gen := V2; gen <= upTo && r.remaining() > 0; gen++ {
		if err := sections[gen].decode(r, b); err != nil {
			return nil, found, err
		}
		found = gen
	}

	if upTo == Current && r.remaining() > 0 {
		return nil, found, r.fail("%d unexpected trailing bytes", r.remaining())
	}

	p, err := b.Build()
	if err != nil {
		return nil, found, &DecodeFormatError{Offset: r.off, Reason: err.Error()}
	}
	return p, found, nil
}
