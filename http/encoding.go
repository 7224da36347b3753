package http

import (
	"math"
	"net/http"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/htm/models"
	"google.golang.org/protobuf/encoding/protowire"
)

const ErrTypeDecode = "decode_error"

// Trixel record fields.
const (
	fieldIndex    protowire.Number = 1
	fieldName     protowire.Number = 2
	fieldDepth    protowire.Number = 3
	fieldVertices protowire.Number = 4
	fieldLeaf     protowire.Number = 5
	fieldChildren protowire.Number = 6
	fieldRange    protowire.Number = 7
)

// Trixel list fields.
const (
	fieldTrixels protowire.Number = 1
)

func wantsProtobuf(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), ContentTypeProtobuf)
}

// AppendTrixelRecord appends the protobuf wire encoding of r to b. Vertex
// coordinates are packed as doubles, vertex after vertex.
func AppendTrixelRecord(b []byte, r models.TrixelRecord) []byte {
	b = protowire.AppendTag(b, fieldIndex, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, r.Index)

	b = protowire.AppendTag(b, fieldName, protowire.BytesType)
	b = protowire.AppendString(b, r.Name)

	b = protowire.AppendTag(b, fieldDepth, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Depth))

	var vertices []byte
	for _, v := range r.Vertices {
		for _, c := range v {
			vertices = protowire.AppendFixed64(vertices, math.Float64bits(c))
		}
	}
	b = protowire.AppendTag(b, fieldVertices, protowire.BytesType)
	b = protowire.AppendBytes(b, vertices)

	if r.Leaf {
		b = protowire.AppendTag(b, fieldLeaf, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(r.Leaf))
	}

	for _, c := range r.Children {
		b = protowire.AppendTag(b, fieldChildren, protowire.BytesType)
		b = protowire.AppendString(b, c)
	}

	if len(r.Range) != 0 {
		var rng []byte
		for _, v := range r.Range {
			rng = protowire.AppendFixed64(rng, v)
		}
		b = protowire.AppendTag(b, fieldRange, protowire.BytesType)
		b = protowire.AppendBytes(b, rng)
	}

	return b
}

// ConsumeTrixelRecord decodes a trixel record encoded with
// AppendTrixelRecord. Unknown fields are skipped.
func ConsumeTrixelRecord(b []byte) (models.TrixelRecord, error) {
	var r models.TrixelRecord
	var coords []float64

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, decodeError(n)
		}
		b = b[n:]

		switch {
		case num == fieldIndex && typ == protowire.Fixed64Type:
			r.Index, n = protowire.ConsumeFixed64(b)

		case num == fieldName && typ == protowire.BytesType:
			r.Name, n = protowire.ConsumeString(b)

		case num == fieldDepth && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			r.Depth = int(v)

		case num == fieldVertices && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			for len(packed) > 0 {
				v, m := protowire.ConsumeFixed64(packed)
				if m < 0 {
					return r, decodeError(m)
				}
				coords = append(coords, math.Float64frombits(v))
				packed = packed[m:]
			}

		case num == fieldLeaf && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			r.Leaf = protowire.DecodeBool(v)

		case num == fieldChildren && typ == protowire.BytesType:
			var c string
			c, n = protowire.ConsumeString(b)
			r.Children = append(r.Children, c)

		case num == fieldRange && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			for len(packed) > 0 {
				v, m := protowire.ConsumeFixed64(packed)
				if m < 0 {
					return r, decodeError(m)
				}
				r.Range = append(r.Range, v)
				packed = packed[m:]
			}

		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}

		if n < 0 {
			return r, decodeError(n)
		}
		b = b[n:]
	}

	// A trixel always has 3 vertices.
	if len(coords)%3 != 0 {
		return r, errors.New("vertex coordinates are not a multiple of 3").
			WithType(ErrTypeDecode).
			WithTag("count", len(coords))
	}
	if dim := len(coords) / 3; dim != 0 {
		for i := 0; i < 3; i++ {
			r.Vertices = append(r.Vertices, coords[i*dim : (i+1)*dim : (i+1)*dim])
		}
	}
	return r, nil
}

// AppendTrixelList appends the protobuf wire encoding of a list of trixel
// records to b.
func AppendTrixelList(b []byte, records []models.TrixelRecord) []byte {
	var buf []byte
	for _, r := range records {
		buf = AppendTrixelRecord(buf[:0], r)
		b = protowire.AppendTag(b, fieldTrixels, protowire.BytesType)
		b = protowire.AppendBytes(b, buf)
	}
	return b
}

// ConsumeTrixelList decodes a list encoded with AppendTrixelList.
func ConsumeTrixelList(b []byte) ([]models.TrixelRecord, error) {
	var records []models.TrixelRecord

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, decodeError(n)
		}
		b = b[n:]

		if num != fieldTrixels || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, decodeError(n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, decodeError(n)
		}
		b = b[n:]

		r, err := ConsumeTrixelRecord(v)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, nil
}

func decodeError(n int) error {
	return errors.New("decoding protobuf failed").
		WithType(ErrTypeDecode).
		Wrap(protowire.ParseError(n))
}
