package field

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/pdegraph/internal/graphseq"
	"github.com/san-kum/pdegraph/internal/lattice"
)

const valueSize = 8

// Decoder turns a raw snapshot into a transformed ScalarField. The zero value
// decodes little-endian snapshots without transforms. Transforms apply in
// the order Rotate, Flip, Mirror.
type Decoder struct {
	Rotate    int
	Flip      bool
	Mirror    bool
	ByteOrder binary.ByteOrder
}

func NewDecoder(rotate int, flip bool, order binary.ByteOrder) *Decoder {
	return &Decoder{Rotate: rotate, Flip: flip, ByteOrder: order}
}

func (d *Decoder) order() binary.ByteOrder {
	if d.ByteOrder == nil {
		return binary.LittleEndian
	}
	return d.ByteOrder
}

// DecodeFile reads the whole snapshot at path.
func (d *Decoder) DecodeFile(path string) (*ScalarField, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &graphseq.DecodeError{Path: path, Reason: "read", Err: err}
	}
	return d.decode(path, raw)
}

// Decode converts raw bytes into a field, then applies Rotate and Flip.
func (d *Decoder) Decode(raw []byte) (*ScalarField, error) {
	return d.decode("<memory>", raw)
}

func (d *Decoder) decode(path string, raw []byte) (*ScalarField, error) {
	if len(raw) == 0 {
		return nil, &graphseq.DecodeError{Path: path, Reason: "empty snapshot"}
	}
	if len(raw)%valueSize != 0 {
		return nil, &graphseq.DecodeError{
			Path:   path,
			Reason: fmt.Sprintf("%d bytes is not a multiple of %d", len(raw), valueSize),
		}
	}

	count := len(raw) / valueSize
	side, ok := lattice.ExactSqrt(count)
	if !ok {
		return nil, &graphseq.DecodeError{
			Path:   path,
			Reason: fmt.Sprintf("%d values do not form a square grid", count),
		}
	}

	order := d.order()
	values := make([]float64, count)
	for i := range values {
		values[i] = math.Float64frombits(order.Uint64(raw[i*valueSize:]))
	}

	f := &ScalarField{Side: side, Values: values}
	if d.Rotate%4 != 0 {
		f = f.Rotate(d.Rotate)
	}
	if d.Flip {
		f = f.Flip()
	}
	if d.Mirror {
		f = f.Mirror()
	}
	return f, nil
}

// Encode writes the field values in the given byte order, row-major.
func Encode(f *ScalarField, order binary.ByteOrder) []byte {
	if order == nil {
		order = binary.LittleEndian
	}
	out := make([]byte, len(f.Values)*valueSize)
	for i, v := range f.Values {
		order.PutUint64(out[i*valueSize:], math.Float64bits(v))
	}
	return out
}

// WriteFile stores f in the simulator snapshot format.
func WriteFile(path string, f *ScalarField, order binary.ByteOrder) error {
	return os.WriteFile(path, Encode(f, order), 0644)
}

// ParseByteOrder accepts "little", "big" or "native" (the host order).
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "little", "le":
		return binary.LittleEndian, nil
	case "native":
		return binary.NativeEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	default:
		return nil, graphseq.Configf("byte_order", "unknown byte order %q", s)
	}
}
