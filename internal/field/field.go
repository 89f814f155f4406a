// Package field decodes simulator snapshots into square scalar fields and
// applies the augmentation transforms.
package field

// ScalarField is a square field stored row-major: Values[y*Side + x].
type ScalarField struct {
	Side   int
	Values []float64
}

func (f *ScalarField) At(x, y int) float64 {
	return f.Values[y*f.Side+x]
}

func (f *ScalarField) Clone() *ScalarField {
	v := make([]float64, len(f.Values))
	copy(v, f.Values)
	return &ScalarField{Side: f.Side, Values: v}
}

// Rotate returns the field turned k quarter turns clockwise. Negative k
// turns counter-clockwise.
func (f *ScalarField) Rotate(k int) *ScalarField {
	k = ((k % 4) + 4) % 4
	out := f
	for ; k > 0; k-- {
		out = out.rotateClockwise()
	}
	if out == f {
		return f.Clone()
	}
	return out
}

func (f *ScalarField) rotateClockwise() *ScalarField {
	n := f.Side
	out := make([]float64, len(f.Values))
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out[r*n+c] = f.Values[(n-1-c)*n+r]
		}
	}
	return &ScalarField{Side: n, Values: out}
}

// Flip reverses the field along both axes, which is the same as Rotate(2).
func (f *ScalarField) Flip() *ScalarField {
	n := len(f.Values)
	out := make([]float64, n)
	for i, v := range f.Values {
		out[n-1-i] = v
	}
	return &ScalarField{Side: f.Side, Values: out}
}

// Mirror reverses every row, turning x into Side-1-x. Unlike Flip it is not
// a rotation.
func (f *ScalarField) Mirror() *ScalarField {
	n := f.Side
	out := make([]float64, len(f.Values))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			out[y*n+x] = f.Values[y*n+n-1-x]
		}
	}
	return &ScalarField{Side: n, Values: out}
}

// MinMax returns the smallest and largest value.
func (f *ScalarField) MinMax() (lo, hi float64) {
	if len(f.Values) == 0 {
		return 0, 0
	}
	lo, hi = f.Values[0], f.Values[0]
	for _, v := range f.Values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
