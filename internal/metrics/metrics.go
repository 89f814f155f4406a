package metrics

import (
	"math"

	"github.com/san-kum/pdegraph/internal/graphseq"
)

// Metric accumulates a statistic over the rows of a node series.
type Metric interface {
	Name() string
	Observe(row []float64)
	Value() float64
	Reset()
}

type Min struct {
	v    float64
	seen bool
}

func NewMin() *Min { return &Min{} }

func (m *Min) Name() string { return "min" }

func (m *Min) Observe(row []float64) {
	for _, v := range row {
		if !m.seen || v < m.v {
			m.v, m.seen = v, true
		}
	}
}

func (m *Min) Value() float64 { return m.v }
func (m *Min) Reset()         { m.v, m.seen = 0, false }

type Max struct {
	v    float64
	seen bool
}

func NewMax() *Max { return &Max{} }

func (m *Max) Name() string { return "max" }

func (m *Max) Observe(row []float64) {
	for _, v := range row {
		if !m.seen || v > m.v {
			m.v, m.seen = v, true
		}
	}
}

func (m *Max) Value() float64 { return m.v }
func (m *Max) Reset()         { m.v, m.seen = 0, false }

type Mean struct {
	sum   float64
	count int
}

func NewMean() *Mean { return &Mean{} }

func (m *Mean) Name() string { return "mean" }

func (m *Mean) Observe(row []float64) {
	for _, v := range row {
		m.sum += v
	}
	m.count += len(row)
}

func (m *Mean) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

func (m *Mean) Reset() { m.sum, m.count = 0, 0 }

// Finite is the fraction of values that are neither NaN nor infinite.
type Finite struct {
	finite, count int
}

func NewFinite() *Finite { return &Finite{} }

func (m *Finite) Name() string { return "finite" }

func (m *Finite) Observe(row []float64) {
	for _, v := range row {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			m.finite++
		}
	}
	m.count += len(row)
}

func (m *Finite) Value() float64 {
	if m.count == 0 {
		return 1.0
	}
	return float64(m.finite) / float64(m.count)
}

func (m *Finite) Reset() { m.finite, m.count = 0, 0 }

func Default() []Metric {
	return []Metric{NewMin(), NewMax(), NewMean(), NewFinite()}
}

// Summarize resets ms, feeds every row of s and returns the values by name.
func Summarize(s *graphseq.NodeSeries, ms ...Metric) map[string]float64 {
	if len(ms) == 0 {
		ms = Default()
	}
	for _, m := range ms {
		m.Reset()
	}
	if s != nil {
		for _, row := range s.Rows {
			for _, m := range ms {
				m.Observe(row)
			}
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
