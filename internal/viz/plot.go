package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// PlotSeries draws values as a line chart. Series longer than width are
// decimated.
func PlotSeries(values []float64, width, height int, caption string) string {
	if len(values) == 0 {
		return Subtle.Render("(no data)")
	}
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 10
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// PlotNodes overlays several node series on one chart.
func PlotNodes(series map[int][]float64, nodes []int, width, height int) string {
	data := make([][]float64, 0, len(nodes))
	names := make([]string, 0, len(nodes))
	for _, k := range nodes {
		if s, ok := series[k]; ok && len(s) > 0 {
			data = append(data, s)
			names = append(names, fmt.Sprintf("node %d", k))
		}
	}
	if len(data) == 0 {
		return Subtle.Render("(no data)")
	}
	colors := []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow}
	seriesColors := make([]asciigraph.AnsiColor, len(data))
	for i := range data {
		seriesColors[i] = colors[i%len(colors)]
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(seriesColors...),
		asciigraph.Caption(strings.Join(names, ", ")),
	)
}

var shades = []rune{' ', '░', '▒', '▓', '█'}

// Heatmap renders one value per coarse node, row j of the grid on line j, with
// node k = j*side + i. lo and hi fix the colour scale; pass lo == hi to scale
// to the values themselves.
func Heatmap(values []float64, side int, lo, hi float64) string {
	if side <= 0 || len(values) < side*side {
		return Subtle.Render("(no data)")
	}
	if lo == hi {
		lo, hi = values[0], values[0]
		for _, v := range values[:side*side] {
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for j := 0; j < side; j++ {
		for i := 0; i < side; i++ {
			norm := (values[j*side+i] - lo) / rng
			norm = max(0, min(1, norm))
			c := string(shades[int(norm*float64(len(shades)-1))])
			cell := c + c
			switch {
			case norm > 0.7:
				b.WriteString(Hot.Render(cell))
			case norm > 0.3:
				b.WriteString(Warm.Render(cell))
			default:
				b.WriteString(Cold.Render(cell))
			}
		}
		if j < side-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
