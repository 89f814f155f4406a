// Package viz renders extraction results for the terminal: styled summary
// panels, node series plots and shaded coarse-grid heatmaps.
package viz
