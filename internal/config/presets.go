package config

// Presets are named augmentation schemes. Every variant of a preset yields a
// different field; "half-turn" is the flip option alone.
var Presets = map[string][]Variant{
	"identity": {
		{},
	},
	"half-turn": {
		{},
		{Flip: 1},
	},
	"mirror": {
		{},
		{Mirror: true},
	},
	"rotations": {
		{Rotate: 0},
		{Rotate: 1},
		{Rotate: 2},
		{Rotate: 3},
	},
	"dihedral": {
		{Rotate: 0},
		{Rotate: 1},
		{Rotate: 2},
		{Rotate: 3},
		{Rotate: 0, Mirror: true},
		{Rotate: 1, Mirror: true},
		{Rotate: 2, Mirror: true},
		{Rotate: 3, Mirror: true},
	},
}

func GetPreset(name string) []Variant {
	v, ok := Presets[name]
	if !ok {
		return nil
	}
	out := make([]Variant, len(v))
	copy(out, v)
	return out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
