package stage

import (
	"sort"

	"photopipe-server-go/internal/platform/config"
)

// ColorPreset parameterises the colour-correction stage.
type ColorPreset struct {
	WhiteBalance bool
	Saturation   float64
	Contrast     float64
	Brightness   float64
}

// SmoothPreset parameterises the wrinkle-removal stage.
type SmoothPreset struct {
	Radius int
	Blend  float64
	Passes int
}

// FinishPreset parameterises the style-finishing stage. Tint is a
// colour temperature shift: positive warms, negative cools.
type FinishPreset struct {
	Contrast   float64
	Saturation float64
	Sharpen    float64
	Desaturate float64
	Tint       int
	TintAmount float64
	Vignette   float64
}

// Preset is one row of the style table.
type Preset struct {
	Color  ColorPreset
	Smooth SmoothPreset
	Finish FinishPreset
}

// Table holds the style presets. It is static configuration data:
// the processors branch on numbers from here, never on style names.
type Table struct {
	presets map[string]Preset
}

// NewTable converts the configured style rows into a preset table.
func NewTable(styles map[string]config.StyleConfig) *Table {
	presets := make(map[string]Preset, len(styles))
	for name, s := range styles {
		presets[name] = Preset{
			Color: ColorPreset{
				WhiteBalance: s.Color.WhiteBalance,
				Saturation:   orDefault(s.Color.Saturation, 1.0),
				Contrast:     orDefault(s.Color.Contrast, 1.0),
				Brightness:   orDefault(s.Color.Brightness, 1.0),
			},
			Smooth: SmoothPreset{
				Radius: s.Smooth.Radius,
				Blend:  s.Smooth.Blend,
				Passes: maxInt(s.Smooth.Passes, 1),
			},
			Finish: FinishPreset{
				Contrast:   orDefault(s.Finish.Contrast, 1.0),
				Saturation: orDefault(s.Finish.Saturation, 1.0),
				Sharpen:    orDefault(s.Finish.Sharpen, 1.0),
				Desaturate: orDefault(s.Finish.Desaturate, 1.0),
				Tint:       s.Finish.Tint,
				TintAmount: s.Finish.TintAmount,
				Vignette:   s.Finish.Vignette,
			},
		}
	}
	return &Table{presets: presets}
}

// Lookup returns the preset row for a style name.
func (t *Table) Lookup(style string) (Preset, bool) {
	p, ok := t.presets[style]
	return p, ok
}

// Styles lists the known style names in stable order.
func (t *Table) Styles() []string {
	names := make([]string, 0, len(t.presets))
	for name := range t.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
