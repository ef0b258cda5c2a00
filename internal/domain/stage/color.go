package stage

import (
	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/platform/errors"
)

// ColorCorrector is the first post-processing stage. It normalises
// white balance and applies the base tone of the selected style.
type ColorCorrector struct {
	table *Table
}

func NewColorCorrector(table *Table) *ColorCorrector {
	return &ColorCorrector{table: table}
}

func (c *ColorCorrector) Name() string { return "color_correction" }

func (c *ColorCorrector) Apply(a *artifact.Artifact, style string) (*artifact.Artifact, error) {
	preset, ok := c.table.Lookup(style)
	if !ok {
		return nil, errors.New(errors.KindStage, "stage.color", "unknown style: "+style)
	}
	if !a.Valid() {
		return nil, errors.New(errors.KindStage, "stage.color", "invalid input artifact")
	}

	out := a
	if preset.Color.WhiteBalance {
		out = grayWorld(out)
	}
	out = adjust(out, preset.Color.Saturation, preset.Color.Contrast, preset.Color.Brightness)
	return out, nil
}
