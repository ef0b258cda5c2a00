package stage

import (
	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/platform/errors"
)

// StyleFinisher is the last stage. It applies the look of the selected
// style: final contrast and saturation, sharpening, optional tint and
// vignette.
type StyleFinisher struct {
	table *Table
}

func NewStyleFinisher(table *Table) *StyleFinisher {
	return &StyleFinisher{table: table}
}

func (s *StyleFinisher) Name() string { return "style_finish" }

func (s *StyleFinisher) Apply(a *artifact.Artifact, style string) (*artifact.Artifact, error) {
	preset, ok := s.table.Lookup(style)
	if !ok {
		return nil, errors.New(errors.KindStage, "stage.style", "unknown style: "+style)
	}
	if !a.Valid() {
		return nil, errors.New(errors.KindStage, "stage.style", "invalid input artifact")
	}

	f := preset.Finish
	out := adjust(a, f.Saturation*f.Desaturate, f.Contrast, 1.0)
	out = sharpen(out, f.Sharpen)
	out = tint(out, f.Tint, f.TintAmount)
	out = vignette(out, f.Vignette)
	return out, nil
}
