package stage

import (
	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/platform/errors"
)

// WrinkleSmoother softens fabric creases by blending the image toward
// a blurred copy. Edge detail is retained by keeping the blend partial;
// alpha is untouched so the cutout silhouette stays crisp.
type WrinkleSmoother struct {
	table *Table
}

func NewWrinkleSmoother(table *Table) *WrinkleSmoother {
	return &WrinkleSmoother{table: table}
}

func (w *WrinkleSmoother) Name() string { return "wrinkle_removal" }

func (w *WrinkleSmoother) Apply(a *artifact.Artifact, style string) (*artifact.Artifact, error) {
	preset, ok := w.table.Lookup(style)
	if !ok {
		return nil, errors.New(errors.KindStage, "stage.wrinkle", "unknown style: "+style)
	}
	if !a.Valid() {
		return nil, errors.New(errors.KindStage, "stage.wrinkle", "invalid input artifact")
	}

	if preset.Smooth.Radius < 1 || preset.Smooth.Blend <= 0 {
		return a.Clone(), nil
	}

	out := a
	for pass := 0; pass < preset.Smooth.Passes; pass++ {
		smoothed := boxBlur(out, preset.Smooth.Radius)
		out = blendToward(out, smoothed, preset.Smooth.Blend)
	}
	return out, nil
}
