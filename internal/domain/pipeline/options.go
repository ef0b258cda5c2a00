package pipeline

import (
	"fmt"

	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/domain/stage"
	"photopipe-server-go/internal/platform/errors"
)

// Options selects how a single pipeline run behaves. Colour
// enhancement and wrinkle smoothing are per-request toggles; style
// finishing always runs.
type Options struct {
	Style          string
	EnhanceColor   bool
	RemoveWrinkles bool
	JobID          string
}

func validateRequest(in *artifact.Artifact, opts Options, table *stage.Table) error {
	if in == nil || !in.Valid() {
		return errors.New(errors.KindValidation, "pipeline.validate", "input image is empty or malformed")
	}
	if opts.Style == "" {
		return errors.New(errors.KindValidation, "pipeline.validate", "style is required")
	}
	if _, ok := table.Lookup(opts.Style); !ok {
		return errors.New(errors.KindValidation, "pipeline.validate",
			fmt.Sprintf("unknown style %q, known styles: %v", opts.Style, table.Styles()))
	}
	return nil
}
