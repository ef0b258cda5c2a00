package stage

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/platform/config"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	return NewTable(config.DefaultConfig().Styles)
}

func gradientArtifact(w, h int) *artifact.Artifact {
	a := artifact.New(w, h, artifact.ModeRGBA)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			a.Pix[i] = uint8((x * 255) / w)
			a.Pix[i+1] = uint8((y * 255) / h)
			a.Pix[i+2] = uint8(((x + y) * 255) / (w + h))
			a.Pix[i+3] = 255
		}
	}
	return a
}

func solid(w, h int, c color.NRGBA) *artifact.Artifact {
	a := artifact.New(w, h, artifact.ModeRGBA)
	for i := 0; i < len(a.Pix); i += 4 {
		a.Pix[i], a.Pix[i+1], a.Pix[i+2], a.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return a
}

func TestTableStyles(t *testing.T) {
	table := testTable(t)
	assert.Equal(t, []string{"minimal", "mood", "street"}, table.Styles())

	_, ok := table.Lookup("minimal")
	assert.True(t, ok)
	_, ok = table.Lookup("vaporwave")
	assert.False(t, ok)
}

func TestStagesAreDeterministic(t *testing.T) {
	table := testTable(t)
	in := gradientArtifact(32, 24)

	stages := []interface {
		Name() string
		Apply(*artifact.Artifact, string) (*artifact.Artifact, error)
	}{
		NewColorCorrector(table),
		NewWrinkleSmoother(table),
		NewStyleFinisher(table),
	}

	for _, s := range stages {
		for _, style := range table.Styles() {
			first, err := s.Apply(in, style)
			require.NoError(t, err, "%s/%s", s.Name(), style)
			second, err := s.Apply(in, style)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(first.Pix, second.Pix),
				"%s is not deterministic for style %s", s.Name(), style)
		}
	}
}

func TestStagesDoNotMutateInput(t *testing.T) {
	table := testTable(t)
	in := gradientArtifact(16, 16)
	snapshot := in.Clone()

	corrector := NewColorCorrector(table)
	_, err := corrector.Apply(in, "street")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(in.Pix, snapshot.Pix), "input artifact was mutated")
}

func TestColorCorrectorUnknownStyle(t *testing.T) {
	corrector := NewColorCorrector(testTable(t))
	_, err := corrector.Apply(gradientArtifact(4, 4), "nope")
	assert.Error(t, err)
}

func TestWrinkleSmootherSoftensDetail(t *testing.T) {
	table := NewTable(map[string]config.StyleConfig{
		"soft": {
			Smooth: config.SmoothConfig{Radius: 2, Blend: 0.8, Passes: 2},
		},
	})

	// single bright pixel on a dark field: smoothing must pull it down
	in := solid(9, 9, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	centre := (4*9 + 4) * 4
	in.Pix[centre] = 250

	out, err := NewWrinkleSmoother(table).Apply(in, "soft")
	require.NoError(t, err)
	assert.Less(t, out.Pix[centre], in.Pix[centre])
	assert.Equal(t, uint8(255), out.Pix[centre+3], "alpha must survive smoothing")
}

func TestWrinkleSmootherZeroRadiusIsIdentity(t *testing.T) {
	table := NewTable(map[string]config.StyleConfig{
		"flat": {},
	})
	in := gradientArtifact(8, 8)
	out, err := NewWrinkleSmoother(table).Apply(in, "flat")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(in.Pix, out.Pix))
}

func TestStyleFinisherMoodDesaturates(t *testing.T) {
	table := testTable(t)
	in := solid(8, 8, color.NRGBA{R: 200, G: 60, B: 60, A: 255})

	out, err := NewStyleFinisher(table).Apply(in, "mood")
	require.NoError(t, err)

	i := (4*8 + 4) * 4
	inSpread := int(in.Pix[i]) - int(in.Pix[i+1])
	outSpread := int(out.Pix[i]) - int(out.Pix[i+1])
	assert.Less(t, outSpread, inSpread, "mood style should reduce channel spread")
}

func TestStyleFinisherStreetBoostsContrast(t *testing.T) {
	table := testTable(t)
	in := gradientArtifact(16, 16)

	out, err := NewStyleFinisher(table).Apply(in, "street")
	require.NoError(t, err)

	darkIdx := 0
	brightIdx := len(in.Pix) - 4
	assert.LessOrEqual(t, out.Pix[darkIdx], in.Pix[darkIdx])
	assert.GreaterOrEqual(t, out.Pix[brightIdx], in.Pix[brightIdx])
}

func TestStyleFinisherVignetteDarkensCorners(t *testing.T) {
	table := NewTable(map[string]config.StyleConfig{
		"vig": {
			Finish: config.FinishConfig{Vignette: 0.5},
		},
	})
	in := solid(20, 20, color.NRGBA{R: 200, G: 200, B: 200, A: 255})

	out, err := NewStyleFinisher(table).Apply(in, "vig")
	require.NoError(t, err)

	corner := out.Pix[0]
	centre := out.Pix[(10*20+10)*4]
	assert.Less(t, corner, centre)
}
