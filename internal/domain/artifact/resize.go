package artifact

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// RatioPresets maps advertisement canvas ratios to output dimensions.
var RatioPresets = map[string][2]int{
	"4:5":  {1080, 1350},
	"1:1":  {1080, 1080},
	"16:9": {1080, 566},
}

// FitToRatio scales the artifact to fit inside the preset canvas while
// preserving aspect ratio, centred on a transparent canvas.
func FitToRatio(a *Artifact, ratio string) (*Artifact, error) {
	target, ok := RatioPresets[ratio]
	if !ok {
		return nil, fmt.Errorf("unknown ratio %q", ratio)
	}
	targetW, targetH := target[0], target[1]

	srcAspect := float64(a.Width) / float64(a.Height)
	dstAspect := float64(targetW) / float64(targetH)

	var newW, newH int
	if srcAspect > dstAspect {
		newW = targetW
		newH = int(float64(newW) / srcAspect)
	} else {
		newH = targetH
		newW = int(float64(newH) * srcAspect)
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	src := a.ToImage()
	scaled := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Over, nil)

	canvas := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))
	offsetX := (targetW - newW) / 2
	offsetY := (targetH - newH) / 2
	xdraw.Draw(canvas, image.Rect(offsetX, offsetY, offsetX+newW, offsetY+newH), scaled, image.Point{}, xdraw.Over)

	return FromImage(canvas, ModeRGBA), nil
}

// CompositeBackground flattens an RGBA artifact onto a solid colour,
// producing an RGB artifact.
func CompositeBackground(a *Artifact, bg color.NRGBA) *Artifact {
	out := New(a.Width, a.Height, ModeRGB)
	for i := 0; i < len(a.Pix); i += 4 {
		alpha := uint32(a.Pix[i+3])
		out.Pix[i] = uint8((uint32(a.Pix[i])*alpha + uint32(bg.R)*(255-alpha)) / 255)
		out.Pix[i+1] = uint8((uint32(a.Pix[i+1])*alpha + uint32(bg.G)*(255-alpha)) / 255)
		out.Pix[i+2] = uint8((uint32(a.Pix[i+2])*alpha + uint32(bg.B)*(255-alpha)) / 255)
		out.Pix[i+3] = 255
	}
	return out
}

// ParseHexColor parses "#RRGGBB" (or "RRGGBB") into an opaque colour.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}
