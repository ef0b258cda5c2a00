package stage

import (
	"math"

	"photopipe-server-go/internal/domain/artifact"
)

// Pixel primitives shared by the stage processors. All operations are
// pure over the input artifact and deterministic: identical input and
// parameters yield byte-identical output. Alpha is carried through
// unchanged unless stated otherwise.

func clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// grayWorld applies white balance using the gray-world assumption:
// channel means are pulled towards the global luminance mean.
func grayWorld(a *artifact.Artifact) *artifact.Artifact {
	var sumR, sumG, sumB, n float64
	for i := 0; i < len(a.Pix); i += 4 {
		if a.Pix[i+3] == 0 {
			continue
		}
		sumR += float64(a.Pix[i])
		sumG += float64(a.Pix[i+1])
		sumB += float64(a.Pix[i+2])
		n++
	}
	if n == 0 {
		return a.Clone()
	}

	avgR, avgG, avgB := sumR/n, sumG/n, sumB/n
	gray := (avgR + avgG + avgB) / 3
	scaleR, scaleG, scaleB := safeScale(gray, avgR), safeScale(gray, avgG), safeScale(gray, avgB)

	out := a.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = clamp(float64(a.Pix[i]) * scaleR)
		out.Pix[i+1] = clamp(float64(a.Pix[i+1]) * scaleG)
		out.Pix[i+2] = clamp(float64(a.Pix[i+2]) * scaleB)
	}
	return out
}

func safeScale(target, avg float64) float64 {
	if avg < 1 {
		return 1
	}
	scale := target / avg
	// limit correction strength so extreme product colours survive
	if scale > 1.25 {
		scale = 1.25
	}
	if scale < 0.8 {
		scale = 0.8
	}
	return scale
}

// adjust applies saturation, contrast and brightness multipliers.
func adjust(a *artifact.Artifact, saturation, contrast, brightness float64) *artifact.Artifact {
	out := a.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		r := float64(a.Pix[i])
		g := float64(a.Pix[i+1])
		b := float64(a.Pix[i+2])

		lum := 0.299*r + 0.587*g + 0.114*b
		r = lum + (r-lum)*saturation
		g = lum + (g-lum)*saturation
		b = lum + (b-lum)*saturation

		r = (r-128)*contrast + 128
		g = (g-128)*contrast + 128
		b = (b-128)*contrast + 128

		out.Pix[i] = clamp(r * brightness)
		out.Pix[i+1] = clamp(g * brightness)
		out.Pix[i+2] = clamp(b * brightness)
	}
	return out
}

// boxBlur smooths colour channels with a normalised box kernel.
func boxBlur(a *artifact.Artifact, radius int) *artifact.Artifact {
	if radius < 1 {
		return a.Clone()
	}
	out := a.Clone()
	w, h := a.Width, a.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sumR, sumG, sumB, count int
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					i := (yy*w + xx) * 4
					sumR += int(a.Pix[i])
					sumG += int(a.Pix[i+1])
					sumB += int(a.Pix[i+2])
					count++
				}
			}
			i := (y*w + x) * 4
			out.Pix[i] = uint8(sumR / count)
			out.Pix[i+1] = uint8(sumG / count)
			out.Pix[i+2] = uint8(sumB / count)
		}
	}
	return out
}

// blendToward mixes t of b into a, per colour channel.
func blendToward(a, b *artifact.Artifact, t float64) *artifact.Artifact {
	out := a.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = clamp(float64(a.Pix[i])*(1-t) + float64(b.Pix[i])*t)
		out.Pix[i+1] = clamp(float64(a.Pix[i+1])*(1-t) + float64(b.Pix[i+1])*t)
		out.Pix[i+2] = clamp(float64(a.Pix[i+2])*(1-t) + float64(b.Pix[i+2])*t)
	}
	return out
}

// sharpen applies unsharp masking: original plus amount times the
// difference from a radius-1 blur.
func sharpen(a *artifact.Artifact, amount float64) *artifact.Artifact {
	if amount <= 1 {
		return a.Clone()
	}
	blurred := boxBlur(a, 1)
	strength := amount - 1
	out := a.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = clamp(float64(a.Pix[i]) + strength*(float64(a.Pix[i])-float64(blurred.Pix[i])))
		out.Pix[i+1] = clamp(float64(a.Pix[i+1]) + strength*(float64(a.Pix[i+1])-float64(blurred.Pix[i+1])))
		out.Pix[i+2] = clamp(float64(a.Pix[i+2]) + strength*(float64(a.Pix[i+2])-float64(blurred.Pix[i+2])))
	}
	return out
}

// tint shifts colour temperature: positive warms (red up, blue down),
// negative cools. amount controls the blend strength.
func tint(a *artifact.Artifact, temperature int, amount float64) *artifact.Artifact {
	if temperature == 0 || amount <= 0 {
		return a.Clone()
	}
	shift := float64(temperature) * amount
	out := a.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = clamp(float64(a.Pix[i]) + shift)
		out.Pix[i+2] = clamp(float64(a.Pix[i+2]) - shift)
	}
	return out
}

// vignette darkens pixels radially from the centre.
func vignette(a *artifact.Artifact, strength float64) *artifact.Artifact {
	if strength <= 0 {
		return a.Clone()
	}
	out := a.Clone()
	w, h := a.Width, a.Height
	cx, cy := float64(w)/2, float64(h)/2
	maxDist := math.Sqrt(cx*cx + cy*cy)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			factor := 1 - strength*(math.Sqrt(dx*dx+dy*dy)/maxDist)
			i := (y*w + x) * 4
			out.Pix[i] = clamp(float64(a.Pix[i]) * factor)
			out.Pix[i+1] = clamp(float64(a.Pix[i+1]) * factor)
			out.Pix[i+2] = clamp(float64(a.Pix[i+2]) * factor)
		}
	}
	return out
}
