package localneural

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/nfnt/resize"
	"golang.org/x/sync/semaphore"

	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
)

// matteResolution is the working resolution of the saliency matte.
// The matte is computed downscaled and resized back to full size.
const matteResolution = 320

// Provider runs saliency-based matting in process. It is the primary
// backend: highest quality cutouts, but memory hungry, so concurrency
// is gated by a weighted semaphore and oversized inputs are rejected
// before any allocation happens.
type Provider struct {
	cfg    config.ModelConfig
	logger *logging.Logger
	sem    *semaphore.Weighted
}

func NewProvider(cfg config.ModelConfig, logger *logging.Logger) (*Provider, error) {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return &Provider{
		cfg:    cfg,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}, nil
}

func (p *Provider) RemoveBackground(ctx context.Context, in *artifact.Artifact) (*artifact.Artifact, error) {
	if p.cfg.MaxPixels > 0 && in.PixelCount() > p.cfg.MaxPixels {
		return nil, errors.New(errors.KindBackendError, "removal.localneural",
			fmt.Sprintf("image exceeds %d pixel limit", p.cfg.MaxPixels))
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(errors.KindBackendTimeout, "removal.localneural", "acquire inference slot", err)
	}
	defer p.sem.Release(1)

	matte := p.computeMatte(in)

	out := in.Clone()
	out.Mode = artifact.ModeRGBA
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i+3] = matte.Pix[i/4]
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.KindBackendTimeout, "removal.localneural", "inference cancelled", err)
	}
	return out, nil
}

// computeMatte produces a per-pixel foreground alpha. The estimate
// combines colour distance from the border (background sample) with a
// centre prior, computed at a reduced working resolution.
func (p *Provider) computeMatte(in *artifact.Artifact) *image.Gray {
	src := in.ToImage()

	workW, workH := in.Width, in.Height
	if workW > matteResolution || workH > matteResolution {
		if workW >= workH {
			workH = workH * matteResolution / workW
			workW = matteResolution
		} else {
			workW = workW * matteResolution / workH
			workH = matteResolution
		}
		if workW < 1 {
			workW = 1
		}
		if workH < 1 {
			workH = 1
		}
	}
	small := resize.Resize(uint(workW), uint(workH), src, resize.Bilinear)

	avgR, avgG, avgB := borderAverage(small, workW, workH)

	matte := image.NewGray(image.Rect(0, 0, workW, workH))
	cx, cy := float64(workW)/2, float64(workH)/2
	maxDist := math.Sqrt(cx*cx + cy*cy)
	for y := 0; y < workH; y++ {
		for x := 0; x < workW; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			dr := float64(r>>8) - avgR
			dg := float64(g>>8) - avgG
			db := float64(b>>8) - avgB
			colorDist := math.Sqrt(dr*dr+dg*dg+db*db) / 441.7

			dx, dy := float64(x)-cx, float64(y)-cy
			centre := 1 - math.Sqrt(dx*dx+dy*dy)/maxDist

			score := 0.7*colorDist + 0.3*centre
			// soft threshold around the decision boundary
			alpha := (score - 0.25) / 0.2
			if alpha < 0 {
				alpha = 0
			}
			if alpha > 1 {
				alpha = 1
			}
			matte.SetGray(x, y, color.Gray{Y: uint8(alpha*255 + 0.5)})
		}
	}

	full := resize.Resize(uint(in.Width), uint(in.Height), matte, resize.Bilinear)
	out := image.NewGray(image.Rect(0, 0, in.Width, in.Height))
	for y := 0; y < in.Height; y++ {
		for x := 0; x < in.Width; x++ {
			r, _, _, _ := full.At(x, y).RGBA()
			out.Pix[y*in.Width+x] = uint8(r >> 8)
		}
	}
	return out
}

func borderAverage(img image.Image, w, h int) (r, g, b float64) {
	var sumR, sumG, sumB, n float64
	sample := func(x, y int) {
		pr, pg, pb, _ := img.At(x, y).RGBA()
		sumR += float64(pr >> 8)
		sumG += float64(pg >> 8)
		sumB += float64(pb >> 8)
		n++
	}
	for x := 0; x < w; x++ {
		sample(x, 0)
		sample(x, h-1)
	}
	for y := 1; y < h-1; y++ {
		sample(0, y)
		sample(w-1, y)
	}
	if n == 0 {
		return 0, 0, 0
	}
	return sumR / n, sumG / n, sumB / n
}
