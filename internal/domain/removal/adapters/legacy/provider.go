package legacy

import (
	"context"

	"photopipe-server-go/internal/domain/artifact"
	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
)

// colour distance below which a pixel joins the background region
const tolerance = 40

// Provider is the terminal fallback: classic border-seeded
// segmentation with no model weights and no external calls. Quality is
// acceptable only on clean studio shots, but it always answers.
type Provider struct {
	cfg    config.ModelConfig
	logger *logging.Logger
}

func NewProvider(cfg config.ModelConfig, logger *logging.Logger) (*Provider, error) {
	return &Provider{cfg: cfg, logger: logger}, nil
}

func (p *Provider) RemoveBackground(ctx context.Context, in *artifact.Artifact) (*artifact.Artifact, error) {
	if !in.Valid() {
		return nil, errors.New(errors.KindBackendError, "removal.legacy", "invalid input artifact")
	}

	w, h := in.Width, in.Height
	background := make([]bool, w*h)
	visited := make([]bool, w*h)

	// flood fill from every border pixel: anything colour-connected to
	// the frame edge is background
	queue := make([]int, 0, 2*(w+h))
	for x := 0; x < w; x++ {
		queue = append(queue, x, (h-1)*w+x)
	}
	for y := 1; y < h-1; y++ {
		queue = append(queue, y*w, y*w+w-1)
	}

	for len(queue) > 0 {
		if len(queue)%4096 == 0 && ctx.Err() != nil {
			return nil, errors.Wrap(errors.KindBackendTimeout, "removal.legacy", "segmentation cancelled", ctx.Err())
		}

		idx := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[idx] {
			continue
		}
		visited[idx] = true
		background[idx] = true

		x, y := idx%w, idx/w
		for _, n := range neighbours(x, y, w, h) {
			if !visited[n] && similar(in.Pix, idx, n) {
				queue = append(queue, n)
			}
		}
	}

	out := in.Clone()
	out.Mode = artifact.ModeRGBA
	for i := 0; i < w*h; i++ {
		if background[i] {
			out.Pix[i*4+3] = 0
		} else {
			out.Pix[i*4+3] = 255
		}
	}
	return out, nil
}

func neighbours(x, y, w, h int) []int {
	n := make([]int, 0, 4)
	if x > 0 {
		n = append(n, y*w+x-1)
	}
	if x < w-1 {
		n = append(n, y*w+x+1)
	}
	if y > 0 {
		n = append(n, (y-1)*w+x)
	}
	if y < h-1 {
		n = append(n, (y+1)*w+x)
	}
	return n
}

func similar(pix []uint8, a, b int) bool {
	ai, bi := a*4, b*4
	dist := absDiff(pix[ai], pix[bi]) + absDiff(pix[ai+1], pix[bi+1]) + absDiff(pix[ai+2], pix[bi+2])
	return dist <= tolerance
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
