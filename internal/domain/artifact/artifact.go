package artifact

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	_ "image/gif"
)

// Mode identifies the pixel mode of an artifact.
type Mode string

const (
	ModeRGB  Mode = "RGB"
	ModeRGBA Mode = "RGBA"
)

// Artifact is an in-memory raster buffer. Pixels are stored RGBA,
// four bytes per pixel, row-major. Artifacts are treated as immutable
// once produced: a stage reads its input and returns a new Artifact.
type Artifact struct {
	Pix    []uint8
	Width  int
	Height int
	Mode   Mode
}

// New allocates a zeroed artifact of the given size.
func New(width, height int, mode Mode) *Artifact {
	return &Artifact{
		Pix:    make([]uint8, width*height*4),
		Width:  width,
		Height: height,
		Mode:   mode,
	}
}

// Decode parses an encoded image (png, jpeg or gif).
func Decode(data []byte) (*Artifact, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	mode := ModeRGB
	if format == "png" || format == "gif" {
		mode = ModeRGBA
	}
	return FromImage(img, mode), nil
}

// FromImage copies an image.Image into an artifact buffer.
func FromImage(img image.Image, mode Mode) *Artifact {
	bounds := img.Bounds()
	a := New(bounds.Dx(), bounds.Dy(), mode)

	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == a.Width*4 && bounds.Min == (image.Point{}) {
		copy(a.Pix, nrgba.Pix)
		return a
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			a.Pix[i] = c.R
			a.Pix[i+1] = c.G
			a.Pix[i+2] = c.B
			a.Pix[i+3] = c.A
			i += 4
		}
	}
	return a
}

// ToImage copies the artifact into a standalone image.NRGBA.
func (a *Artifact) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, a.Width, a.Height))
	copy(img.Pix, a.Pix)
	return img
}

// Clone returns a deep copy with the same mode.
func (a *Artifact) Clone() *Artifact {
	out := New(a.Width, a.Height, a.Mode)
	copy(out.Pix, a.Pix)
	return out
}

// Valid reports whether the buffer length matches the dimensions.
func (a *Artifact) Valid() bool {
	return a != nil && a.Width > 0 && a.Height > 0 && len(a.Pix) == a.Width*a.Height*4
}

// PixelCount returns the number of pixels.
func (a *Artifact) PixelCount() int64 {
	return int64(a.Width) * int64(a.Height)
}

// EncodePNG serialises the artifact as PNG, preserving alpha.
func (a *Artifact) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, a.ToImage()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG serialises the artifact as JPEG. Transparent pixels are
// composited onto white since JPEG carries no alpha channel.
func (a *Artifact) EncodeJPEG(quality int) ([]byte, error) {
	img := a.ToImage()
	if a.Mode == ModeRGBA {
		flat := image.NewNRGBA(img.Bounds())
		for i := 0; i < len(img.Pix); i += 4 {
			alpha := uint32(img.Pix[i+3])
			flat.Pix[i] = uint8((uint32(img.Pix[i])*alpha + 255*(255-alpha)) / 255)
			flat.Pix[i+1] = uint8((uint32(img.Pix[i+1])*alpha + 255*(255-alpha)) / 255)
			flat.Pix[i+2] = uint8((uint32(img.Pix[i+2])*alpha + 255*(255-alpha)) / 255)
			flat.Pix[i+3] = 255
		}
		img = flat
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
