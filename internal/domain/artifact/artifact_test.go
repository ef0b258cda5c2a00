package artifact

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solidArtifact(w, h int, c color.NRGBA) *Artifact {
	a := New(w, h, ModeRGBA)
	for i := 0; i < len(a.Pix); i += 4 {
		a.Pix[i] = c.R
		a.Pix[i+1] = c.G
		a.Pix[i+2] = c.B
		a.Pix[i+3] = c.A
	}
	return a
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	a, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if a.Width != 8 || a.Height != 6 {
		t.Fatalf("unexpected size %dx%d", a.Width, a.Height)
	}
	if a.Mode != ModeRGBA {
		t.Fatalf("expected RGBA mode for png, got %s", a.Mode)
	}
	if !bytes.Equal(a.Pix, img.Pix) {
		t.Fatal("pixel data mismatch after decode")
	}

	encoded, err := a.EncodePNG()
	if err != nil {
		t.Fatalf("EncodePNG error: %v", err)
	}
	back, err := Decode(encoded)
	if err != nil {
		t.Fatalf("re-decode error: %v", err)
	}
	if !bytes.Equal(back.Pix, a.Pix) {
		t.Fatal("png round trip is not lossless")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := solidArtifact(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	b := a.Clone()
	b.Pix[0] = 99
	if a.Pix[0] == 99 {
		t.Fatal("clone shares pixel storage with original")
	}
}

func TestFitToRatio(t *testing.T) {
	a := solidArtifact(200, 100, color.NRGBA{R: 255, A: 255})

	out, err := FitToRatio(a, "1:1")
	if err != nil {
		t.Fatalf("FitToRatio error: %v", err)
	}
	if out.Width != 1080 || out.Height != 1080 {
		t.Fatalf("unexpected canvas size %dx%d", out.Width, out.Height)
	}

	// a wide source centred on a square canvas leaves transparent bands
	// at top and bottom
	topIdx := (10*out.Width + out.Width/2) * 4
	if out.Pix[topIdx+3] != 0 {
		t.Error("expected transparent padding above the fitted image")
	}
	midIdx := ((out.Height/2)*out.Width + out.Width/2) * 4
	if out.Pix[midIdx+3] == 0 {
		t.Error("expected opaque pixels at canvas centre")
	}

	if _, err := FitToRatio(a, "3:7"); err == nil {
		t.Error("expected error for unknown ratio")
	}
}

func TestCompositeBackground(t *testing.T) {
	a := New(2, 1, ModeRGBA)
	// left pixel fully transparent, right pixel opaque red
	a.Pix[4] = 255
	a.Pix[7] = 255

	out := CompositeBackground(a, color.NRGBA{R: 0, G: 0, B: 255, A: 255})
	if out.Mode != ModeRGB {
		t.Fatalf("expected RGB mode, got %s", out.Mode)
	}
	if out.Pix[2] != 255 {
		t.Error("transparent pixel should take the background colour")
	}
	if out.Pix[4] != 255 || out.Pix[6] != 0 {
		t.Error("opaque pixel should keep its own colour")
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#FF8000")
	if err != nil {
		t.Fatalf("ParseHexColor error: %v", err)
	}
	if c.R != 255 || c.G != 128 || c.B != 0 || c.A != 255 {
		t.Fatalf("unexpected colour %+v", c)
	}
	if _, err := ParseHexColor("red"); err == nil {
		t.Error("expected error for non-hex input")
	}
}
