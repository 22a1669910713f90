package thumbs

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, w, h int, fill color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSwatch(t *testing.T) {
	t.Run("Renders Cells", func(t *testing.T) {
		data := encodePNG(t, 64, 36, color.NRGBA{R: 255, A: 255})

		got, err := Swatch(data, 4, 2)
		if err != nil {
			t.Fatalf("Swatch() error = %v", err)
		}

		lines := strings.Split(got, "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(lines))
		}
		for i, line := range lines {
			if n := strings.Count(line, halfBlock); n != 4 {
				t.Errorf("row %d: expected 4 cells, got %d", i, n)
			}
		}
	})

	t.Run("Defaults Dimensions", func(t *testing.T) {
		data := encodePNG(t, 8, 8, color.White)

		got, err := Swatch(data, 0, 0)
		if err != nil {
			t.Fatalf("Swatch() error = %v", err)
		}
		if n := strings.Count(got, halfBlock); n != DefaultWidth*DefaultHeight {
			t.Errorf("expected %d cells, got %d", DefaultWidth*DefaultHeight, n)
		}
	})

	t.Run("Invalid Image", func(t *testing.T) {
		if _, err := Swatch([]byte("definitely not an image"), 4, 1); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestHex(t *testing.T) {
	tests := []struct {
		name string
		c    color.Color
		want string
	}{
		{"red", color.NRGBA{R: 255, A: 255}, "#ff0000"},
		{"black", color.Black, "#000000"},
		{"white", color.White, "#ffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hex(tt.c); got != tt.want {
				t.Errorf("hex() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlaceholder(t *testing.T) {
	if got := Placeholder(3); got != "▒▒▒" {
		t.Errorf("Placeholder(3) = %q", got)
	}
	if got := Placeholder(0); len([]rune(got)) != DefaultWidth {
		t.Errorf("Placeholder(0) = %q", got)
	}
}
