// package thumbs turns thumbnail images into small coloured swatches for terminal rendering.
//
// Each terminal cell shows two pixels: the upper half block "▀" takes the top pixel as its
// foreground and the bottom pixel as its background.
package thumbs

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
)

const (
	DefaultWidth  = 6
	DefaultHeight = 1

	halfBlock = "▀"

	// Fallback is rendered in place of a swatch while a thumbnail is faulted.
	Fallback = "▒"
)

// Swatch decodes image bytes and renders them as a width×height cell swatch.
func Swatch(data []byte, width, height int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode thumbnail: %w", err)
	}

	small := imaging.Resize(img, width, height*2, imaging.Box)
	return render(small, width, height), nil
}

func render(img image.Image, width, height int) string {
	b := img.Bounds()
	rows := make([]string, 0, height)
	for row := range height {
		var sb strings.Builder
		for x := range width {
			top := img.At(b.Min.X+x, b.Min.Y+row*2)
			bottom := img.At(b.Min.X+x, b.Min.Y+row*2+1)
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(top))).
				Background(lipgloss.Color(hex(bottom)))
			sb.WriteString(style.Render(halfBlock))
		}
		rows = append(rows, sb.String())
	}
	return strings.Join(rows, "\n")
}

// Placeholder renders the fallback glyph at swatch width.
func Placeholder(width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	return strings.Repeat(Fallback, width)
}

func hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
