package plots

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	coral     = color.RGBA{R: 255, G: 127, B: 80, A: 255}
	histBlue  = color.NRGBA{R: 0, G: 0, B: 255, A: 191}
	kdeGreen  = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	kdeFill   = color.NRGBA{R: 0, G: 128, B: 0, A: 64}
	pairBlue  = color.NRGBA{R: 31, G: 119, B: 180, A: 153}
	nanGrey   = color.Gray{Y: 235}
	edgeGrey  = color.Gray{Y: 60}
	plainText = color.Black
)

// textStyle returns a centred text style of the given size in points.
func textStyle(size float64, c color.Color) draw.TextStyle {
	return draw.TextStyle{
		Color:   c,
		Font:    font.From(plot.DefaultFont, vg.Points(size)),
		Handler: plot.DefaultTextHandler,
		XAlign:  draw.XCenter,
		YAlign:  draw.YCenter,
	}
}

// brewerColors returns the named qualitative or sequential brewer palette
// with n colours, cycling the largest available palette when n exceeds it.
func brewerColors(typ brewer.PaletteType, name string, max, n int) []color.Color {
	size := n
	if size < 3 {
		size = 3
	}
	if size > max {
		size = max
	}
	p, err := brewer.GetPalette(typ, name, size)
	if err != nil {
		return generateColors(n, 255)
	}
	return cycle(p, n)
}

func cycle(p palette.Palette, n int) []color.Color {
	src := p.Colors()
	out := make([]color.Color, n)
	for i := range out {
		out[i] = src[i%len(src)]
	}
	return out
}

// pastel and set2 are the categorical palettes of the pie charts.
func pastel(n int) []color.Color { return brewerColors(brewer.TypeQualitative, "Pastel1", 9, n) }
func set2(n int) []color.Color   { return brewerColors(brewer.TypeQualitative, "Set2", 8, n) }

// gradient returns n colours from dark blue to light green, the ordering
// used for ranked bars.
func gradient(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	p, err := brewer.GetPalette(brewer.TypeSequential, "YlGnBu", 9)
	if err != nil {
		return generateColors(n, 255)
	}
	src := p.Colors()
	// Skip the palest entries so every bar stays visible on white.
	src = src[2:]
	out := make([]color.Color, n)
	for i := range out {
		j := len(src) - 1
		if n > 1 {
			j = len(src) - 1 - i*(len(src)-1)/(n-1)
		}
		out[i] = src[j]
	}
	return out
}

// generateColors spreads n colours evenly around the hue circle.
func generateColors(n int, alpha uint8) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.9, 0.5)
		colors[i] = color.NRGBA{R: r, G: g, B: b, A: alpha}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
