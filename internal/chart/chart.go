// Package chart draws a ChartSpec as a PNG image.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/joseph-ayodele/doc-assistant/internal/interpret"
)

const (
	Width  = 640
	Height = 480
)

var (
	background = color.White
	ink        = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	gridInk    = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
)

// RenderPNG draws spec as a pie or bar chart and writes it to w.
func RenderPNG(spec interpret.ChartSpec, w io.Writer) error {
	dc := gg.NewContext(Width, Height)
	dc.SetColor(background)
	dc.Clear()

	dc.SetColor(ink)
	dc.DrawStringAnchored(spec.Title(), Width/2, 24, 0.5, 0.5)

	if spec.ChartType == interpret.Pie {
		drawPie(dc, spec)
	} else {
		drawBars(dc, spec)
	}
	return dc.EncodePNG(w)
}

// Palette returns n evenly spaced, distinguishable colours.
func Palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		out[i] = colorful.Hsv(math.Mod(float64(i)*360/float64(max(n, 1))+210, 360), 0.55, 0.85)
	}
	return out
}

func drawPie(dc *gg.Context, spec interpret.ChartSpec) {
	total := 0.0
	for _, v := range spec.Values {
		if v > 0 {
			total += v
		}
	}
	cx, cy, r := float64(Width)/2, float64(Height)/2+16, 170.0
	if total == 0 {
		dc.SetColor(ink)
		dc.DrawStringAnchored("No data", cx, cy, 0.5, 0.5)
		return
	}

	colors := Palette(len(spec.Values))
	angle := -math.Pi / 2
	for i, v := range spec.Values {
		if v <= 0 {
			continue
		}
		sweep := v / total * 2 * math.Pi
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, r, angle, angle+sweep)
		dc.ClosePath()
		dc.SetColor(colors[i])
		dc.FillPreserve()
		dc.SetColor(background)
		dc.SetLineWidth(1.5)
		dc.Stroke()

		mid := angle + sweep/2
		dc.SetColor(ink)
		dc.DrawStringAnchored(fmt.Sprintf("%.1f%%", v/total*100), cx+math.Cos(mid)*r*0.6, cy+math.Sin(mid)*r*0.6, 0.5, 0.5)
		dc.DrawStringAnchored(spec.Labels[i], cx+math.Cos(mid)*(r+22), cy+math.Sin(mid)*(r+22), 0.5, 0.5)
		angle += sweep
	}
}

func drawBars(dc *gg.Context, spec interpret.ChartSpec) {
	const left, right, top, bottom = 64.0, 24.0, 48.0, 56.0
	plotW := float64(Width) - left - right
	plotH := float64(Height) - top - bottom

	lo, hi := 0.0, 0.0
	for _, v := range spec.Values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	y := func(v float64) float64 { return top + (hi-v)/(hi-lo)*plotH }

	dc.SetLineWidth(1)
	for i := 0; i <= 4; i++ {
		v := lo + (hi-lo)*float64(i)/4
		dc.SetColor(gridInk)
		dc.DrawLine(left, y(v), left+plotW, y(v))
		dc.Stroke()
		dc.SetColor(ink)
		dc.DrawStringAnchored(trimFloat(v), left-8, y(v), 1, 0.5)
	}

	n := len(spec.Values)
	if n == 0 {
		return
	}
	colors := Palette(n)
	slot := plotW / float64(n)
	barW := slot * 0.7
	for i, v := range spec.Values {
		x := left + slot*float64(i) + (slot-barW)/2
		y0, y1 := y(0), y(v)
		dc.SetColor(colors[i])
		dc.DrawRectangle(x, math.Min(y0, y1), barW, math.Abs(y1-y0))
		dc.Fill()
		dc.SetColor(ink)
		dc.DrawStringAnchored(spec.Labels[i], x+barW/2, top+plotH+18, 0.5, 0.5)
	}

	dc.SetColor(ink)
	dc.DrawLine(left, y(0), left+plotW, y(0))
	dc.Stroke()
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
