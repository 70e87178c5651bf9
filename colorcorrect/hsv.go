/*
NAME
  hsv.go

DESCRIPTION
  hsv.go implements hue-conditional saturation matching: it bins pixels
  by hue, histogram-matches saturation within each sufficiently-populated
  bin, and reconstructs with content's hue/value.
*/

package colorcorrect

import (
	"math"

	"github.com/nereidav/upscale/videotensor"
)

// hueBins is the number of equal-width hue bins.
const hueBins = 12

// minBinPixels is the minimum population, in both content and style,
// required before a bin is histogram-matched.
const minBinPixels = 100

type hsvCorrector struct{}

// Apply bins both tensors by hue, matches saturation within each
// populated bin, and reconstructs with content's hue and value.
func (hsvCorrector) Apply(content, style *videotensor.Tensor) *videotensor.Tensor {
	cH, cS, cV := toHSV(content)
	sH, sS, _ := toHSV(style)

	contentBins := make([][]int, hueBins)
	styleBins := make([][]int, hueBins)
	for i, h := range cH {
		b := hueBin(h)
		contentBins[b] = append(contentBins[b], i)
	}
	for i, h := range sH {
		b := hueBin(h)
		styleBins[b] = append(styleBins[b], i)
	}

	matchedS := append([]float64(nil), cS...)
	for b := 0; b < hueBins; b++ {
		cIdx := contentBins[b]
		sIdx := styleBins[b]
		if len(cIdx) < minBinPixels || len(sIdx) < minBinPixels {
			continue
		}
		contentSat := gather(cS, cIdx)
		styleSat := gather(sS, sIdx)
		matched := matchHistogram(contentSat, styleSat)
		for i, idx := range cIdx {
			matchedS[idx] = matched[i]
		}
	}

	return fromHSV(content.Shape, content.Layout, cH, matchedS, cV)
}

// hueBin maps a hue in [0,1) to one of 12 equal-width bins, merging the
// final bin's membership into bin 0 to express the red wrap-around.
func hueBin(h float64) int {
	b := int(h * hueBins)
	if b < 0 {
		b = 0
	}
	if b > hueBins-1 {
		b = hueBins - 1
	}
	if b == hueBins-1 {
		b = 0
	}
	return b
}

func gather(data []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, v := range idx {
		out[i] = data[v]
	}
	return out
}

// toHSV converts a LayoutCTHW RGB tensor in [-1,1] to flat H, S, V
// slices in [0,1].
func toHSV(t *videotensor.Tensor) (H, S, V []float64) {
	per := t.Shape[1] * t.Shape[2] * t.Shape[3]
	H = make([]float64, per)
	S = make([]float64, per)
	V = make([]float64, per)
	for i := 0; i < per; i++ {
		r := toUnit(t.Data[0*per+i])
		g := toUnit(t.Data[1*per+i])
		b := toUnit(t.Data[2*per+i])
		H[i], S[i], V[i] = rgbToHSV(r, g, b)
	}
	return
}

// fromHSV inverts toHSV, reconstructing a LayoutCTHW RGB tensor in
// [-1,1] from H, S, V slices.
func fromHSV(shape [4]int, layout videotensor.Layout, H, S, V []float64) *videotensor.Tensor {
	per := shape[1] * shape[2] * shape[3]
	out := videotensor.New(shape, layout)
	for i := 0; i < per; i++ {
		r, g, b := hsvToRGB(H[i], S[i], V[i])
		out.Data[0*per+i] = fromUnit(r)
		out.Data[1*per+i] = fromUnit(g)
		out.Data[2*per+i] = fromUnit(b)
	}
	return out
}

func rgbToHSV(r, g, b float64) (h, s, v float64) {
	maxC := maxOf3(r, g, b)
	minC := minOf3(r, g, b)
	v = maxC
	delta := maxC - minC

	if delta < 1e-12 {
		return 0, 0, v
	}
	s = delta / maxC

	switch maxC {
	case r:
		h = math.Mod((g-b)/delta, 6)
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h /= 6
	if h < 0 {
		h += 1
	}
	return h, s, v
}

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	if s <= 0 {
		return v, v, v
	}
	hh := h * 6
	i := int(hh)
	f := hh - float64(i)
	p := v * (1 - s)
	q := v * (1 - s*f)
	tt := v * (1 - s*(1-f))
	switch i % 6 {
	case 0:
		return v, tt, p
	case 1:
		return q, v, p
	case 2:
		return p, v, tt
	case 3:
		return p, q, v
	case 4:
		return tt, p, v
	default:
		return v, p, q
	}
}

func maxOf3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func minOf3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
