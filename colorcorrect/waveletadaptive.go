/*
NAME
  waveletadaptive.go

DESCRIPTION
  waveletadaptive.go implements the hybrid wavelet/HSV color transfer:
  per-pixel saturation differences between content, style, and the
  wavelet result gate a sigmoid blend between the wavelet and HSV
  results.
*/

package colorcorrect

import (
	"math"

	"github.com/nereidav/upscale/videotensor"
)

// waveletAdaptive blend parameters.
const (
	satDiffThreshold = 0.15
	satDiffSharpness = 5.0
	waveletGateDelta = 0.075
)

type waveletAdaptiveCorrector struct{}

// Apply blends the wavelet and HSV results per pixel, gated by the
// saturation difference between content and style.
func (waveletAdaptiveCorrector) Apply(content, style *videotensor.Tensor) *videotensor.Tensor {
	waveletResult := waveletCorrector{}.Apply(content, style)
	hsvResult := hsvCorrector{}.Apply(content, style)

	satContent := pixelSaturation(content)
	satStyle := pixelSaturation(style)
	satWavelet := pixelSaturation(waveletResult)

	per := content.Shape[1] * content.Shape[2] * content.Shape[3]
	out := videotensor.New(content.Shape, content.Layout)
	for i := 0; i < per; i++ {
		satDiff := satContent[i] - satStyle[i]
		blend := sigmoid(satDiffSharpness * (satDiff - satDiffThreshold))
		if satWavelet[i]-satStyle[i] <= waveletGateDelta {
			blend = 0
		}
		blend = clamp01(blend)

		for c := 0; c < 3; c++ {
			off := c*per + i
			out.Data[off] = float32((1-blend)*float64(waveletResult.Data[off]) + blend*float64(hsvResult.Data[off]))
		}
	}
	return out
}

// pixelSaturation computes S(x) = (max(rgb)-min(rgb))/max(rgb), clamped,
// over a LayoutCTHW RGB tensor in [-1,1].
func pixelSaturation(t *videotensor.Tensor) []float64 {
	per := t.Shape[1] * t.Shape[2] * t.Shape[3]
	out := make([]float64, per)
	for i := 0; i < per; i++ {
		r := toUnit(t.Data[0*per+i])
		g := toUnit(t.Data[1*per+i])
		b := toUnit(t.Data[2*per+i])
		maxC := maxOf3(r, g, b)
		minC := minOf3(r, g, b)
		if maxC <= 1e-12 {
			out[i] = 0
			continue
		}
		out[i] = clamp01((maxC - minC) / maxC)
	}
	return out
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
