/*
NAME
  adain.go

DESCRIPTION
  adain.go implements adaptive instance normalization color transfer:
  per-frame, per-channel mean/std normalization of content onto style's
  statistics.
*/

package colorcorrect

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/nereidav/upscale/videotensor"
)

// adainEpsilon is added inside the variance to avoid division by zero.
const adainEpsilon = 1e-5

type adainCorrector struct{}

// Apply computes result = (content-mean_c)/std_c * std_s + mean_s over
// a LayoutCTHW tensor. Statistics are computed per (channel, frame)
// pair, collapsing only the spatial extent: each frame is normalized
// against its own and its style counterpart's statistics, never against
// a whole-batch pool. Style may carry trailing padded frames beyond
// content's length; each content frame pairs with the style frame of
// the same index.
func (adainCorrector) Apply(content, style *videotensor.Tensor) *videotensor.Tensor {
	C, T := content.Shape[0], content.Shape[1]
	styleT := style.Shape[1]
	plane := content.Shape[2] * content.Shape[3]
	out := videotensor.New(content.Shape, content.Layout)
	for c := 0; c < C; c++ {
		for t := 0; t < T; t++ {
			st := t
			if st > styleT-1 {
				st = styleT - 1
			}
			cMean, cStd := meanStd(planeData(content, c, t))
			sMean, sStd := meanStd(planeData(style, c, st))

			off := (c*T + t) * plane
			for i := 0; i < plane; i++ {
				out.Data[off+i] = float32((float64(content.Data[off+i])-cMean)/cStd*sStd + sMean)
			}
		}
	}
	return out
}

// planeData returns a float64 copy of the (c, frame) spatial plane of a
// LayoutCTHW tensor (contiguous by construction).
func planeData(t *videotensor.Tensor, c, frame int) []float64 {
	plane := t.Shape[2] * t.Shape[3]
	off := (c*t.Shape[1] + frame) * plane
	out := make([]float64, plane)
	for i := 0; i < plane; i++ {
		out[i] = float64(t.Data[off+i])
	}
	return out
}

// meanStd returns the mean and sqrt(variance+epsilon) of data, using
// gonum/stat for the moment computations.
func meanStd(data []float64) (mean, std float64) {
	mean = stat.Mean(data, nil)
	variance := stat.Variance(data, nil)
	return mean, math.Sqrt(variance + adainEpsilon)
}
