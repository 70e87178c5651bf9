/*
NAME
  wavelet.go

DESCRIPTION
  wavelet.go implements the multi-level wavelet reconstruction color
  transfer: a dilated-Gaussian pyramid splits content and style into
  high/low frequency bands; the result combines content's high
  frequencies with style's low frequencies.
*/

package colorcorrect

import "github.com/nereidav/upscale/videotensor"

// waveletLevels is the number of pyramid levels.
const waveletLevels = 5

// blurKernel is the 3x3 Gaussian-approximation kernel, applied via
// grouped dilated convolution.
var blurKernel = [3][3]float64{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

const blurKernelSum = 16

type waveletCorrector struct{}

// Apply returns clamp(content_high + style_low, -1, 1). Content and
// style are addressed through their own channel/frame strides: the
// style tensor may carry more frames than content (content is trimmed
// to its pre-padding length while the stored style keeps its conformed
// length), so a shared flat index would bleed one style channel's block
// into the next channel of the output.
func (waveletCorrector) Apply(content, style *videotensor.Tensor) *videotensor.Tensor {
	contentHigh, _ := waveletDecompose(content)
	_, styleLow := waveletDecompose(style)

	C, T := content.Shape[0], content.Shape[1]
	styleT := styleLow.Shape[1]
	plane := content.Shape[2] * content.Shape[3]
	out := videotensor.New(content.Shape, content.Layout)
	for c := 0; c < C; c++ {
		for t := 0; t < T; t++ {
			st := t
			if st > styleT-1 {
				st = styleT - 1
			}
			cOff := (c*T + t) * plane
			sOff := (c*styleT + st) * plane
			for i := 0; i < plane; i++ {
				out.Data[cOff+i] = contentHigh.Data[cOff+i] + styleLow.Data[sOff+i]
			}
		}
	}
	out.Clamp(-1, 1)
	return out
}

// waveletDecompose iteratively blurs x at radius=2^i for i in [0,levels),
// accumulating high_freq += (x_i - blurred_i) and feeding blurred_i into
// the next iteration.
func waveletDecompose(x *videotensor.Tensor) (high, low *videotensor.Tensor) {
	high = videotensor.New(x.Shape, x.Layout)
	current := x
	radius := 1
	for i := 0; i < waveletLevels; i++ {
		blurred := waveletBlur(current, radius)
		for j := range high.Data {
			high.Data[j] += current.Data[j] - blurred.Data[j]
		}
		current = blurred
		radius *= 2
	}
	return high, current
}

// waveletBlur applies the 3x3 blur kernel to every (c,t) spatial plane
// of x via dilated convolution with dilation=radius and replicate
// padding, clamping radius to max(1, min(H,W)/8) to prevent numerical
// blow-up.
func waveletBlur(x *videotensor.Tensor, radius int) *videotensor.Tensor {
	C, T, H, W := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]

	maxRadius := minInt(H, W) / 8
	if maxRadius < 1 {
		maxRadius = 1
	}
	if radius > maxRadius {
		radius = maxRadius
	}
	if radius < 1 {
		radius = 1
	}

	out := videotensor.New(x.Shape, x.Layout)
	for c := 0; c < C; c++ {
		for t := 0; t < T; t++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					var acc float64
					for ky := -1; ky <= 1; ky++ {
						for kx := -1; kx <= 1; kx++ {
							sy := clampInt(h+ky*radius, 0, H-1)
							sx := clampInt(w+kx*radius, 0, W-1)
							acc += blurKernel[ky+1][kx+1] * float64(x.At(c, t, sy, sx))
						}
					}
					out.Set(c, t, h, w, float32(acc/blurKernelSum))
				}
			}
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
