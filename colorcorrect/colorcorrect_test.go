/*
NAME
  colorcorrect_test.go

DESCRIPTION
  colorcorrect_test.go property-tests the Color-Correction Engine
 , modeled on revid_test's
  table-driven style.
*/

package colorcorrect

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/nereidav/upscale/videotensor"
)

func randomCTHW(seed int64, shape [4]int) *videotensor.Tensor {
	t := videotensor.New(shape, videotensor.LayoutCTHW)
	x := seed
	for i := range t.Data {
		x = x*6364136223846793005 + 1442695040888963407
		frac := float64(uint64(x)>>11) / float64(1<<53)
		t.Data[i] = float32(frac*2 - 1)
	}
	return t
}

// TestShapePreservation checks every method returns a tensor with
// content's exact shape and layout.
func TestShapePreservation(t *testing.T) {
	methods := []Method{AdaIN, Wavelet, WaveletAdaptive, LAB, HSV}
	content := randomCTHW(1, [4]int{3, 2, 16, 16})
	style := randomCTHW(2, [4]int{3, 2, 16, 16})

	for _, m := range methods {
		t.Run(methodName(m), func(t *testing.T) {
			c := New(m, 0.8)
			out := Apply(c, content, style)
			if out.Shape != content.Shape {
				t.Errorf("Apply(%s) shape = %v, want %v", methodName(m), out.Shape, content.Shape)
			}
			if out.Layout != content.Layout {
				t.Errorf("Apply(%s) layout = %v, want %v", methodName(m), out.Layout, content.Layout)
			}
		})
	}
}

// TestShapePreservationWithResize checks shape preservation holds even when style's
// spatial shape differs from content's (the healShape preamble).
func TestShapePreservationWithResize(t *testing.T) {
	content := randomCTHW(3, [4]int{3, 2, 16, 16})
	style := randomCTHW(4, [4]int{3, 2, 8, 8})

	c := New(AdaIN, 0.8)
	out := Apply(c, content, style)
	if out.Shape != content.Shape {
		t.Errorf("Apply shape = %v, want %v", out.Shape, content.Shape)
	}
}

// TestAdaINMatchesStyleStatistics checks AdaIN's output per-channel
// mean and std match style's, within a small epsilon.
func TestAdaINMatchesStyleStatistics(t *testing.T) {
	content := randomCTHW(5, [4]int{3, 2, 16, 16})
	style := randomCTHW(6, [4]int{3, 2, 16, 16})

	out := Apply(New(AdaIN, 0.8), content, style)

	per := out.Shape[1] * out.Shape[2] * out.Shape[3]
	for c := 0; c < out.Shape[0]; c++ {
		outData := toFloat64(out.Data[c*per : (c+1)*per])
		styleData := toFloat64(style.Data[c*per : (c+1)*per])

		outMean, outStd := stat.Mean(outData, nil), math.Sqrt(stat.Variance(outData, nil))
		styleMean, styleStd := stat.Mean(styleData, nil), math.Sqrt(stat.Variance(styleData, nil))

		const eps = 1e-3
		if math.Abs(outMean-styleMean) > eps {
			t.Errorf("channel %d mean = %v, want %v (+/- %v)", c, outMean, styleMean, eps)
		}
		if math.Abs(outStd-styleStd) > eps {
			t.Errorf("channel %d std = %v, want %v (+/- %v)", c, outStd, styleStd, eps)
		}
	}
}

// TestAdaINMatchesStyleStatisticsPerFrame gives style's frames sharply
// different statistics and checks each output frame matches its own
// style counterpart's mean/std. Whole-batch pooled normalization would
// drag every frame toward the batch average and fail this.
func TestAdaINMatchesStyleStatisticsPerFrame(t *testing.T) {
	content := randomCTHW(11, [4]int{3, 2, 16, 16})
	style := randomCTHW(12, [4]int{3, 2, 16, 16})

	plane := 16 * 16
	for c := 0; c < 3; c++ {
		off := (c*2 + 1) * plane
		for i := 0; i < plane; i++ {
			style.Data[off+i] = style.Data[off+i]*0.25 + 0.5
		}
	}

	out := Apply(New(AdaIN, 0.8), content, style)

	const eps = 1e-3
	for c := 0; c < 3; c++ {
		for f := 0; f < 2; f++ {
			off := (c*2 + f) * plane
			outData := toFloat64(out.Data[off : off+plane])
			styleData := toFloat64(style.Data[off : off+plane])

			outMean, outStd := stat.Mean(outData, nil), math.Sqrt(stat.Variance(outData, nil))
			styleMean, styleStd := stat.Mean(styleData, nil), math.Sqrt(stat.Variance(styleData, nil))

			if math.Abs(outMean-styleMean) > eps {
				t.Errorf("channel %d frame %d mean = %v, want %v (+/- %v)", c, f, outMean, styleMean, eps)
			}
			if math.Abs(outStd-styleStd) > eps {
				t.Errorf("channel %d frame %d std = %v, want %v (+/- %v)", c, f, outStd, styleStd, eps)
			}
		}
	}
}

// constantChannels returns a LayoutCTHW tensor whose every channel
// holds a single constant value.
func constantChannels(shape [4]int, vals [3]float32) *videotensor.Tensor {
	t := videotensor.New(shape, videotensor.LayoutCTHW)
	per := shape[1] * shape[2] * shape[3]
	for c := 0; c < shape[0]; c++ {
		for i := 0; i < per; i++ {
			t.Data[c*per+i] = vals[c]
		}
	}
	return t
}

// TestWaveletStyleLongerThanContent reproduces the padded-batch case:
// content is trimmed to its pre-padding length while style keeps the
// full conformed length. A constant channel decomposes into zero high
// frequencies and a constant low band, so each output channel must
// reproduce its own channel's constant; reading style through content's
// flat offsets would bleed a neighboring channel's value in instead.
func TestWaveletStyleLongerThanContent(t *testing.T) {
	vals := [3]float32{0.25, -0.5, 0.75}
	content := constantChannels([4]int{3, 2, 16, 16}, vals)
	style := constantChannels([4]int{3, 5, 16, 16}, vals)

	out := Apply(New(Wavelet, 0.8), content, style)
	if out.Shape != content.Shape {
		t.Fatalf("wavelet shape = %v, want %v", out.Shape, content.Shape)
	}

	const eps = 1e-4
	per := 2 * 16 * 16
	for c := 0; c < 3; c++ {
		for i := 0; i < per; i++ {
			got := out.Data[c*per+i]
			if math.Abs(float64(got-vals[c])) > eps {
				t.Fatalf("channel %d value = %v, want %v (style channel bleed)", c, got, vals[c])
			}
		}
	}
}

// TestWaveletIdentity checks wavelet(content, content) reproduces
// content, since high+low telescopes back to the original signal.
func TestWaveletIdentity(t *testing.T) {
	content := randomCTHW(7, [4]int{3, 2, 32, 32})
	out := Apply(New(Wavelet, 0.8), content, content)

	const eps = 1e-4
	for i := range out.Data {
		if math.Abs(float64(out.Data[i]-content.Data[i])) > eps {
			t.Fatalf("wavelet(content, content)[%d] = %v, want %v (+/- %v)", i, out.Data[i], content.Data[i], eps)
		}
	}
}

// TestLABRoundTripPreservesShape sanity-checks the LAB method doesn't
// panic or corrupt shape across the sRGB<->XYZ<->LAB conversions.
func TestLABRoundTripPreservesShape(t *testing.T) {
	content := randomCTHW(8, [4]int{3, 1, 16, 16})
	style := randomCTHW(9, [4]int{3, 1, 16, 16})
	out := Apply(New(LAB, 0.8), content, style)
	if out.Shape != content.Shape {
		t.Errorf("LAB shape = %v, want %v", out.Shape, content.Shape)
	}
	for _, v := range out.Data {
		if v < -1.0001 || v > 1.0001 {
			t.Errorf("LAB output value %v out of expected [-1,1] range", v)
			break
		}
	}
}

// TestHSVIdentity checks hsv(content, content) reproduces content: with
// identical content and style, each hue bin's saturation histogram
// matches onto itself, so only the HSV round-trip error remains.
func TestHSVIdentity(t *testing.T) {
	content := randomCTHW(10, [4]int{3, 1, 16, 16})
	out := Apply(New(HSV, 0.8), content, content)

	const eps = 1e-2
	var maxDiff float64
	for i := range out.Data {
		d := math.Abs(float64(out.Data[i] - content.Data[i]))
		if d > maxDiff {
			maxDiff = d
		}
	}
	if maxDiff > eps {
		t.Errorf("hsv(content, content) max per-element diff = %v, want <= %v", maxDiff, eps)
	}
}

func TestNewPanicsOnNone(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New(None, ...) should panic")
		}
	}()
	New(None, 0.8)
}

func toFloat64(xs []float32) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = float64(v)
	}
	return out
}

func methodName(m Method) string {
	switch m {
	case AdaIN:
		return "adain"
	case Wavelet:
		return "wavelet"
	case WaveletAdaptive:
		return "wavelet_adaptive"
	case LAB:
		return "lab"
	case HSV:
		return "hsv"
	default:
		return "none"
	}
}
