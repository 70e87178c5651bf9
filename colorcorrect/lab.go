/*
NAME
  lab.go

DESCRIPTION
  lab.go implements CIELAB perceptual color transfer: sRGB -> XYZ (D65)
  -> LAB, histogram-match a-star/b-star, optionally blend L-star, then
  invert back to sRGB.
*/

package colorcorrect

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nereidav/upscale/videotensor"
)

// D65 white point.
const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883
)

// LAB nonlinearity constants.
const (
	labEpsilon = 6.0 / 29.0
	labKappa   = 29.0 * 29.0 * 29.0 / 27.0 // (29/3)^3
)

// sRGB <-> XYZ D65 matrices.
var (
	srgbToXYZ = mat.NewDense(3, 3, []float64{
		0.4124564, 0.3575761, 0.1804375,
		0.2126729, 0.7151522, 0.0721750,
		0.0193339, 0.1191920, 0.9503041,
	})
	xyzToSRGB = mat.NewDense(3, 3, nil)
)

func init() {
	if err := xyzToSRGB.Inverse(srgbToXYZ); err != nil {
		panic("colorcorrect: sRGB/XYZ matrix is not invertible")
	}
}

type labCorrector struct {
	luminanceWeight float64
}

// Apply converts both tensors to LAB, histogram-matches a*/b*, blends
// L* by the luminance weight, and converts back to sRGB.
func (lc labCorrector) Apply(content, style *videotensor.Tensor) *videotensor.Tensor {
	cL, cA, cB := toLAB(content)
	sL, sA, sB := toLAB(style)

	matchedA := matchHistogram(cA, sA)
	matchedB := matchHistogram(cB, sB)

	w := lc.luminanceWeight
	var resultL []float64
	if w >= 1.0 {
		resultL = cL
	} else {
		matchedL := matchHistogram(cL, sL)
		resultL = make([]float64, len(cL))
		for i := range resultL {
			resultL[i] = cL[i]*w + matchedL[i]*(1-w)
		}
	}

	return fromLAB(content.Shape, content.Layout, resultL, matchedA, matchedB)
}

// toLAB converts a LayoutCTHW RGB tensor in [-1,1] to flat L*, a*, b*
// slices, one entry per pixel across the T*H*W spatial-temporal extent.
func toLAB(t *videotensor.Tensor) (L, A, B []float64) {
	per := t.Shape[1] * t.Shape[2] * t.Shape[3]
	L = make([]float64, per)
	A = make([]float64, per)
	B = make([]float64, per)
	for i := 0; i < per; i++ {
		r := linearize(toUnit(t.Data[0*per+i]))
		g := linearize(toUnit(t.Data[1*per+i]))
		b := linearize(toUnit(t.Data[2*per+i]))

		x, y, z := srgbLinearToXYZ(r, g, b)
		l, a, bb := xyzToLAB(x, y, z)
		L[i], A[i], B[i] = l, a, bb
	}
	return
}

// fromLAB inverts L*, a*, b* slices back into a LayoutCTHW RGB tensor in
// [-1,1].
func fromLAB(shape [4]int, layout videotensor.Layout, L, A, B []float64) *videotensor.Tensor {
	per := shape[1] * shape[2] * shape[3]
	out := videotensor.New(shape, layout)
	for i := 0; i < per; i++ {
		x, y, z := labToXYZ(L[i], A[i], B[i])
		r, g, b := xyzToSRGBLinear(x, y, z)
		r, g, b = delinearize(r), delinearize(g), delinearize(b)
		r = clamp01(r)
		g = clamp01(g)
		b = clamp01(b)

		out.Data[0*per+i] = fromUnit(r)
		out.Data[1*per+i] = fromUnit(g)
		out.Data[2*per+i] = fromUnit(b)
	}
	return out
}

// toUnit maps [-1,1] to [0,1], the inverse of the video transform's
// normalize.
func toUnit(v float32) float64 { return float64(v)*0.5 + 0.5 }

// fromUnit maps [0,1] back to [-1,1].
func fromUnit(v float64) float32 { return float32(v*2 - 1) }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// linearize applies sRGB gamma decoding.
func linearize(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

// delinearize applies sRGB gamma encoding, the inverse of linearize.
func delinearize(v float64) float64 {
	if v > 0.0031308 {
		return 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return v * 12.92
}

func srgbLinearToXYZ(r, g, b float64) (x, y, z float64) {
	rgb := mat.NewVecDense(3, []float64{r, g, b})
	var xyz mat.VecDense
	xyz.MulVec(srgbToXYZ, rgb)
	return xyz.AtVec(0), xyz.AtVec(1), xyz.AtVec(2)
}

func xyzToSRGBLinear(x, y, z float64) (r, g, b float64) {
	xyz := mat.NewVecDense(3, []float64{x, y, z})
	var rgb mat.VecDense
	rgb.MulVec(xyzToSRGB, xyz)
	return rgb.AtVec(0), rgb.AtVec(1), rgb.AtVec(2)
}

// xyzToLAB applies the D65-normalized XYZ->LAB nonlinearity.
func xyzToLAB(x, y, z float64) (l, a, b float64) {
	fx := labF(x / whiteX)
	fy := labF(y / whiteY)
	fz := labF(z / whiteZ)
	l = 116*fy - 16
	a = 500 * (fx - fy)
	b = 200 * (fy - fz)
	return
}

// labToXYZ inverts xyzToLAB.
func labToXYZ(l, a, b float64) (x, y, z float64) {
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - b/200
	x = whiteX * labFInv(fx)
	y = whiteY * labFInv(fy)
	z = whiteZ * labFInv(fz)
	return
}

func labF(t float64) float64 {
	if t > labEpsilon*labEpsilon*labEpsilon {
		return math.Cbrt(t)
	}
	return (labKappa*t + 16) / 116
}

func labFInv(f float64) float64 {
	if f > labEpsilon {
		return f * f * f
	}
	return (116*f - 16) / labKappa
}
