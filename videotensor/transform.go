/*
NAME
  transform.go

DESCRIPTION
  transform.go implements the video transform: a deterministic
  resize/clamp/crop/normalize/reorder pipeline that produces both the
  DiT-domain input and the "style" tensor later consumed by color
  correction (colorcorrect package).
*/

package videotensor

import "gonum.org/v1/gonum/floats"

// Transform holds the configuration for the video transform: resize to
// a target shortest edge, then crop/normalize/reorder.
type Transform struct {
	// ResW is the target shortest-edge resolution after resize.
	ResW int
}

// NewTransform returns a Transform configured for the given target
// shortest-edge resolution.
func NewTransform(resW int) *Transform {
	return &Transform{ResW: resW}
}

// Apply runs the full transform pipeline on a LayoutTCHW tensor and
// returns a LayoutCTHW tensor in [-1,1].
func (tr *Transform) Apply(in *Tensor) *Tensor {
	resized := tr.resizeShortestEdge(in)
	resized.Clamp(0, 1)
	cropped := divisibleCrop(resized, 16)
	normalize(cropped, 0.5, 0.5)
	return cropped.PermuteTCHWtoCTHW()
}

// resizeShortestEdge resizes in (LayoutTCHW) so that the shorter of its two
// spatial dimensions equals ResW exactly. Resize is always applied, even
// if the source is already larger than the target.
func (tr *Transform) resizeShortestEdge(in *Tensor) *Tensor {
	H, W := in.Shape[2], in.Shape[3]
	shorter := H
	if W < shorter {
		shorter = W
	}
	scale := float64(tr.ResW) / float64(shorter)
	newH := int(float64(H)*scale + 0.5)
	newW := int(float64(W)*scale + 0.5)
	if newH < 1 {
		newH = 1
	}
	if newW < 1 {
		newW = 1
	}
	return resizeBilinearHW(in, newH, newW)
}

// divisibleCrop center-crops the spatial dimensions of a LayoutTCHW tensor
// down to the nearest multiple of div on each axis.
func divisibleCrop(in *Tensor, div int) *Tensor {
	H, W := in.Shape[2], in.Shape[3]
	newH := (H / div) * div
	newW := (W / div) * div
	if newH == H && newW == W {
		return in
	}
	if newH < div {
		newH = div
	}
	if newW < div {
		newW = div
	}
	top := (H - newH) / 2
	left := (W - newW) / 2
	T, C := in.Shape[0], in.Shape[1]
	out := New([4]int{T, C, newH, newW}, in.Layout)
	for t := 0; t < T; t++ {
		for c := 0; c < C; c++ {
			for h := 0; h < newH; h++ {
				for w := 0; w < newW; w++ {
					out.Set(t, c, h, w, in.At(t, c, top+h, left+w))
				}
			}
		}
	}
	return out
}

// normalize applies an affine (x-mean)/std transform in place over every
// element, mapping [0,1] to [-1,1] for mean=std=0.5.
// The shift and scale run over the whole buffer at once through
// gonum/floats (AddConst, then Scale).
func normalize(t *Tensor, mean, std float64) {
	buf := make([]float64, len(t.Data))
	for i, v := range t.Data {
		buf[i] = float64(v)
	}
	floats.AddConst(-mean, buf)
	floats.Scale(1/std, buf)
	for i, v := range buf {
		t.Data[i] = float32(v)
	}
}
