package videotensor

// resizeBilinearHW resizes the (h,w) spatial plane of a LayoutTCHW tensor to
// (newH, newW) using separable bilinear interpolation with half-pixel center
// alignment, matching torchvision/PIL's default bilinear resize convention.
func resizeBilinearHW(t *Tensor, newH, newW int) *Tensor {
	T, C, H, W := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	if H == newH && W == newW {
		return t.Clone()
	}
	out := New([4]int{T, C, newH, newW}, t.Layout)

	scaleH := float64(H) / float64(newH)
	scaleW := float64(W) / float64(newW)

	for oy := 0; oy < newH; oy++ {
		sy := (float64(oy)+0.5)*scaleH - 0.5
		y0, wy := bilinearWeights(sy, H)
		for ox := 0; ox < newW; ox++ {
			sx := (float64(ox)+0.5)*scaleW - 0.5
			x0, wx := bilinearWeights(sx, W)
			for tt := 0; tt < T; tt++ {
				for c := 0; c < C; c++ {
					v := t.At(tt, c, y0, x0)*float32((1-wy)*(1-wx)) +
						t.At(tt, c, y0, x0+boolToInt(x0+1 < W))*float32((1-wy)*wx) +
						t.At(tt, c, y0+boolToInt(y0+1 < H), x0)*float32(wy*(1-wx)) +
						t.At(tt, c, y0+boolToInt(y0+1 < H), x0+boolToInt(x0+1 < W))*float32(wy*wx)
					out.Set(tt, c, oy, ox, v)
				}
			}
		}
	}
	return out
}

// bilinearWeights returns the lower source index and fractional weight for
// a continuous source coordinate, clamped to valid range.
func bilinearWeights(s float64, n int) (int, float64) {
	if s < 0 {
		s = 0
	}
	i0 := int(s)
	if i0 > n-1 {
		i0 = n - 1
	}
	w := s - float64(i0)
	if i0 == n-1 {
		w = 0
	}
	return i0, w
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ResizeBilinear resizes the last two axes, taken as (h,w), of a LayoutTCHW
// or LayoutCTHW tensor to (newH, newW). Exported for use by
// color-correction's shape-mismatch healing step.
func ResizeBilinear(t *Tensor, newH, newW int) *Tensor {
	return resizeBilinearHW(t, newH, newW)
}
