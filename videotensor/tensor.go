/*
NAME
  tensor.go

DESCRIPTION
  tensor.go defines Tensor, the planar float32 array used throughout the
  upscaling pipeline to represent frame batches, latents and samples. A
  Tensor is always 4-dimensional; callers interpret the axis order
  (t,c,h,w), (c,t,h,w) or (t,h,w,c) as appropriate for the stage of the
  pipeline they're in (see videotensor.Layout).

AUTHORS
  AusOcean video upscaling pipeline, adapted for SeedVR2-style generation.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package videotensor provides a minimal planar-float32 tensor type and the
// deterministic resize/crop/normalize transform used to bring input frames
// into model-compatible shape, along with the bilinear resampling required
// when color-correction content and style shapes disagree.
package videotensor

import "fmt"

// Layout describes which semantic axis order a Tensor's four dimensions
// are currently in. The pipeline moves tensors between a small number of
// fixed layouts as it crosses phase boundaries.
type Layout int

const (
	// LayoutTCHW is (frames, channels, height, width): the VAE/DiT wire format.
	LayoutTCHW Layout = iota
	// LayoutCTHW is (channels, frames, height, width): the DiT-domain input produced by the transform.
	LayoutCTHW
	// LayoutTHWC is (frames, height, width, channels): the image/output format.
	LayoutTHWC
)

// Tensor is a 4-D planar float32 array with an explicit Layout tag. Data is
// stored row-major in the order given by Shape, regardless of what the
// Layout's semantic axis names are; Layout only documents what the caller
// should assume about axis meaning.
type Tensor struct {
	Shape  [4]int
	Layout Layout
	Data   []float32
}

// New allocates a zero-filled Tensor with the given shape and layout.
func New(shape [4]int, layout Layout) *Tensor {
	n := shape[0] * shape[1] * shape[2] * shape[3]
	return &Tensor{Shape: shape, Layout: layout, Data: make([]float32, n)}
}

// NumElements returns the total element count.
func (t *Tensor) NumElements() int {
	return t.Shape[0] * t.Shape[1] * t.Shape[2] * t.Shape[3]
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{Shape: t.Shape, Layout: t.Layout, Data: make([]float32, len(t.Data))}
	copy(out.Data, t.Data)
	return out
}

// strides returns the row-major strides for t.Shape.
func (t *Tensor) strides() [4]int {
	return [4]int{
		t.Shape[1] * t.Shape[2] * t.Shape[3],
		t.Shape[2] * t.Shape[3],
		t.Shape[3],
		1,
	}
}

// At returns the value at the given 4-D index.
func (t *Tensor) At(a, b, c, d int) float32 {
	s := t.strides()
	return t.Data[a*s[0]+b*s[1]+c*s[2]+d*s[3]]
}

// Set assigns the value at the given 4-D index.
func (t *Tensor) Set(a, b, c, d int, v float32) {
	s := t.strides()
	t.Data[a*s[0]+b*s[1]+c*s[2]+d*s[3]] = v
}

// SliceAxis0 returns a new Tensor containing axis-0 indices [start,end),
// copying data. This is used to slice frame batches out of a larger
// frame volume (videotensor layout LayoutTCHW, axis 0 = frame index).
func (t *Tensor) SliceAxis0(start, end int) *Tensor {
	if start < 0 || end > t.Shape[0] || start > end {
		panic(fmt.Sprintf("videotensor: invalid slice [%d:%d) of axis len %d", start, end, t.Shape[0]))
	}
	n := end - start
	out := New([4]int{n, t.Shape[1], t.Shape[2], t.Shape[3]}, t.Layout)
	per := t.Shape[1] * t.Shape[2] * t.Shape[3]
	copy(out.Data, t.Data[start*per:end*per])
	return out
}

// RepeatLastFrame returns a new Tensor with the last axis-0 slice repeated
// `n` additional times and appended, used by the frame conformer.
func (t *Tensor) RepeatLastFrame(n int) *Tensor {
	per := t.Shape[1] * t.Shape[2] * t.Shape[3]
	out := New([4]int{t.Shape[0] + n, t.Shape[1], t.Shape[2], t.Shape[3]}, t.Layout)
	copy(out.Data, t.Data)
	last := t.Data[(t.Shape[0]-1)*per : t.Shape[0]*per]
	for i := 0; i < n; i++ {
		copy(out.Data[(t.Shape[0]+i)*per:(t.Shape[0]+i+1)*per], last)
	}
	return out
}

// PermuteTCHWtoCTHW reorders a (t,c,h,w) tensor to (c,t,h,w), as required
// by the final step of the video transform.
func (t *Tensor) PermuteTCHWtoCTHW() *Tensor {
	if t.Layout != LayoutTCHW {
		panic("videotensor: PermuteTCHWtoCTHW requires LayoutTCHW input")
	}
	T, C, H, W := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	out := New([4]int{C, T, H, W}, LayoutCTHW)
	for tt := 0; tt < T; tt++ {
		for c := 0; c < C; c++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					out.Set(c, tt, h, w, t.At(tt, c, h, w))
				}
			}
		}
	}
	return out
}

// PermuteCTHWtoTCHW is the inverse of PermuteTCHWtoCTHW.
func (t *Tensor) PermuteCTHWtoTCHW() *Tensor {
	if t.Layout != LayoutCTHW {
		panic("videotensor: PermuteCTHWtoTCHW requires LayoutCTHW input")
	}
	C, T, H, W := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	out := New([4]int{T, C, H, W}, LayoutTCHW)
	for c := 0; c < C; c++ {
		for tt := 0; tt < T; tt++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					out.Set(tt, c, h, w, t.At(c, tt, h, w))
				}
			}
		}
	}
	return out
}

// PermuteTCHWtoTHWC reorders a (t,c,h,w) tensor to (t,h,w,c), the final
// image format written into the output video.
func (t *Tensor) PermuteTCHWtoTHWC() *Tensor {
	if t.Layout != LayoutTCHW {
		panic("videotensor: PermuteTCHWtoTHWC requires LayoutTCHW input")
	}
	T, C, H, W := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	out := New([4]int{T, H, W, C}, LayoutTHWC)
	for tt := 0; tt < T; tt++ {
		for c := 0; c < C; c++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					out.Set(tt, h, w, c, t.At(tt, c, h, w))
				}
			}
		}
	}
	return out
}

// SliceChannels returns a new Tensor containing channel indices [start,end)
// along the layout's channel axis (TCHW: axis 1; CTHW: axis 0; THWC:
// axis 3). Used to split RGB from alpha before color correction and
// denormalization.
func (t *Tensor) SliceChannels(start, end int) *Tensor {
	var axis int
	switch t.Layout {
	case LayoutTCHW, LayoutTHWC:
		axis = 1
		if t.Layout == LayoutTHWC {
			axis = 3
		}
	case LayoutCTHW:
		axis = 0
	}
	shape := t.Shape
	shape[axis] = end - start
	out := New(shape, t.Layout)
	iterateIndices(t.Shape, func(idx [4]int) {
		if idx[axis] < start || idx[axis] >= end {
			return
		}
		oidx := idx
		oidx[axis] -= start
		out.Set(oidx[0], oidx[1], oidx[2], oidx[3], t.At(idx[0], idx[1], idx[2], idx[3]))
	})
	return out
}

// ConcatChannels concatenates a and b along the channel axis (the inverse
// of SliceChannels), used to re-attach alpha after color correction.
func ConcatChannels(a, b *Tensor) *Tensor {
	if a.Layout != b.Layout {
		panic("videotensor: ConcatChannels requires matching layouts")
	}
	var axis int
	switch a.Layout {
	case LayoutTCHW:
		axis = 1
	case LayoutCTHW:
		axis = 0
	case LayoutTHWC:
		axis = 3
	}
	shape := a.Shape
	shape[axis] = a.Shape[axis] + b.Shape[axis]
	out := New(shape, a.Layout)
	iterateIndices(a.Shape, func(idx [4]int) {
		out.Set(idx[0], idx[1], idx[2], idx[3], a.At(idx[0], idx[1], idx[2], idx[3]))
	})
	iterateIndices(b.Shape, func(idx [4]int) {
		oidx := idx
		oidx[axis] += a.Shape[axis]
		out.Set(oidx[0], oidx[1], oidx[2], oidx[3], b.At(idx[0], idx[1], idx[2], idx[3]))
	})
	return out
}

func iterateIndices(shape [4]int, f func(idx [4]int)) {
	for a := 0; a < shape[0]; a++ {
		for b := 0; b < shape[1]; b++ {
			for c := 0; c < shape[2]; c++ {
				for d := 0; d < shape[3]; d++ {
					f([4]int{a, b, c, d})
				}
			}
		}
	}
}

// Map applies f to every element in place.
func (t *Tensor) Map(f func(float32) float32) {
	for i, v := range t.Data {
		t.Data[i] = f(v)
	}
}

// Clamp clips every element to [lo, hi] in place.
func (t *Tensor) Clamp(lo, hi float32) {
	t.Map(func(v float32) float32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	})
}
