/*
NAME
  colorcorrect.go

DESCRIPTION
  colorcorrect.go implements the color-correction engine: a tagged
  variant of six color-transfer methods sharing a resize preamble, each
  taking (content, style) and producing a corrected tensor.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package colorcorrect implements the pipeline's five color-transfer
// algorithms (AdaIN, Wavelet, LAB, HSV, Wavelet-Adaptive), each mapping
// a (content, style) tensor pair to a corrected tensor.
package colorcorrect

import "github.com/nereidav/upscale/videotensor"

// Method names one of the six color-correction variants, including the
// no-op "none".
type Method int

// The color-correction methods recognised by the engine.
const (
	None Method = iota
	AdaIN
	Wavelet
	WaveletAdaptive
	LAB
	HSV
)

// Corrector applies one color-correction method to a (content, style)
// pair. Every Corrector is pure with respect to its inputs: neither
// content nor style is mutated.
type Corrector interface {
	Apply(content, style *videotensor.Tensor) *videotensor.Tensor
}

// New returns the Corrector for method. luminanceWeight configures LAB's
// L* blend weight and is ignored by
// the other methods. New panics for None; callers should skip dispatch
// entirely when color correction is disabled.
func New(method Method, luminanceWeight float64) Corrector {
	switch method {
	case AdaIN:
		return adainCorrector{}
	case Wavelet:
		return waveletCorrector{}
	case WaveletAdaptive:
		return waveletAdaptiveCorrector{}
	case LAB:
		return labCorrector{luminanceWeight: luminanceWeight}
	case HSV:
		return hsvCorrector{}
	default:
		panic("colorcorrect: New called with Method None")
	}
}

// Apply runs the shared preamble (style-shape healing via resize; dtype
// promotion is a no-op here since videotensor.Tensor is always float32)
// and then dispatches to c's Apply. If spatial shapes differ, style is
// bilinearly resized to match content before processing.
func Apply(c Corrector, content, style *videotensor.Tensor) *videotensor.Tensor {
	style = healShape(content, style)
	return c.Apply(content, style)
}

// healShape resizes style to content's spatial dimensions if they
// differ. Assumes LayoutCTHW (c,t,h,w), the
// layout samples and style tensors carry by the time correction runs.
func healShape(content, style *videotensor.Tensor) *videotensor.Tensor {
	if style.Shape[2] == content.Shape[2] && style.Shape[3] == content.Shape[3] {
		return style
	}
	return videotensor.ResizeBilinear(style, content.Shape[2], content.Shape[3])
}
