/*
NAME
  phase4_post.go

DESCRIPTION
  phase4_post.go implements Phase 4, the post-processor: it trims each
  sample to its original length, dispatches color correction,
  re-attaches alpha, denormalizes, and streams the result into the
  lazily-allocated output video.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"context"

	"github.com/nereidav/upscale/colorcorrect"
	"github.com/nereidav/upscale/pipeline/config"
	"github.com/nereidav/upscale/pipeline/ops"
	"github.com/nereidav/upscale/videotensor"
)

// toColorcorrectMethod maps the config-level color-correction enum onto
// the colorcorrect package's tagged-variant Method.
func toColorcorrectMethod(c config.ColorCorrection) colorcorrect.Method {
	switch c {
	case config.ColorAdaIN:
		return colorcorrect.AdaIN
	case config.ColorWavelet:
		return colorcorrect.Wavelet
	case config.ColorWaveletAdaptive:
		return colorcorrect.WaveletAdaptive
	case config.ColorLAB:
		return colorcorrect.LAB
	case config.ColorHSV:
		return colorcorrect.HSV
	default:
		return colorcorrect.None
	}
}

// PostProcessPhase drives Phase 4 over every filled Samples slot.
// method selects the color-correction algorithm; alpha is the
// black-box edge-guided alpha operator, used only when s.IsRGBA.
func PostProcessPhase(ctx context.Context, method config.ColorCorrection, luminanceWeight float64, alpha ops.AlphaProcessor, log config.Logger, s *State) error {
	cc := toColorcorrectMethod(method)
	var corrector colorcorrect.Corrector
	if cc != colorcorrect.None {
		corrector = colorcorrect.New(cc, luminanceWeight)
	}

	if s.IsRGBA && alpha != nil {
		if err := runAlphaPass(ctx, alpha, log, s); err != nil {
			return err
		}
	}

	for i := range s.Samples {
		if err := s.checkInterrupt(); err != nil {
			return phaseErr("postprocess", i, err)
		}

		sample, ok := s.Samples[i].Peek()
		if !ok {
			continue
		}

		if s.OriLengths[i] < sample.Shape[0] {
			sample = sample.SliceAxis0(0, s.OriLengths[i])
		}

		if corrector != nil {
			if transformed, ok := s.TransformedVideos[i].Peek(); ok {
				if transformed.Shape[2] != sample.Shape[2] || transformed.Shape[3] != sample.Shape[3] {
					log.Log(config.LevelWarning, "style shape differs from sample; resizing",
						"batch", i, "style_h", transformed.Shape[2], "style_w", transformed.Shape[3],
						"sample_h", sample.Shape[2], "sample_w", sample.Shape[3])
				}
				sample = applyColorCorrection(corrector, sample, transformed, s.IsRGBA)
			}
		}

		image := toTHWC(sample)
		denormalizeImage(image, s.IsRGBA)

		if s.FinalVideo == nil {
			C := image.Shape[3]
			s.FinalVideo = videotensor.New([4]int{s.TotalFrames, image.Shape[1], image.Shape[2], C}, videotensor.LayoutTHWC)
		}

		writeInto(s.FinalVideo, image, s.cursor)
		s.advanceCursor(image.Shape[0])

		s.Samples[i].Take() // consumed; never read again
		s.TransformedVideos[i].Take()
	}

	return nil
}

// applyColorCorrection dispatches sample (t,c,h,w) and the stored
// transformed-video style tensor (c,t,h,w) through corrector, detaching
// and re-attaching alpha for RGBA input.
func applyColorCorrection(corrector colorcorrect.Corrector, sample, transformed *videotensor.Tensor, isRGBA bool) *videotensor.Tensor {
	content := toCTHW(sample)

	var alpha *videotensor.Tensor
	rgbContent := content
	if isRGBA {
		rgbContent = content.SliceChannels(0, 3)
		alpha = content.SliceChannels(3, 4)
	}

	corrected := colorcorrect.Apply(corrector, rgbContent, transformed)

	if isRGBA {
		corrected = videotensor.ConcatChannels(corrected, alpha)
	}

	return toTCHWFromCTHW(corrected)
}

// runAlphaPass dispatches every RGBA batch through the black-box
// alpha-processing operator before the main post-process loop runs.
func runAlphaPass(ctx context.Context, alpha ops.AlphaProcessor, log config.Logger, s *State) error {
	for i := range s.Samples {
		if err := s.checkInterrupt(); err != nil {
			return phaseErr("postprocess-alpha", i, err)
		}

		sample, ok := s.Samples[i].Peek()
		if !ok {
			continue
		}
		alphaPlane, hasAlpha := s.AlphaChannels[i].Peek()
		inputRGB, hasInput := s.InputRGB[i].Peek()
		if !hasAlpha || !hasInput {
			// RGB path proceeds without the sharpened alpha.
			log.Log(config.LevelWarning, "missing alpha data; skipping alpha processing", "batch", i)
			continue
		}

		merged, err := alpha.ProcessAlpha(ctx, sample, alphaPlane, inputRGB)
		if err != nil {
			return phaseErr("postprocess-alpha", i, err)
		}
		s.Samples[i].Fill(merged)
		s.AlphaChannels[i].Take()
		s.InputRGB[i].Take()
	}
	return nil
}

// toTHWC reorders a (t,c,h,w) tensor to (t,h,w,c).
func toTHWC(t *videotensor.Tensor) *videotensor.Tensor {
	T, C, H, W := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	out := videotensor.New([4]int{T, H, W, C}, videotensor.LayoutTHWC)
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

// toCTHW reorders a (t,c,h,w) tensor to (c,t,h,w), bringing the decoded
// sample into the layout TransformedVideos is already stored in.
func toCTHW(t *videotensor.Tensor) *videotensor.Tensor {
	return t.PermuteTCHWtoCTHW()
}

// toTCHWFromCTHW reorders a (c,t,h,w) tensor back to (t,c,h,w).
func toTCHWFromCTHW(t *videotensor.Tensor) *videotensor.Tensor {
	return t.PermuteCTHWtoTCHW()
}

// denormalizeImage applies videotensor.Denormalize to image in place. For
// RGBA input only the RGB channels are clipped and rescaled; the alpha
// channel already carries its own [0,1]-domain values and passes through
// unchanged.
func denormalizeImage(image *videotensor.Tensor, isRGBA bool) {
	if !isRGBA {
		videotensor.Denormalize(image)
		return
	}
	rgb := image.SliceChannels(0, 3)
	videotensor.Denormalize(rgb)
	alpha := image.SliceChannels(3, 4)
	merged := videotensor.ConcatChannels(rgb, alpha)
	copy(image.Data, merged.Data)
}

// writeInto copies src (LayoutTHWC) into dst starting at frame offset
// cursor.
func writeInto(dst, src *videotensor.Tensor, cursor int) {
	per := src.Shape[1] * src.Shape[2] * src.Shape[3]
	copy(dst.Data[cursor*per:(cursor+src.Shape[0])*per], src.Data)
}
