/*
NAME
  phase1_encode.go

DESCRIPTION
  phase1_encode.go implements Phase 1, the encoder driver: it conforms
  frames, applies the video transform, optionally injects input noise,
  runs VAE encode, and stages the result to host.

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
	"math/rand"

	"github.com/nereidav/upscale/pipeline/ops"
	"github.com/nereidav/upscale/videotensor"
)

// inputNoiseStd is the fixed scale applied to gaussian noise before
// blending into the transformed tensor.
const inputNoiseStd = 0.05

// EncodePhase drives Phase 1 over frames, a (t,h,w,c) tensor holding all
// input frames, producing a State with Latents (and, for RGBA input or
// enabled color correction, the side-channel slots) filled.
func EncodePhase(ctx context.Context, frames *videotensor.Tensor, batchSize, step int, vae ops.VAE, tr *videotensor.Transform, colorCorrectionEnabled bool, noiseScale float64, rng *rand.Rand, s *State) error {
	if frames == nil {
		return validationErr("encode", "no frames provided")
	}
	thwc := frames
	tchw := toTCHW(thwc)

	starts := batchStarts(tchw.Shape[0], batchSize, step)
	if len(starts) != len(s.Latents) {
		return validationErr("encode", "state not sized for the planned batch count")
	}

	for i, start := range starts {
		if err := s.checkInterrupt(); err != nil {
			return phaseErr("encode", i, err)
		}

		end := start + batchSize
		if end > tchw.Shape[0] {
			end = tchw.Shape[0]
		}
		raw := tchw.SliceAxis0(start, end)

		oriLength := end - start
		s.OriLengths[i] = oriLength

		conformed, _ := Conform(raw)

		rgb := conformed
		if s.IsRGBA {
			rgb = conformed.SliceChannels(0, 3)
			alpha := conformed.SliceChannels(3, 4)
			s.AlphaChannels[i].Fill(alpha)
			s.InputRGB[i].Fill(rgb.Clone())
		}

		transformed := tr.Apply(rgb)

		if noiseScale > 0 {
			transformed = blendInputNoise(transformed, noiseScale, rng)
		}

		if colorCorrectionEnabled {
			s.TransformedVideos[i].Fill(transformed.Clone())
		}

		latent, err := vae.Encode(ctx, transformed)
		if err != nil {
			return phaseErr("encode", i, err)
		}
		s.Latents[i].Fill(latent)
	}
	return nil
}

// blendInputNoise generates gaussian noise scaled by inputNoiseStd and
// blends it into x with weight noiseScale*0.5.
func blendInputNoise(x *videotensor.Tensor, noiseScale float64, rng *rand.Rand) *videotensor.Tensor {
	noise := videotensor.GaussianLike(x, rng)
	blend := float32(noiseScale * 0.5)
	out := x.Clone()
	for i := range out.Data {
		scaledNoise := noise.Data[i] * inputNoiseStd
		out.Data[i] = (1-blend)*x.Data[i] + blend*(x.Data[i]+scaledNoise)
	}
	return out
}

// toTCHW reorders a (t,h,w,c) frame tensor to (t,c,h,w).
func toTCHW(thwc *videotensor.Tensor) *videotensor.Tensor {
	T, H, W, C := thwc.Shape[0], thwc.Shape[1], thwc.Shape[2], thwc.Shape[3]
	out := videotensor.New([4]int{T, C, H, W}, videotensor.LayoutTCHW)
	for t := 0; t < T; t++ {
		for c := 0; c < C; c++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					out.Set(t, c, h, w, thwc.At(t, h, w, c))
				}
			}
		}
	}
	return out
}

// batchStarts computes the sequence of batch start positions for
// totalFrames frames advancing by step, terminating once a batch window
// reaches the end of the input (any trailing fragment is absorbed by
// the previous batch's overlap). step is the planner's already-resolved
// step; the loop stops after the first start p with p+batchSize >=
// totalFrames.
func batchStarts(totalFrames, batchSize, step int) []int {
	var starts []int
	for p := 0; p < totalFrames; p += step {
		starts = append(starts, p)
		if p+batchSize >= totalFrames {
			break
		}
	}
	return starts
}
