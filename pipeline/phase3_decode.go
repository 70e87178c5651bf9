/*
NAME
  phase3_decode.go

DESCRIPTION
  phase3_decode.go implements Phase 3, the decoder driver: it stages
  each upscaled latent to the VAE device, decodes it, reorders to
  (t,c,h,w), and stages the result to host.

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

	"github.com/nereidav/upscale/pipeline/ops"
)

// DecodePhase drives Phase 3 over every filled UpscaledLatents slot,
// producing Samples and releasing UpscaledLatents as each is consumed.
func DecodePhase(ctx context.Context, vae ops.VAE, preserveVRAM bool, s *State) error {
	for i := range s.UpscaledLatents {
		if err := s.checkInterrupt(); err != nil {
			return phaseErr("decode", i, err)
		}

		latent, ok := s.UpscaledLatents[i].Peek()
		if !ok {
			continue
		}

		samples, err := vae.Decode(ctx, latent, preserveVRAM)
		if err != nil {
			return phaseErr("decode", i, err)
		}

		s.Samples[i].Fill(samples)
		s.UpscaledLatents[i].Take() // consumed; never read again
	}
	return nil
}
