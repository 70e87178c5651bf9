/*
NAME
  phase2_upscale.go

DESCRIPTION
  phase2_upscale.go implements Phase 2, the upscaler driver: it stages
  each latent to the DiT device, builds a conditioning signal (with
  optional latent-noise augmentation), runs
  DiT inference under autocast, and stages the result back to host.

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

// augNoiseBaseWeight and augNoiseRandWeight are the fixed coefficients
// combining base noise and fresh gaussian noise into the augmentation
// noise fed to the scheduler.
const (
	augNoiseBaseWeight = 0.1
	augNoiseRandWeight = 0.05
)

// latentBlurTimestepScale converts latent_noise_scale into the scalar
// timestep passed to the scheduler.
const latentBlurTimestepScale = 1000.0

// Single-step scheduler settings applied before the batch loop.
const (
	cfgRescale    = 0.0
	samplingSteps = 1
)

// upscaleBatchState tracks each batch through the per-batch state
// machine: staged -> noised -> conditioned -> inferred -> stored.
type upscaleBatchState int

const (
	stateStaged upscaleBatchState = iota
	stateNoised
	stateConditioned
	stateInferred
	stateStored
)

// UpscalePhase drives Phase 2 over every filled Latents slot, producing
// UpscaledLatents and releasing Latents as each is consumed. texts
// holds the positive/negative text embeddings loaded once before this
// phase begins.
func UpscalePhase(ctx context.Context, dit ops.DiT, sched ops.Scheduler, texts ops.TextEmbeddings, autocast ops.Dtype, cfgScale, latentNoiseScale float64, rng *rand.Rand, stgr *Stager, s *State) error {
	if texts.Positive == nil || texts.Negative == nil {
		return validationErr("upscale", "text embeddings not loaded")
	}
	err := dit.Configure(ctx, ops.DiffusionConfig{CFGScale: cfgScale, CFGRescale: cfgRescale, Steps: samplingSteps})
	if err != nil {
		return validationErr("upscale", "configuring diffusion: "+err.Error())
	}

	for i := range s.Latents {
		if err := s.checkInterrupt(); err != nil {
			return phaseErr("upscale", i, err)
		}

		latent, ok := s.Latents[i].Peek()
		if !ok {
			continue
		}

		state := stateStaged
		upscaled, err := upscaleOne(ctx, latent, dit, sched, texts, autocast, latentNoiseScale, rng, &state)
		if err != nil {
			return phaseErr("upscale", i, err)
		}

		s.UpscaledLatents[i].Fill(upscaled)
		s.Latents[i].Take() // consumed; never read again
		state = stateStored

		if stgr.preserveVRAM && s.temporalExtent(upscaled) > 1 {
			if err := stgr.backend.ClearMemory(ctx, true, false); err != nil {
				return phaseErr("upscale", i, err)
			}
		}
	}
	return nil
}

// upscaleOne runs the per-batch Phase 2 state machine against a single
// latent.
func upscaleOne(ctx context.Context, latent *videotensor.Tensor, dit ops.DiT, sched ops.Scheduler, texts ops.TextEmbeddings, autocast ops.Dtype, latentNoiseScale float64, rng *rand.Rand, state *upscaleBatchState) (*videotensor.Tensor, error) {
	baseNoise := videotensor.GaussianLike(latent, rng)
	*state = stateNoised

	augNoise := combineAugNoise(baseNoise, videotensor.GaussianLike(latent, rng))

	latentBlur := latent
	if latentNoiseScale > 0 {
		t := latentNoiseScale * latentBlurTimestepScale
		tPrime := sched.TimestepTransform(t, latent.Shape)
		latentBlur = sched.Forward(latent, augNoise, tPrime)
	}
	*state = stateConditioned

	condition, err := dit.GetCondition(ctx, baseNoise, "sr", latentBlur)
	if err != nil {
		return nil, err
	}

	results, err := dit.Inference(ctx, []*videotensor.Tensor{baseNoise}, []ops.Condition{condition}, texts, autocast)
	if err != nil {
		return nil, err
	}
	*state = stateInferred

	if len(results) == 0 {
		return nil, errEmptyInference
	}
	return results[0], nil
}

// combineAugNoise forms base*0.1 + randn*0.05.
func combineAugNoise(base, randn *videotensor.Tensor) *videotensor.Tensor {
	out := videotensor.New(base.Shape, base.Layout)
	for i := range out.Data {
		out.Data[i] = base.Data[i]*augNoiseBaseWeight + randn.Data[i]*augNoiseRandWeight
	}
	return out
}

// temporalExtent returns the size of t's temporal axis, used to decide
// whether a deep memory cleanup is warranted after upscale. Latents
// are CTHW; the temporal axis is index 1.
func (s *State) temporalExtent(t *videotensor.Tensor) int {
	if t.Layout == videotensor.LayoutCTHW {
		return t.Shape[1]
	}
	return t.Shape[0]
}

type upscaleError string

func (e upscaleError) Error() string { return string(e) }

const errEmptyInference = upscaleError("dit inference returned no results")
