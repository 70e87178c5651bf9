/*
NAME
  demoops.go

DESCRIPTION
  demoops.go provides a placeholder implementation of the pipeline/ops
  collaborator interfaces for cmd/upscalevid's demonstration entrypoint.
  The real VAE, DiT, scheduler and model-lifecycle operators are
  explicitly out of scope; a real deployment supplies
  its own implementations, typically a cgo bridge to a tensor runtime.
  This package exists only so the CLI has something to wire and run
  end to end without a GPU or model weights; it performs no actual
  super-resolution.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package demoops is a non-functional stand-in for the neural and
// model-lifecycle collaborators the pipeline package drives but does
// not implement. It lets cmd/upscalevid demonstrate the
// full wiring without requiring real model weights.
package demoops

import (
	"context"

	"github.com/nereidav/upscale/pipeline/ops"
	"github.com/nereidav/upscale/videotensor"
)

// VAE is a pass-through stand-in: Encode clones its input as the
// "latent", Decode returns a copy of its input reordered from (c,t,h,w)
// to (t,c,h,w) as "samples". It performs no
// compression and does not honor the t' = (t-1)/4+1 latent-temporal
// relationship a real VAE would. This is acceptable only
// because the VAE's internals are out of scope; the orchestrator never
// inspects a latent's shape beyond what it receives back.
type VAE struct{}

func (v *VAE) Encode(ctx context.Context, batch *videotensor.Tensor) (*videotensor.Tensor, error) {
	return batch.Clone(), nil
}

func (v *VAE) Decode(ctx context.Context, latent *videotensor.Tensor, preserveVRAM bool) (*videotensor.Tensor, error) {
	return latent.PermuteCTHWtoTCHW(), nil
}

func (v *VAE) Dtype() (ops.Dtype, error) { return ops.DtypeBfloat16, nil }

// DiT is a pass-through stand-in: Inference returns the supplied noise
// unchanged as the "upscaled" latent.
type DiT struct {
	Diffusion ops.DiffusionConfig
}

func (d *DiT) Configure(ctx context.Context, cfg ops.DiffusionConfig) error {
	d.Diffusion = cfg
	return nil
}

func (d *DiT) GetCondition(ctx context.Context, noise *videotensor.Tensor, task string, latentBlur *videotensor.Tensor) (ops.Condition, error) {
	return ops.Condition{Noise: noise, Task: task, LatentBlur: latentBlur}, nil
}

func (d *DiT) Inference(ctx context.Context, noises []*videotensor.Tensor, conditions []ops.Condition, texts ops.TextEmbeddings, autocast ops.Dtype) ([]*videotensor.Tensor, error) {
	out := make([]*videotensor.Tensor, len(noises))
	for i, n := range noises {
		out[i] = n.Clone()
	}
	return out, nil
}

func (d *DiT) Dtype() (ops.Dtype, error) { return ops.DtypeBfloat16, nil }

// Scheduler blends x and noise linearly by t/1000, a placeholder for a
// real diffusion forward step.
type Scheduler struct{}

func (Scheduler) TimestepTransform(t float64, shape [4]int) float64 { return t }

func (Scheduler) Forward(x, noise *videotensor.Tensor, t float64) *videotensor.Tensor {
	frac := float32(t / 1000.0)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	out := videotensor.New(x.Shape, x.Layout)
	for i := range out.Data {
		out.Data[i] = (1-frac)*x.Data[i] + frac*noise.Data[i]
	}
	return out
}

// Alpha rescales the original alpha plane to the upscaled RGB's spatial
// resolution and concatenates it on, rather than performing real
// edge-guided sharpening.
type Alpha struct{}

func (Alpha) ProcessAlpha(ctx context.Context, rgb, alpha, inputRGB *videotensor.Tensor) (*videotensor.Tensor, error) {
	if alpha.Shape[2] != rgb.Shape[2] || alpha.Shape[3] != rgb.Shape[3] {
		alpha = videotensor.ResizeBilinear(alpha, rgb.Shape[2], rgb.Shape[3])
	}
	if alpha.Shape[0] > rgb.Shape[0] {
		alpha = alpha.SliceAxis0(0, rgb.Shape[0])
	}
	return videotensor.ConcatChannels(rgb, alpha), nil
}

// Stager is a host-only model-lifecycle stand-in: every call succeeds
// immediately and models are always considered resident wherever they
// were last staged.
type Stager struct {
	summary string
}

func (s *Stager) Materialize(ctx context.Context, kind string, dev ops.Device, config map[string]interface{}, preserveVRAM bool) error {
	return nil
}

func (s *Stager) ManageDevice(ctx context.Context, kind string, target ops.Device, preserveVRAM bool) error {
	return nil
}

func (s *Stager) Cleanup(ctx context.Context, kind string, keepInRAM bool) error { return nil }

func (s *Stager) ClearMemory(ctx context.Context, deep, force bool) error { return nil }

func (s *Stager) SwapSummary() string { return s.summary }
