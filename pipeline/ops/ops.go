/*
NAME
  ops.go

DESCRIPTION
  ops.go describes the external neural and model-lifecycle collaborators
  consumed by the pipeline. The orchestrator treats these as
  opaque operators; only their interfaces live here, modeled on
  device.AVDevice's "configurable, lifecycled collaborator" pattern.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ops declares the neural and model-lifecycle operator interfaces
// the pipeline drives but does not implement. VAE encode/
// decode, DiT inference, and scheduling are genuinely out of scope;
// callers supply their own implementations (e.g. a cgo bridge to a
// tensor runtime), and the pipeline package only ever depends on these
// interfaces.
package ops

import (
	"context"

	"github.com/nereidav/upscale/videotensor"
)

// Device is an opaque accelerator/host placement descriptor, e.g.
// "cuda:0" or "cpu". The meaning of a device string is owned entirely by
// the VAE/DiT implementations; the pipeline only ever compares or
// forwards it.
type Device string

// Dtype names the numeric representation used for model weights and
// activations. Currently always Bfloat16 per the Precision Detector.
type Dtype string

// Dtype values recognised by the pipeline.
const (
	DtypeBfloat16 Dtype = "bfloat16"
	DtypeFloat16  Dtype = "float16"
	DtypeFloat8   Dtype = "float8"
)

// VAE is the variational-autoencoder collaborator: encode compresses a
// conformed, transformed RGB batch into a latent; decode expands an
// upscaled latent back into samples.
type VAE interface {
	// Encode returns the latent for batch, shaped (c,t,h,w).
	Encode(ctx context.Context, batch *videotensor.Tensor) (*videotensor.Tensor, error)

	// Decode returns samples reordered to (t,c,h,w) for latent. When
	// preserveVRAM is set the VAE should avoid retaining intermediate
	// buffers longer than strictly necessary.
	Decode(ctx context.Context, latent *videotensor.Tensor, preserveVRAM bool) (*videotensor.Tensor, error)

	// Dtype reports the VAE's weight dtype, consumed by the Precision
	// Detector. A non-nil error means detection failed;
	// the caller falls back to the default policy regardless.
	Dtype() (Dtype, error)
}

// Condition is the opaque per-batch conditioning signal the DiT consumes
// at inference time.
type Condition struct {
	// Noise is the base noise the condition was derived from.
	Noise *videotensor.Tensor

	// Task names the inference task, e.g. "sr" for super-resolution.
	Task string

	// LatentBlur is the scheduler-blurred latent, or the raw latent
	// itself when latent_noise_scale is 0.
	LatentBlur *videotensor.Tensor
}

// TextEmbeddings bundles the positive/negative text embeddings loaded
// once at the start of Phase 2.
type TextEmbeddings struct {
	Positive *videotensor.Tensor
	Negative *videotensor.Tensor
}

// DiffusionConfig carries the scheduler settings applied once before
// the upscale phase's batch loop begins: guidance scale, guidance
// rescale, and sampling step count.
type DiffusionConfig struct {
	CFGScale   float64
	CFGRescale float64
	Steps      int
}

// DiT is the diffusion-transformer collaborator driving the upscale
// step.
type DiT interface {
	// Configure applies the diffusion settings for the run. Called once
	// per run, before the first GetCondition/Inference call.
	Configure(ctx context.Context, cfg DiffusionConfig) error

	// GetCondition builds a Condition from noise for the given task,
	// carrying the (possibly scheduler-blurred) latent.
	GetCondition(ctx context.Context, noise *videotensor.Tensor, task string, latentBlur *videotensor.Tensor) (Condition, error)

	// Inference runs single or multi-noise inference under the given
	// autocast dtype, without gradient tracking, and returns one
	// upscaled latent per input noise.
	Inference(ctx context.Context, noises []*videotensor.Tensor, conditions []Condition, texts TextEmbeddings, autocast Dtype) ([]*videotensor.Tensor, error)

	// Dtype reports the DiT's weight dtype.
	Dtype() (Dtype, error)
}

// Scheduler provides the single-step diffusion schedule used to blur the
// upscale condition.
type Scheduler interface {
	// TimestepTransform maps a scalar timestep t into the schedule's
	// internal timestep representation for a tensor of the given shape.
	TimestepTransform(t float64, shape [4]int) float64

	// Forward applies the forward diffusion step to x given noise and
	// transformed timestep t, returning the noised tensor.
	Forward(x, noise *videotensor.Tensor, t float64) *videotensor.Tensor
}

// AlphaProcessor is the black-box edge-guided alpha upscaler invoked
// once per RGBA batch at the start of post-processing, before the main
// loop.
type AlphaProcessor interface {
	// ProcessAlpha sharpens alpha edges using the upscaled RGB and the
	// original (pre-upscale) RGB as guidance, returning a merged RGBA
	// sample with the same (t,h,w) extent as rgb.
	ProcessAlpha(ctx context.Context, rgb, alpha, inputRGB *videotensor.Tensor) (*videotensor.Tensor, error)
}

// ModelStager is the model-lifecycle collaborator. The pipeline's own
// Device/Model Stager (pipeline.Stager) sequences calls to this
// interface rather than touching hardware directly, mirroring how
// device.AVDevice separates the "what" (interface) from the "how"
// (implementation supplied by the caller).
type ModelStager interface {
	// Materialize loads kind ("vae" or "dit") onto dev, applying config
	// and preserveVRAM policy.
	Materialize(ctx context.Context, kind string, dev Device, config map[string]interface{}, preserveVRAM bool) error

	// ManageDevice migrates an already-materialized model to target,
	// or drops accelerator caches if target is a host device and
	// preserveVRAM is set.
	ManageDevice(ctx context.Context, kind string, target Device, preserveVRAM bool) error

	// Cleanup releases kind's resources. keepInRAM requests the model
	// stay resident in host memory rather than being fully unloaded
	// (the DiTCache/VAECache configuration).
	Cleanup(ctx context.Context, kind string, keepInRAM bool) error

	// ClearMemory triggers an accelerator memory reclaim. deep requests
	// a more thorough (and more expensive) pass; force bypasses any
	// internal debounce.
	ClearMemory(ctx context.Context, deep, force bool) error

	// SwapSummary returns a human-readable summary of the most recent
	// block-swap activity, or "" if none occurred. Logged by the
	// pipeline once after the encode phase and once after the upscale
	// phase.
	SwapSummary() string
}
