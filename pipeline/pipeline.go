/*
NAME
  pipeline.go

DESCRIPTION
  pipeline.go provides Pipeline, the top-level orchestrator sequencing
  the four phases, modeled on revid.Revid's role as the entry point that
  owns configuration and collaborators and drives them through a fixed
  sequence of steps.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline implements the four-phase batched video-upscaling
// orchestrator: the batch planner, frame conformer, precision detector,
// device/model stager, and the four phase drivers that carry frames
// from raw input to a color-corrected, upscaled output video.
package pipeline

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/nereidav/upscale/pipeline/config"
	"github.com/nereidav/upscale/pipeline/ops"
	"github.com/nereidav/upscale/videotensor"
)

// Collaborators bundles every external operator the pipeline drives but
// does not implement.
type Collaborators struct {
	VAE       ops.VAE
	DiT       ops.DiT
	Scheduler ops.Scheduler
	Stager    ops.ModelStager
	Alpha     ops.AlphaProcessor
	Texts     ops.TextEmbeddings
}

// Pipeline drives a single upscaling run end to end. A Pipeline is not
// safe for concurrent use by multiple goroutines, and at most one
// Pipeline per process should ever call Run given the process-wide
// LOCAL_RANK side effect.
type Pipeline struct {
	cfg    *config.Config
	collab Collaborators
	stager *Stager
	rng    *rand.Rand
}

// New validates cfg and returns a Pipeline ready to Run, wiring collab's
// ModelStager collaborator into the pipeline's own device/model stager.
func New(cfg *config.Config, collab Collaborators) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "pipeline: invalid config")
	}
	cfg.Logger.SetLevel(cfg.LogLevel)
	return &Pipeline{
		cfg:    cfg,
		collab: collab,
		stager: NewStager(collab.Stager, cfg.PreserveVRAM),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Run drives frames (LayoutTHWC, values in [0,1]) through all four
// phases and returns the final upscaled video, also LayoutTHWC in [0,1].
func (p *Pipeline) Run(ctx context.Context, frames *videotensor.Tensor, interrupt func() error) (*videotensor.Tensor, error) {
	if frames == nil || frames.Shape[0] == 0 {
		return nil, validationErr("run", "no frames provided")
	}

	isRGBA := frames.Shape[3] == 4
	totalFrames := frames.Shape[0]

	plan := Plan(totalFrames, p.cfg.BatchSize, p.cfg.TemporalOverlap)
	p.cfg.Logger.Log(config.LevelInfo, "batch plan computed",
		"step", plan.Step, "best_batch", plan.BestBatch,
		"padding_waste", plan.PaddingWaste, "is_optimal", plan.IsOptimal)

	nBatches := len(batchStarts(totalFrames, p.cfg.BatchSize, plan.Step))
	state := NewState(totalFrames, nBatches, isRGBA)
	state.Interrupt = interrupt
	state.DiTDevice = ops.Device(p.cfg.DiTDevice)
	state.VAEDevice = ops.Device(p.cfg.VAEDevice)

	SetLocalRank(state.DiTDevice)

	compute, autocast := DetectPrecision(p.collab.VAE, p.collab.DiT)
	state.SetPrecision(compute, autocast)

	colorCorrectionEnabled := p.cfg.ColorCorrection != config.ColorNone

	defer func() {
		if err := p.stager.Cleanup(ctx, "dit", p.cfg.DiTCache); err != nil {
			p.cfg.Logger.Log(config.LevelWarning, "dit cleanup failed", "err", err.Error())
		}
		if err := p.stager.Cleanup(ctx, "vae", p.cfg.VAECache); err != nil {
			p.cfg.Logger.Log(config.LevelWarning, "vae cleanup failed", "err", err.Error())
		}
	}()

	if err := p.runEncode(ctx, frames, plan.Step, colorCorrectionEnabled, state); err != nil {
		return nil, err
	}
	if err := p.runUpscale(ctx, state); err != nil {
		return nil, err
	}
	if err := p.runDecode(ctx, state); err != nil {
		return nil, err
	}
	if err := p.runPostProcess(ctx, state); err != nil {
		return nil, err
	}

	if state.Cursor() != totalFrames {
		p.cfg.Logger.Log(config.LevelWarning, "final frame count mismatch",
			"cursor", state.Cursor(), "total_frames", totalFrames)
	}

	return state.FinalVideo, nil
}

// vaeStageArgs merges the VAE compile args with the tiled encode/decode
// configuration. Both are opaque to the orchestrator and are forwarded
// to the model-lifecycle collaborator as-is.
func (p *Pipeline) vaeStageArgs() map[string]interface{} {
	args := make(map[string]interface{}, len(p.cfg.VAECompileArgs)+2)
	for k, v := range p.cfg.VAECompileArgs {
		args[k] = v
	}
	if p.cfg.EncodeTile.Enabled {
		args["encode_tile"] = p.cfg.EncodeTile
	}
	if p.cfg.DecodeTile.Enabled {
		args["decode_tile"] = p.cfg.DecodeTile
	}
	return args
}

func (p *Pipeline) runEncode(ctx context.Context, frames *videotensor.Tensor, step int, colorCorrectionEnabled bool, state *State) error {
	if err := p.stager.Stage(ctx, "vae", state.VAEDevice, p.vaeStageArgs()); err != nil {
		return err
	}
	defer p.stager.Release(ctx, "vae")

	tr := videotensor.NewTransform(p.cfg.ResW)
	err := EncodePhase(ctx, frames, p.cfg.BatchSize, step, p.collab.VAE, tr, colorCorrectionEnabled, p.cfg.InputNoiseScale, p.rng, state)
	if err != nil {
		return err
	}
	if summary := p.stager.SwapSummary(); summary != "" {
		p.cfg.Logger.Log(config.LevelInfo, "block swap summary", "phase", "encode", "summary", summary)
	}
	return nil
}

func (p *Pipeline) runUpscale(ctx context.Context, state *State) error {
	if err := p.stager.Stage(ctx, "dit", state.DiTDevice, p.cfg.DiTCompileArgs); err != nil {
		return err
	}
	defer p.stager.Release(ctx, "dit")

	err := UpscalePhase(ctx, p.collab.DiT, p.collab.Scheduler, p.collab.Texts, state.AutocastDtype, p.cfg.CFGScale, p.cfg.LatentNoiseScale, p.rng, p.stager, state)
	if err != nil {
		return err
	}
	if summary := p.stager.SwapSummary(); summary != "" {
		p.cfg.Logger.Log(config.LevelInfo, "block swap summary", "phase", "upscale", "summary", summary)
	}
	return nil
}

func (p *Pipeline) runDecode(ctx context.Context, state *State) error {
	if err := p.stager.Stage(ctx, "vae", state.VAEDevice, p.vaeStageArgs()); err != nil {
		return err
	}
	defer p.stager.Release(ctx, "vae")

	return DecodePhase(ctx, p.collab.VAE, p.cfg.PreserveVRAM, state)
}

func (p *Pipeline) runPostProcess(ctx context.Context, state *State) error {
	if err := p.stager.Stage(ctx, "vae", state.VAEDevice, p.vaeStageArgs()); err != nil {
		return err
	}
	defer p.stager.Release(ctx, "vae")

	return PostProcessPhase(ctx, p.cfg.ColorCorrection, p.cfg.LuminanceWeight, p.collab.Alpha, p.cfg.Logger, state)
}
