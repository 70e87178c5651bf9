/*
NAME
  state.go

DESCRIPTION
  state.go implements the pipeline's shared state: a sparse,
  batch-indexed set of tensor slots threaded through the four phases. Each
  slot is a sum type (filled(tensor) or consumed) so a phase cannot
  observe a tensor a previous phase already released.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"github.com/nereidav/upscale/pipeline/ops"
	"github.com/nereidav/upscale/videotensor"
)

// Slot is a sum-typed tensor holder: it is either filled or consumed.
// Reading a consumed slot is a programming error and returns ok=false
// rather than a stale tensor.
type Slot struct {
	tensor   *videotensor.Tensor
	filled   bool
	consumed bool
}

// Fill sets the slot's tensor, marking it filled and not consumed.
func (s *Slot) Fill(t *videotensor.Tensor) {
	s.tensor = t
	s.filled = true
	s.consumed = false
}

// Take returns the slot's tensor and marks it consumed. ok is false if
// the slot was never filled or was already consumed.
func (s *Slot) Take() (t *videotensor.Tensor, ok bool) {
	if !s.filled || s.consumed {
		return nil, false
	}
	s.consumed = true
	t, s.tensor = s.tensor, nil
	return t, true
}

// Peek returns the slot's tensor without consuming it. ok is false if
// the slot is empty or already consumed.
func (s *Slot) Peek() (t *videotensor.Tensor, ok bool) {
	if !s.filled || s.consumed {
		return nil, false
	}
	return s.tensor, true
}

// IsConsumed reports whether the slot has been taken.
func (s *Slot) IsConsumed() bool { return s.consumed }

// State is the mapping carried across phases. All per-batch fields are
// sparse arrays indexed by batch ordinal.
type State struct {
	// DiTDevice and VAEDevice are the target devices for staging.
	DiTDevice ops.Device
	VAEDevice ops.Device

	// ComputeDtype and AutocastDtype are set by the Precision Detector
	// on first model touch; always Bfloat16 today.
	ComputeDtype   ops.Dtype
	AutocastDtype  ops.Dtype
	precisionKnown bool

	// Interrupt is polled at the top of every per-batch loop iteration
	// in every phase. A nil Interrupt
	// means the pipeline never yields.
	Interrupt func() error

	// TotalFrames is the input frame count.
	TotalFrames int

	// IsRGBA is true when the input carries a fourth alpha channel.
	IsRGBA bool

	// Latents holds Phase 1's output, consumed by Phase 2.
	Latents []Slot

	// UpscaledLatents holds Phase 2's output, consumed by Phase 3.
	UpscaledLatents []Slot

	// Samples holds Phase 3's output, consumed by Phase 4.
	Samples []Slot

	// OriLengths records each batch's true pre-padding frame count.
	OriLengths []int

	// TransformedVideos holds the pre-encode style tensor per batch,
	// present only when color correction is enabled.
	TransformedVideos []Slot

	// AlphaChannels and InputRGB hold RGBA side-channel data created in
	// Phase 1 and freed in Phase 4.
	AlphaChannels []Slot
	InputRGB      []Slot

	// FinalVideo is allocated lazily in Phase 4 once the first decoded
	// batch reveals the true output spatial dimensions.
	FinalVideo *videotensor.Tensor

	// cursor is Phase 4's monotonically advancing write position into
	// FinalVideo.
	cursor int
}

// NewState allocates a State with nBatches worth of sparse slot arrays
// for a run with totalFrames input frames.
func NewState(totalFrames, nBatches int, isRGBA bool) *State {
	return &State{
		TotalFrames:       totalFrames,
		IsRGBA:            isRGBA,
		Latents:           make([]Slot, nBatches),
		UpscaledLatents:   make([]Slot, nBatches),
		Samples:           make([]Slot, nBatches),
		OriLengths:        make([]int, nBatches),
		TransformedVideos: make([]Slot, nBatches),
		AlphaChannels:     make([]Slot, nBatches),
		InputRGB:          make([]Slot, nBatches),
	}
}

// SetPrecision records the Precision Detector's decision.
// Subsequent calls are no-ops: precision is fixed on first model touch.
func (s *State) SetPrecision(compute, autocast ops.Dtype) {
	if s.precisionKnown {
		return
	}
	s.ComputeDtype = compute
	s.AutocastDtype = autocast
	s.precisionKnown = true
}

// checkInterrupt polls the interrupt hook, if any.
func (s *State) checkInterrupt() error {
	if s.Interrupt == nil {
		return nil
	}
	return s.Interrupt()
}

// Cursor returns Phase 4's current write position into FinalVideo.
func (s *State) Cursor() int { return s.cursor }

// advanceCursor moves the write cursor forward by n frames. The cursor
// only ever moves forward.
func (s *State) advanceCursor(n int) { s.cursor += n }
