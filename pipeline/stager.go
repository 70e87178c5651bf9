/*
NAME
  stager.go

DESCRIPTION
  stager.go implements the device/model stager: it moves a model between
  host and accelerator memory at phase boundaries, respecting the
  preserve_vram policy. It also holds the process-wide LOCAL_RANK
  environment setter.

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
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/nereidav/upscale/pipeline/ops"
)

// HostDevice is the canonical host-memory device descriptor.
const HostDevice ops.Device = "cpu"

// Stager sequences model placement transitions through a ModelStager
// collaborator, guaranteeing a model is either fully on its target
// device on return or the call fails with no partial placement.
type Stager struct {
	backend      ops.ModelStager
	preserveVRAM bool
}

// NewStager returns a Stager driving backend under the given
// preserve_vram policy.
func NewStager(backend ops.ModelStager, preserveVRAM bool) *Stager {
	return &Stager{backend: backend, preserveVRAM: preserveVRAM}
}

// Stage materializes or migrates kind's weights to target. When target
// is a host device and preserve_vram is set, it also instructs the
// backend to drop accelerator caches.
func (s *Stager) Stage(ctx context.Context, kind string, target ops.Device, config map[string]interface{}) error {
	if err := s.backend.Materialize(ctx, kind, target, config, s.preserveVRAM); err != nil {
		return errors.Wrapf(err, "stager: materialize %s on %s", kind, target)
	}
	if err := s.backend.ManageDevice(ctx, kind, target, s.preserveVRAM); err != nil {
		return errors.Wrapf(err, "stager: manage %s device to %s", kind, target)
	}
	return nil
}

// Release stages kind to host as a phase winds down. It is a no-op
// unless preserve_vram is set: models only leave the accelerator when
// the policy demands it.
func (s *Stager) Release(ctx context.Context, kind string) error {
	if !s.preserveVRAM {
		return nil
	}
	if err := s.backend.ManageDevice(ctx, kind, HostDevice, s.preserveVRAM); err != nil {
		return errors.Wrapf(err, "stager: release %s to host", kind)
	}
	return nil
}

// Cleanup releases kind's resources once a run completes. keepInRAM
// requests the model stay resident in host memory for reuse by a later
// run (the DiTCache/VAECache configuration).
func (s *Stager) Cleanup(ctx context.Context, kind string, keepInRAM bool) error {
	if err := s.backend.Cleanup(ctx, kind, keepInRAM); err != nil {
		return errors.Wrapf(err, "stager: cleanup %s", kind)
	}
	return nil
}

// SwapSummary returns the backend's most recent block-swap summary, if
// any.
func (s *Stager) SwapSummary() string { return s.backend.SwapSummary() }

var localRankOnce sync.Once

// SetLocalRank sets the LOCAL_RANK environment variable from dev's
// ordinal suffix (e.g. "cuda:2" -> "2"), or "0" if dev carries none.
// This is a necessary evil imposed by the external model loader's
// distributed-compat expectations: it is a single-writer, init-time
// operation, and concurrent pipeline instances in the same process are
// unsupported.
func SetLocalRank(dev ops.Device) {
	localRankOnce.Do(func() {
		os.Setenv("LOCAL_RANK", localRankOrdinal(dev))
	})
}

func localRankOrdinal(dev ops.Device) string {
	s := string(dev)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			if _, err := strconv.Atoi(s[i+1:]); err == nil {
				return s[i+1:]
			}
			break
		}
	}
	return "0"
}
