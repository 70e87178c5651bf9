/*
NAME
  conform.go

DESCRIPTION
  conform.go implements the frame conformer: it enforces the 4n+1
  temporal constraint via last-frame repetition padding.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import "github.com/nereidav/upscale/videotensor"

// Conform pads t (LayoutTCHW) with repeated last frames, if needed, so
// that its frame count satisfies len%4==1. It returns the conformed
// tensor and the original, pre-padding frame count.
func Conform(t *videotensor.Tensor) (conformed *videotensor.Tensor, oriLength int) {
	n := t.Shape[0]
	target := conformedLength(n)
	if target == n {
		return t, n
	}
	return t.RepeatLastFrame(target - n), n
}
