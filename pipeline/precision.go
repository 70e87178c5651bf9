/*
NAME
  precision.go

DESCRIPTION
  precision.go implements the precision detector: on first model touch,
  derive the compute and autocast dtypes from the VAE/DiT weight dtypes.
  The detection hook is preserved even though it is currently constant.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import "github.com/nereidav/upscale/pipeline/ops"

// DetectPrecision inspects vae's and dit's weight dtypes and returns the
// (compute, autocast) dtype pair to use for the remainder of the run.
// Regardless of what is observed, including a failed inspection, the
// policy today is always bfloat16: 8-bit formats cannot do arithmetic
// and 16-bit float produces black frames in this pipeline. The hook exists so a future policy can diverge per model.
func DetectPrecision(vae ops.VAE, dit ops.DiT) (compute, autocast ops.Dtype) {
	_, _ = vae.Dtype()
	_, _ = dit.Dtype()
	return ops.DtypeBfloat16, ops.DtypeBfloat16
}
