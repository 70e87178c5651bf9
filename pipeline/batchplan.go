/*
NAME
  batchplan.go

DESCRIPTION
  batchplan.go implements the batch planner: an advisory computation of
  step size, best achievable batch length, and padding waste for a given
  total frame count, batch size, and temporal overlap. The plan is reported but never alters actual batching.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

// BatchPlan is the advisory report produced by Plan.
type BatchPlan struct {
	Step            int
	TemporalOverlap int
	BestBatch       int
	PaddingWaste    int
	IsOptimal       bool
}

// Plan computes a BatchPlan for totalFrames frames given batchSize and
// temporalOverlap. It does not mutate any pipeline state; actual
// batching always proceeds using batchSize and the returned Step.
func Plan(totalFrames, batchSize, temporalOverlap int) BatchPlan {
	step := batchSize - temporalOverlap
	overlap := temporalOverlap
	if step <= 0 {
		step = batchSize
		overlap = 0
	}

	best := bestBatchLength(totalFrames)
	waste := simulatePaddingWaste(totalFrames, batchSize, step)

	return BatchPlan{
		Step:            step,
		TemporalOverlap: overlap,
		BestBatch:       best,
		PaddingWaste:    waste,
		IsOptimal:       waste == 0,
	}
}

// bestBatchLength returns the greatest k in [1, totalFrames] with
// k%4==1, or 0 if totalFrames < 1.
func bestBatchLength(totalFrames int) int {
	if totalFrames < 1 {
		return 0
	}
	k := totalFrames - (totalFrames-1)%4
	if k < 1 {
		k = 1
	}
	return k
}

// simulatePaddingWaste walks the same batch-position sequence the phase
// drivers will use and sums the last-frame-repetition padding each batch
// would require to reach the next 4n+1 length.
func simulatePaddingWaste(totalFrames, batchSize, step int) int {
	waste := 0
	for p := 0; p < totalFrames; p += step {
		remaining := totalFrames - p
		n := batchSize
		if remaining < n {
			n = remaining
		}
		if n <= 0 {
			break
		}
		target := conformedLength(n)
		waste += target - n
	}
	return waste
}

// conformedLength returns the smallest 4n+1 value >= n.
func conformedLength(n int) int {
	if n%4 == 1 {
		return n
	}
	return ((n-1)/4+1)*4 + 1
}
