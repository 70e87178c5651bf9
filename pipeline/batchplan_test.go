/*
NAME
  batchplan_test.go

DESCRIPTION
  batchplan_test.go tests the batch planner, modeled on revid_test's
  table-driven style.
*/

package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlan(t *testing.T) {
	cases := []struct {
		name                string
		totalFrames         int
		batchSize           int
		temporalOverlap     int
		wantStep            int
		wantTemporalOverlap int
		wantBestBatch       int
		wantPaddingWaste    int
		wantIsOptimal       bool
	}{
		{
			name:                "single batch exact 4n+1",
			totalFrames:         5,
			batchSize:           5,
			temporalOverlap:     0,
			wantStep:            5,
			wantTemporalOverlap: 0,
			wantBestBatch:       5,
			wantPaddingWaste:    0,
			wantIsOptimal:       true,
		},
		{
			name:                "padding case: T=7, batch=5, overlap=0",
			totalFrames:         7,
			batchSize:           5,
			temporalOverlap:     0,
			wantStep:            5,
			wantTemporalOverlap: 0,
			wantBestBatch:       5,
			wantPaddingWaste:    3, // second batch: 2 frames padded to 5
			wantIsOptimal:       false,
		},
		{
			name:                "temporal overlap: T=17, batch=9, overlap=4",
			totalFrames:         17,
			batchSize:           9,
			temporalOverlap:     4,
			wantStep:            5,
			wantTemporalOverlap: 4,
			wantBestBatch:       17,
			// The planner's simulation walks every step position through to
			// totalFrames, independent of the phase driver's
			// separate early-termination rule: positions 0 and
			// 5 land on exact 9-frame batches, but 10 (7 frames, padded to 9)
			// and 15 (2 frames, padded to 5) both require padding.
			wantPaddingWaste: 5,
			wantIsOptimal:    false,
		},
		{
			name:                "non-positive step falls back to batchSize, overlap zeroed",
			totalFrames:         10,
			batchSize:           4,
			temporalOverlap:     6,
			wantStep:            4,
			wantTemporalOverlap: 0,
			wantBestBatch:       9,
			wantPaddingWaste:    5, // batches of 4,4,2 pad to 5,5,5
			wantIsOptimal:       false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Plan(c.totalFrames, c.batchSize, c.temporalOverlap)
			want := BatchPlan{
				Step:            c.wantStep,
				TemporalOverlap: c.wantTemporalOverlap,
				BestBatch:       c.wantBestBatch,
				PaddingWaste:    c.wantPaddingWaste,
				IsOptimal:       c.wantIsOptimal,
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Plan(%d, %d, %d) mismatch (-want +got):\n%s",
					c.totalFrames, c.batchSize, c.temporalOverlap, diff)
			}
		})
	}
}

func TestBatchStarts(t *testing.T) {
	cases := []struct {
		name        string
		totalFrames int
		batchSize   int
		step        int
		want        []int
	}{
		{"padding case", 7, 5, 5, []int{0, 5}},
		{"temporal overlap", 17, 9, 5, []int{0, 5, 10}},
		{"exact single batch", 5, 5, 5, []int{0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := batchStarts(c.totalFrames, c.batchSize, c.step)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("batchStarts(%d, %d, %d) mismatch (-want +got):\n%s",
					c.totalFrames, c.batchSize, c.step, diff)
			}
		})
	}
}
