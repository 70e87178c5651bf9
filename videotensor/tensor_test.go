/*
NAME
  tensor_test.go

DESCRIPTION
  tensor_test.go tests Tensor's indexing, slicing, and layout-permute
  operations.
*/

package videotensor

import (
	"math/rand"
	"testing"
)

func newTestRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestTensorAtSet(t *testing.T) {
	tensor := New([4]int{2, 3, 4, 5}, LayoutTCHW)
	tensor.Set(1, 2, 3, 4, 7)
	if got := tensor.At(1, 2, 3, 4); got != 7 {
		t.Fatalf("At() = %v, want 7", got)
	}
	if got := tensor.At(0, 0, 0, 0); got != 0 {
		t.Fatalf("At() on untouched index = %v, want 0", got)
	}
}

func TestTensorClone(t *testing.T) {
	tensor := New([4]int{1, 1, 1, 2}, LayoutTCHW)
	tensor.Data[0] = 1
	clone := tensor.Clone()
	clone.Data[0] = 2
	if tensor.Data[0] != 1 {
		t.Fatal("Clone shares backing storage with the original")
	}
}

func TestSliceAxis0(t *testing.T) {
	tensor := New([4]int{5, 1, 1, 1}, LayoutTCHW)
	for i := range tensor.Data {
		tensor.Data[i] = float32(i)
	}
	out := tensor.SliceAxis0(1, 3)
	if out.Shape[0] != 2 {
		t.Fatalf("SliceAxis0 shape[0] = %d, want 2", out.Shape[0])
	}
	if out.Data[0] != 1 || out.Data[1] != 2 {
		t.Fatalf("SliceAxis0 data = %v, want [1 2]", out.Data)
	}
}

func TestSliceAxis0PanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("SliceAxis0 with out-of-range end should panic")
		}
	}()
	New([4]int{2, 1, 1, 1}, LayoutTCHW).SliceAxis0(0, 3)
}

func TestRepeatLastFrame(t *testing.T) {
	tensor := New([4]int{2, 1, 1, 2}, LayoutTCHW)
	tensor.Data = []float32{1, 1, 9, 9}
	out := tensor.RepeatLastFrame(3)
	if out.Shape[0] != 5 {
		t.Fatalf("RepeatLastFrame shape[0] = %d, want 5", out.Shape[0])
	}
	for f := 2; f < 5; f++ {
		if out.Data[f*2] != 9 || out.Data[f*2+1] != 9 {
			t.Fatalf("repeated frame %d = %v, want [9 9]", f, out.Data[f*2:f*2+2])
		}
	}
}

func TestPermuteRoundTrip(t *testing.T) {
	tensor := New([4]int{2, 3, 4, 5}, LayoutTCHW)
	for i := range tensor.Data {
		tensor.Data[i] = float32(i)
	}
	cthw := tensor.PermuteTCHWtoCTHW()
	if cthw.Shape != [4]int{3, 2, 4, 5} {
		t.Fatalf("PermuteTCHWtoCTHW shape = %v, want [3 2 4 5]", cthw.Shape)
	}
	back := cthw.PermuteCTHWtoTCHW()
	if back.Shape != tensor.Shape {
		t.Fatalf("round-trip shape = %v, want %v", back.Shape, tensor.Shape)
	}
	for i := range back.Data {
		if back.Data[i] != tensor.Data[i] {
			t.Fatalf("round-trip data mismatch at %d: got %v want %v", i, back.Data[i], tensor.Data[i])
		}
	}
}

func TestPermuteTCHWtoTHWC(t *testing.T) {
	tensor := New([4]int{2, 3, 4, 5}, LayoutTCHW)
	out := tensor.PermuteTCHWtoTHWC()
	if out.Shape != [4]int{2, 4, 5, 3} {
		t.Fatalf("PermuteTCHWtoTHWC shape = %v, want [2 4 5 3]", out.Shape)
	}
	if out.Layout != LayoutTHWC {
		t.Fatalf("PermuteTCHWtoTHWC layout = %v, want LayoutTHWC", out.Layout)
	}
}

func TestSliceAndConcatChannels(t *testing.T) {
	tensor := New([4]int{1, 4, 2, 2}, LayoutTCHW)
	for i := range tensor.Data {
		tensor.Data[i] = float32(i)
	}
	rgb := tensor.SliceChannels(0, 3)
	alpha := tensor.SliceChannels(3, 4)
	if rgb.Shape[1] != 3 || alpha.Shape[1] != 1 {
		t.Fatalf("SliceChannels shapes = %v, %v, want channel counts 3, 1", rgb.Shape, alpha.Shape)
	}

	merged := ConcatChannels(rgb, alpha)
	if merged.Shape != tensor.Shape {
		t.Fatalf("ConcatChannels shape = %v, want %v", merged.Shape, tensor.Shape)
	}
	for i := range merged.Data {
		if merged.Data[i] != tensor.Data[i] {
			t.Fatalf("ConcatChannels round-trip mismatch at %d: got %v want %v", i, merged.Data[i], tensor.Data[i])
		}
	}
}

func TestMapAndClamp(t *testing.T) {
	tensor := New([4]int{1, 1, 1, 3}, LayoutTCHW)
	tensor.Data = []float32{-5, 0, 5}
	tensor.Clamp(-1, 1)
	want := []float32{-1, 0, 1}
	for i, v := range tensor.Data {
		if v != want[i] {
			t.Errorf("Clamp()[%d] = %v, want %v", i, v, want[i])
		}
	}

	tensor.Map(func(v float32) float32 { return v * 2 })
	want2 := []float32{-2, 0, 2}
	for i, v := range tensor.Data {
		if v != want2[i] {
			t.Errorf("Map()[%d] = %v, want %v", i, v, want2[i])
		}
	}
}
