/*
NAME
  transform_test.go

DESCRIPTION
  transform_test.go tests the Video Transform and the
  bilinear resize it's built on.
*/

package videotensor

import "testing"

func TestTransformApplyShape(t *testing.T) {
	cases := []struct {
		name         string
		inH, inW     int
		resW         int
		wantH, wantW int
	}{
		{"already divisible by 16", 32, 32, 32, 32, 32},
		{"needs crop after resize", 33, 65, 32, 32, 48},
		{"portrait", 64, 32, 16, 32, 16},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := New([4]int{3, 3, c.inH, c.inW}, LayoutTCHW)
			tr := NewTransform(c.resW)
			out := tr.Apply(in)

			if out.Layout != LayoutCTHW {
				t.Fatalf("Apply() layout = %v, want LayoutCTHW", out.Layout)
			}
			if out.Shape[0] != 3 {
				t.Errorf("channel count = %d, want 3", out.Shape[0])
			}
			if out.Shape[1] != 3 {
				t.Errorf("frame count = %d, want 3", out.Shape[1])
			}
			if out.Shape[2]%16 != 0 || out.Shape[3]%16 != 0 {
				t.Errorf("output spatial shape (%d,%d) not divisible by 16", out.Shape[2], out.Shape[3])
			}
			if out.Shape[2] != c.wantH || out.Shape[3] != c.wantW {
				t.Errorf("output spatial shape = (%d,%d), want (%d,%d)", out.Shape[2], out.Shape[3], c.wantH, c.wantW)
			}
		})
	}
}

func TestTransformApplyNormalizesRange(t *testing.T) {
	in := New([4]int{1, 3, 32, 32}, LayoutTCHW)
	for i := range in.Data {
		in.Data[i] = 1.0
	}
	tr := NewTransform(32)
	out := tr.Apply(in)
	for _, v := range out.Data {
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("normalized value %v out of [-1,1]", v)
		}
	}
	// input was all-1.0 (post-clamp), so normalize((1-0.5)/0.5) = 1.
	for _, v := range out.Data {
		if v < 0.999 {
			t.Fatalf("expected normalized value ~1.0, got %v", v)
		}
	}
}

func TestResizeBilinearIdentity(t *testing.T) {
	in := New([4]int{1, 3, 16, 16}, LayoutTCHW)
	for i := range in.Data {
		in.Data[i] = float32(i)
	}
	out := ResizeBilinear(in, 16, 16)
	if out.Shape != in.Shape {
		t.Fatalf("ResizeBilinear to same size shape = %v, want %v", out.Shape, in.Shape)
	}
	for i := range out.Data {
		if out.Data[i] != in.Data[i] {
			t.Fatalf("ResizeBilinear to same size changed data at %d: got %v want %v", i, out.Data[i], in.Data[i])
		}
	}
}

func TestResizeBilinearChangesShape(t *testing.T) {
	in := New([4]int{1, 3, 8, 8}, LayoutTCHW)
	out := ResizeBilinear(in, 16, 24)
	if out.Shape[2] != 16 || out.Shape[3] != 24 {
		t.Fatalf("ResizeBilinear shape = %v, want H=16 W=24", out.Shape)
	}
	if out.Shape[0] != in.Shape[0] || out.Shape[1] != in.Shape[1] {
		t.Fatalf("ResizeBilinear changed non-spatial dims: %v", out.Shape)
	}
}

func TestGaussianLikeShape(t *testing.T) {
	in := New([4]int{2, 3, 4, 4}, LayoutCTHW)
	out := GaussianLike(in, newTestRand())
	if out.Shape != in.Shape {
		t.Fatalf("GaussianLike shape = %v, want %v", out.Shape, in.Shape)
	}
	if out.Layout != in.Layout {
		t.Fatalf("GaussianLike layout = %v, want %v", out.Layout, in.Layout)
	}
}

func TestDenormalizeClampsAndRescales(t *testing.T) {
	in := New([4]int{1, 1, 1, 4}, LayoutTHWC)
	in.Data = []float32{-2, -1, 1, 2}
	Denormalize(in)
	want := []float32{0, 0, 1, 1}
	for i, v := range in.Data {
		if v != want[i] {
			t.Errorf("Denormalize()[%d] = %v, want %v", i, v, want[i])
		}
	}
}
