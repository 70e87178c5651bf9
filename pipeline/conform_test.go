/*
NAME
  conform_test.go

DESCRIPTION
  conform_test.go tests the Frame Conformer.
*/

package pipeline

import (
	"testing"

	"github.com/nereidav/upscale/videotensor"
)

func frameTensor(n, h, w int) *videotensor.Tensor {
	t := videotensor.New([4]int{n, 3, h, w}, videotensor.LayoutTCHW)
	for i := 0; i < n; i++ {
		for j := 0; j < 3*h*w; j++ {
			t.Data[i*3*h*w+j] = float32(i)
		}
	}
	return t
}

func TestConform(t *testing.T) {
	cases := []struct {
		name       string
		n          int
		wantLen    int
		wantOriLen int
	}{
		{"already 4n+1", 5, 5, 5},
		{"needs 3-frame pad", 2, 5, 2},
		{"needs 1-frame pad", 4, 5, 4},
		{"exact one frame", 1, 1, 1},
		{"large batch exact", 17, 17, 17},
		{"large batch off by one", 16, 17, 16},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := frameTensor(c.n, 4, 4)
			out, oriLen := Conform(in)
			if out.Shape[0] != c.wantLen {
				t.Errorf("conformed length = %d, want %d", out.Shape[0], c.wantLen)
			}
			if oriLen != c.wantOriLen {
				t.Errorf("oriLength = %d, want %d", oriLen, c.wantOriLen)
			}
			if out.Shape[0]%4 != 1 {
				t.Errorf("conformed length %d is not 4n+1", out.Shape[0])
			}
		})
	}
}

func TestConformRepeatsLastFrame(t *testing.T) {
	in := frameTensor(2, 4, 4)
	out, _ := Conform(in)
	per := 3 * 4 * 4
	last := in.Data[per : 2*per] // frame index 1's data
	for f := 2; f < out.Shape[0]; f++ {
		got := out.Data[f*per : (f+1)*per]
		for i := range got {
			if got[i] != last[i] {
				t.Fatalf("frame %d does not match repeated last frame at offset %d: got %v want %v", f, i, got[i], last[i])
			}
		}
	}
}
