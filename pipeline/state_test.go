/*
NAME
  state_test.go

DESCRIPTION
  state_test.go tests Slot's sum-type semantics: a phase must not
  observe an entry it has already consumed.
*/

package pipeline

import (
	"testing"

	"github.com/nereidav/upscale/videotensor"
)

func TestSlotLifecycle(t *testing.T) {
	var s Slot

	if _, ok := s.Take(); ok {
		t.Fatal("Take on empty slot should report ok=false")
	}
	if _, ok := s.Peek(); ok {
		t.Fatal("Peek on empty slot should report ok=false")
	}
	if s.IsConsumed() {
		t.Fatal("empty slot should not report consumed")
	}

	tensor := videotensor.New([4]int{1, 1, 1, 1}, videotensor.LayoutTCHW)
	tensor.Data[0] = 42
	s.Fill(tensor)

	got, ok := s.Peek()
	if !ok || got.Data[0] != 42 {
		t.Fatalf("Peek after Fill = (%v, %v), want (42, true)", got, ok)
	}
	if s.IsConsumed() {
		t.Fatal("filled, unconsumed slot should not report consumed")
	}

	taken, ok := s.Take()
	if !ok || taken.Data[0] != 42 {
		t.Fatalf("Take after Fill = (%v, %v), want (42, true)", taken, ok)
	}
	if !s.IsConsumed() {
		t.Fatal("slot should report consumed after Take")
	}

	if _, ok := s.Take(); ok {
		t.Fatal("second Take on a consumed slot returned ok=true")
	}
	if _, ok := s.Peek(); ok {
		t.Fatal("Peek on a consumed slot returned ok=true")
	}
}

func TestSlotRefill(t *testing.T) {
	var s Slot
	s.Fill(videotensor.New([4]int{1, 1, 1, 1}, videotensor.LayoutTCHW))
	s.Take()

	s.Fill(videotensor.New([4]int{2, 1, 1, 1}, videotensor.LayoutTCHW))
	if s.IsConsumed() {
		t.Fatal("refilled slot should not report consumed")
	}
	got, ok := s.Peek()
	if !ok || got.Shape[0] != 2 {
		t.Fatalf("Peek after refill = (%v, %v), want shape[0]=2", got, ok)
	}
}
