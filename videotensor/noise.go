package videotensor

import "math/rand"

// GaussianLike returns a tensor shaped like t with iid standard-normal
// entries, drawn from rng.
func GaussianLike(t *Tensor, rng *rand.Rand) *Tensor {
	out := New(t.Shape, t.Layout)
	for i := range out.Data {
		out.Data[i] = float32(rng.NormFloat64())
	}
	return out
}

// Denormalize clips to [-1,1] then affinely maps to [0,1], the inverse of
// normalize.
func Denormalize(t *Tensor) {
	t.Clamp(-1, 1)
	t.Map(func(v float32) float32 { return v*0.5 + 0.5 })
}
