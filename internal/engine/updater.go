package engine

import (
	"github.com/hupe1980/versego/internal/sigmoid"
	"github.com/hupe1980/versego/internal/simd"
)

// updater applies one logistic-loss gradient step to a (source, target) pair.
//
// src rows are read and written for the source node. Target rows are read from
// tgt and their update is written to out. When out and tgt share storage the
// source row is updated with the already-updated target row; when they differ
// it sees the target row as it was before the step.
type updater struct {
	src []float32
	tgt []float32
	out []float32
	dim int
	lr  float32
	sig *sigmoid.Table
}

func (u *updater) update(s, t int32, label, bias float32) {
	so := int(s) * u.dim
	to := int(t) * u.dim

	ws := u.src[so : so+u.dim : so+u.dim]
	wt := u.tgt[to : to+u.dim : to+u.dim]
	wo := u.out[to : to+u.dim : to+u.dim]

	score := simd.Dot(ws, wt) - bias
	g := (label - u.sig.Eval(score)) * u.lr

	simd.Axpy(g, ws, wo)
	simd.Axpy(g, wt, ws)
}
