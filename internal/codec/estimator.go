package codec

import (
	"strconv"

	"github.com/polarcraft/polarstudio/internal/bench"
	"github.com/polarcraft/polarstudio/internal/registry"
)

// Estimator predicts token length without encoding. Each component is
// charged the worst case for its kind: the separator, the tag, the widest
// possible position and rotation, and every parameter as if it were set
// to its widest non-default value. The result is therefore never below
// the real encoded length.
type Estimator struct {
	opts       options
	versionLen int
	costs      map[*registry.Kind]int
}

// NewEstimator precomputes per-kind costs for every kind in reg (or the
// default registry when reg is nil). The Estimator is read-only afterwards.
func NewEstimator(reg *registry.Registry, opts ...Option) *Estimator {
	if reg == nil {
		reg = registry.Default()
	}
	e := &Estimator{
		opts:       buildOptions(opts),
		versionLen: len(strconv.Itoa(FormatVersion)),
		costs:      make(map[*registry.Kind]int, reg.Len()),
	}
	for _, k := range reg.Kinds() {
		e.costs[k] = e.kindCost(k)
	}
	return e
}

// Estimate returns an upper bound on len(Encode(s)).
func (e *Estimator) Estimate(s bench.State) int {
	if len(s) == 0 {
		return 0
	}

	total := e.versionLen
	for _, c := range s {
		total += e.KindCost(c.Kind)
	}
	return total
}

// KindCost is the worst-case record length of one component of kind k,
// including its leading separator.
func (e *Estimator) KindCost(k *registry.Kind) int {
	if cost, ok := e.costs[k]; ok {
		return cost
	}
	return e.kindCost(k)
}

func (e *Estimator) kindCost(k *registry.Kind) int {
	d := e.opts.precision

	cost := 1 + len(k.Tag)
	cost += 2 * (1 + registry.PositionField.Width(d))
	cost += 1 + registry.RotationField.Width(d)
	for _, p := range k.Params {
		cost += 1 + len(p.Key) + p.Width(d)
	}
	return cost
}
