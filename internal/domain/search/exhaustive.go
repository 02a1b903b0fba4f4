package search

import (
	"github.com/okian/lineup/internal/domain/collision"
	"github.com/okian/lineup/internal/domain/model"
)

// ExhaustiveResult holds every schedule achieving the minimum cost.
type ExhaustiveResult struct {
	Schedules     []model.Schedule
	MinCost       int
	Examined      uint64
	TiesTruncated uint64
	Plan          Plan
}

// Exhaustive evaluates every ordering of the free acts with the pinned acts
// at the ends and returns all orderings tied at the minimum cost.
//
// It always examines all m! candidates, where m is the number of free acts.
// When the plan exceeds the warning threshold the confirm callback decides;
// without one the search is rejected with ErrNotConfirmed.
func Exhaustive(cat *model.Catalog, pins model.Pins, opts ...ExhaustiveOption) (ExhaustiveResult, error) {
	cfg := newExhaustiveConfig(opts)
	l, err := newLayout(cat, pins)
	if err != nil {
		return ExhaustiveResult{}, err
	}
	plan := l.plan(cfg.threshold)
	if plan.Warning && (cfg.confirm == nil || !cfg.confirm(plan)) {
		return ExhaustiveResult{Plan: plan}, ErrNotConfirmed
	}

	ev := collision.NewEvaluator(cat)
	res := ExhaustiveResult{MinCost: -1, Plan: plan}
	order := make([]int, 0, l.total)

	permute(l.free, func(middle []int) {
		order = l.assemble(order, middle)
		cost := ev.CostOf(order)
		res.Examined++

		switch {
		case res.MinCost < 0 || cost < res.MinCost:
			res.MinCost = cost
			res.Schedules = []model.Schedule{names(cat, order)}
			res.TiesTruncated = 0
		case cost == res.MinCost:
			if cfg.maxTies > 0 && len(res.Schedules) >= cfg.maxTies {
				res.TiesTruncated++
			} else {
				res.Schedules = append(res.Schedules, names(cat, order))
			}
		}

		if cfg.progress != nil && res.Examined%cfg.progressEvery == 0 {
			cfg.progress(Progress{
				Examined: res.Examined,
				Total:    plan.Permutations,
				MinCost:  res.MinCost,
				Ties:     len(res.Schedules),
			})
		}
	})
	return res, nil
}
