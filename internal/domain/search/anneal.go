package search

import (
	"fmt"
	"math"

	"github.com/okian/lineup/internal/domain/collision"
	"github.com/okian/lineup/internal/domain/model"
)

// Default annealing parameters.
const (
	DefaultMaxIterations      = 10_000
	DefaultInitialTemperature = 1000.0
	DefaultCoolingRate        = 0.003
)

// AnnealParams tunes the annealing run.
type AnnealParams struct {
	MaxIterations      int
	InitialTemperature float64
	CoolingRate        float64
}

// DefaultAnnealParams returns the stock tuning.
func DefaultAnnealParams() AnnealParams {
	return AnnealParams{
		MaxIterations:      DefaultMaxIterations,
		InitialTemperature: DefaultInitialTemperature,
		CoolingRate:        DefaultCoolingRate,
	}
}

// Validate rejects parameters the loop cannot use.
// A non-positive temperature is legal and simply ends the run at once.
func (p AnnealParams) Validate() error {
	switch {
	case p.MaxIterations < 0:
		return fmt.Errorf("%w: max iterations %d is negative", ErrInvalidParams, p.MaxIterations)
	case math.IsNaN(p.InitialTemperature) || math.IsInf(p.InitialTemperature, 0):
		return fmt.Errorf("%w: initial temperature must be finite", ErrInvalidParams)
	case math.IsNaN(p.CoolingRate) || p.CoolingRate < 0 || p.CoolingRate > 1:
		return fmt.Errorf("%w: cooling rate %v outside [0, 1]", ErrInvalidParams, p.CoolingRate)
	}
	return nil
}

// AnnealResult is the best schedule seen during a run.
type AnnealResult struct {
	Schedule         model.Schedule
	Cost             int
	InitialCost      int
	Iterations       int
	Accepted         int
	FinalTemperature float64
}

// Anneal searches for a low-collision schedule by simulated annealing with
// a geometric cooling schedule and random two-position swaps.
//
// The result is not guaranteed optimal. Its cost never exceeds the cost of
// the random starting schedule.
func Anneal(cat *model.Catalog, pins model.Pins, params AnnealParams, opts ...AnnealOption) (AnnealResult, error) {
	if err := params.Validate(); err != nil {
		return AnnealResult{}, err
	}
	l, err := newLayout(cat, pins)
	if err != nil {
		return AnnealResult{}, err
	}
	cfg := newAnnealConfig(opts)
	rng := cfg.rng

	middle := append([]int(nil), l.free...)
	rng.Shuffle(len(middle), func(i, j int) { middle[i], middle[j] = middle[j], middle[i] })

	ev := collision.NewEvaluator(cat)
	cur := l.assemble(make([]int, 0, l.total), middle)
	curCost := ev.CostOf(cur)
	best := append([]int(nil), cur...)
	bestCost := curCost

	res := AnnealResult{InitialCost: curCost, FinalTemperature: params.InitialTemperature}
	swappable := l.eligible()
	if len(swappable) < 2 {
		res.Schedule = names(cat, best)
		res.Cost = bestCost
		return res, nil
	}

	cand := make([]int, len(cur))
	temp := params.InitialTemperature
	for iter := 0; iter < params.MaxIterations && bestCost > 0; iter++ {
		temp *= 1 - params.CoolingRate
		if temp <= 0 {
			break
		}
		res.Iterations++

		a := rng.Intn(len(swappable))
		b := rng.Intn(len(swappable) - 1)
		if b >= a {
			b++
		}
		i, j := swappable[a], swappable[b]
		copy(cand, cur)
		cand[i], cand[j] = cand[j], cand[i]
		candCost := ev.CostOf(cand)

		delta := candCost - curCost
		accept := 1.0
		if delta >= 0 {
			accept = math.Exp(-float64(delta) / temp)
		}
		if rng.Float64() < accept {
			cur, cand = cand, cur
			curCost = candCost
			res.Accepted++
		}
		if curCost < bestCost {
			copy(best, cur)
			bestCost = curCost
		}

		if cfg.progress != nil && res.Iterations%cfg.progressEvery == 0 {
			cfg.progress(AnnealProgress{
				Iteration:   res.Iterations,
				CurrentCost: curCost,
				BestCost:    bestCost,
				Temperature: temp,
			})
		}
	}

	res.Schedule = names(cat, best)
	res.Cost = bestCost
	res.FinalTemperature = temp
	return res, nil
}
