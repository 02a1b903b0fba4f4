// Package collision computes the cost of a schedule: the number of times a
// performer appears in two consecutive acts.
package collision

import (
	"fmt"

	"github.com/okian/lineup/internal/domain/model"
)

// Evaluator computes costs for orders expressed as catalog positions.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	cat *model.Catalog
}

// NewEvaluator returns an Evaluator over cat.
func NewEvaluator(cat *model.Catalog) *Evaluator {
	return &Evaluator{cat: cat}
}

// CostOf returns the number of collisions in order.
func (e *Evaluator) CostOf(order []int) int {
	return e.walk(order, nil)
}

// EventsOf returns every collision in order, left to right.
func (e *Evaluator) EventsOf(order []int) []model.CollisionEvent {
	var events []model.CollisionEvent
	e.walk(order, func(performer, i int) {
		events = append(events, model.CollisionEvent{
			Performer:   e.cat.PerformerName(performer),
			PreviousAct: e.cat.Name(order[i-1]),
			CurrentAct:  e.cat.Name(order[i]),
			Positions:   [2]int{i, i + 1},
		})
	})
	return events
}

// walk is the single linear pass both CostOf and EventsOf rely on.
// last[p] holds 1 + the position where performer p was last seen; 0 means
// never. The scratch slice lives only for this call.
func (e *Evaluator) walk(order []int, visit func(performer, i int)) int {
	last := make([]int, e.cat.PerformerCount())
	cost := 0
	for i, act := range order {
		for _, p := range e.cat.PerformerIDs(act) {
			if i > 0 && last[p] == i {
				cost++
				if visit != nil {
					visit(p, i)
				}
			}
			last[p] = i + 1
		}
	}
	return cost
}

// Positions converts a schedule of act names into catalog positions.
func Positions(cat *model.Catalog, schedule model.Schedule) ([]int, error) {
	order := make([]int, len(schedule))
	for i, name := range schedule {
		idx, ok := cat.Index(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", model.ErrUnknownAct, name, i+1)
		}
		order[i] = idx
	}
	return order, nil
}

// Evaluate returns the cost of schedule.
func Evaluate(cat *model.Catalog, schedule model.Schedule) (int, error) {
	order, err := Positions(cat, schedule)
	if err != nil {
		return 0, err
	}
	return NewEvaluator(cat).CostOf(order), nil
}

// Explain returns the ordered list of collisions in schedule.
// len(Explain(...)) always equals Evaluate(...).
func Explain(cat *model.Catalog, schedule model.Schedule) ([]model.CollisionEvent, error) {
	order, err := Positions(cat, schedule)
	if err != nil {
		return nil, err
	}
	return NewEvaluator(cat).EventsOf(order), nil
}
