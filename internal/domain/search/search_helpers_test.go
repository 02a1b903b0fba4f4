package search_test

import (
	"fmt"

	"github.com/okian/lineup/internal/domain/model"
)

func mustCatalog(acts ...model.Act) *model.Catalog {
	cat, err := model.NewCatalog(acts...)
	if err != nil {
		panic(err)
	}
	return cat
}

// overlapCatalog is the X/Y/Z chain where neighbours share one performer.
func overlapCatalog() *model.Catalog {
	return mustCatalog(
		model.Act{Name: "X", Performers: []string{"a", "b"}},
		model.Act{Name: "Y", Performers: []string{"b", "c"}},
		model.Act{Name: "Z", Performers: []string{"c", "d"}},
	)
}

func disjointCatalog() *model.Catalog {
	return mustCatalog(
		model.Act{Name: "X", Performers: []string{"a"}},
		model.Act{Name: "Y", Performers: []string{"b"}},
		model.Act{Name: "Z", Performers: []string{"c"}},
	)
}

// troupeCatalog builds n acts drawn from a small performer pool so that
// collisions are unavoidable in many orders.
func troupeCatalog(n int) *model.Catalog {
	pool := []string{"ana", "ben", "cara", "dev", "eli", "fay"}
	acts := make([]model.Act, n)
	for i := range acts {
		acts[i] = model.Act{
			Name:       fmt.Sprintf("act-%02d", i),
			Performers: []string{pool[i%len(pool)], pool[(i*2+1)%len(pool)], pool[(i*3+2)%len(pool)]},
		}
	}
	return mustCatalog(acts...)
}

// allOrders returns every permutation of names, built independently of the
// package under test.
func allOrders(names []string) []model.Schedule {
	if len(names) == 0 {
		return []model.Schedule{{}}
	}
	var out []model.Schedule
	for i, n := range names {
		rest := make([]string, 0, len(names)-1)
		rest = append(rest, names[:i]...)
		rest = append(rest, names[i+1:]...)
		for _, tail := range allOrders(rest) {
			out = append(out, append(model.Schedule{n}, tail...))
		}
	}
	return out
}
