package search_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/lineup/internal/domain/collision"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/search"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAnneal(t *testing.T) {
	Convey("Given a ten act catalog", t, func() {
		cat := troupeCatalog(10)
		params := search.DefaultAnnealParams()

		Convey("When annealing with a fixed seed", func() {
			first, err := search.Anneal(cat, model.Pins{}, params, search.WithSeed(42))
			So(err, ShouldBeNil)
			second, err := search.Anneal(cat, model.Pins{}, params, search.WithSeed(42))
			So(err, ShouldBeNil)

			Convey("Then the run is reproducible", func() {
				So(second.Schedule, ShouldResemble, first.Schedule)
				So(second.Cost, ShouldEqual, first.Cost)
				So(second.Iterations, ShouldEqual, first.Iterations)
			})

			Convey("And the result is a valid permutation with a truthful cost", func() {
				So(model.ValidatePermutation(cat, first.Schedule), ShouldBeNil)
				cost, err := collision.Evaluate(cat, first.Schedule)
				So(err, ShouldBeNil)
				So(cost, ShouldEqual, first.Cost)
			})

			Convey("And it never ends worse than it started", func() {
				So(first.Cost, ShouldBeLessThanOrEqualTo, first.InitialCost)
				So(first.Iterations, ShouldBeLessThanOrEqualTo, params.MaxIterations)
			})
		})

		Convey("When both ends are pinned", func() {
			pins := model.Pins{Start: "act-03", End: "act-07"}

			Convey("Then every seed keeps the pins in place", func() {
				for seed := int64(1); seed <= 5; seed++ {
					res, err := search.Anneal(cat, pins, params, search.WithSeed(seed))
					So(err, ShouldBeNil)
					So(res.Schedule[0], ShouldEqual, "act-03")
					So(res.Schedule[len(res.Schedule)-1], ShouldEqual, "act-07")
					So(model.ValidatePermutation(cat, res.Schedule), ShouldBeNil)
				}
			})
		})

		Convey("When progress is requested", func() {
			var seen []search.AnnealProgress
			short := search.AnnealParams{MaxIterations: 50, InitialTemperature: 1000, CoolingRate: 0.003}
			res, err := search.Anneal(cat, model.Pins{}, short, search.WithSeed(7),
				search.WithAnnealProgress(10, func(p search.AnnealProgress) { seen = append(seen, p) }))

			So(err, ShouldBeNil)
			So(len(seen), ShouldEqual, res.Iterations/10)
			for _, p := range seen {
				So(p.BestCost, ShouldBeLessThanOrEqualTo, p.CurrentCost)
				So(p.Temperature, ShouldBeLessThan, short.InitialTemperature)
			}
		})

		Convey("When the caller supplies the random source", func() {
			a, _ := search.Anneal(cat, model.Pins{}, params, search.WithRand(rand.New(rand.NewSource(9))))
			b, _ := search.Anneal(cat, model.Pins{}, params, search.WithSeed(9))
			So(a.Schedule, ShouldResemble, b.Schedule)
		})
	})

	Convey("Given the disjoint catalog", t, func() {
		res, err := search.Anneal(disjointCatalog(), model.Pins{}, search.DefaultAnnealParams(), search.WithSeed(1))

		Convey("Then a perfect start stops before any iteration", func() {
			So(err, ShouldBeNil)
			So(res.Cost, ShouldEqual, 0)
			So(res.Iterations, ShouldEqual, 0)
		})
	})

	Convey("Given the overlapping X/Y/Z catalog", t, func() {
		res, err := search.Anneal(overlapCatalog(), model.Pins{}, search.DefaultAnnealParams(), search.WithSeed(3))

		Convey("Then annealing reaches the known optimum", func() {
			So(err, ShouldBeNil)
			So(res.Cost, ShouldEqual, 1)
		})
	})

	Convey("Given fewer than two swappable positions", t, func() {
		Convey("When the catalog has one act", func() {
			cat := mustCatalog(model.Act{Name: "Solo", Performers: []string{"a"}})
			res, err := search.Anneal(cat, model.Pins{}, search.DefaultAnnealParams(), search.WithSeed(1))

			So(err, ShouldBeNil)
			So(res.Schedule, ShouldResemble, model.Schedule{"Solo"})
			So(res.Cost, ShouldEqual, 0)
			So(res.Iterations, ShouldEqual, 0)
		})

		Convey("When pins leave a single free act", func() {
			res, err := search.Anneal(overlapCatalog(), model.Pins{Start: "X", End: "Y"}, search.DefaultAnnealParams(), search.WithSeed(1))

			So(err, ShouldBeNil)
			So(res.Schedule, ShouldResemble, model.Schedule{"X", "Z", "Y"})
			So(res.Cost, ShouldEqual, 1)
			So(res.Iterations, ShouldEqual, 0)
		})

		Convey("When the catalog is empty", func() {
			res, err := search.Anneal(mustCatalog(), model.Pins{}, search.DefaultAnnealParams())

			So(err, ShouldBeNil)
			So(res.Schedule, ShouldBeEmpty)
			So(res.Cost, ShouldEqual, 0)
		})
	})

	Convey("Given unusable inputs", t, func() {
		cat := overlapCatalog()

		Convey("When the start pin is unknown", func() {
			_, err := search.Anneal(cat, model.Pins{Start: "ghost"}, search.DefaultAnnealParams())
			So(errors.Is(err, model.ErrInvalidConstraint), ShouldBeTrue)
		})

		Convey("When parameters are out of range", func() {
			bad := []search.AnnealParams{
				{MaxIterations: -1, InitialTemperature: 10, CoolingRate: 0.1},
				{MaxIterations: 10, InitialTemperature: math.Inf(1), CoolingRate: 0.1},
				{MaxIterations: 10, InitialTemperature: 10, CoolingRate: 1.5},
				{MaxIterations: 10, InitialTemperature: 10, CoolingRate: math.NaN()},
			}
			for _, p := range bad {
				_, err := search.Anneal(cat, model.Pins{}, p)
				So(errors.Is(err, search.ErrInvalidParams), ShouldBeTrue)
			}
		})

		Convey("When the temperature is zero", func() {
			res, err := search.Anneal(cat, model.Pins{}, search.AnnealParams{MaxIterations: 100, InitialTemperature: 0, CoolingRate: 0.1}, search.WithSeed(5))

			So(err, ShouldBeNil)
			So(res.Iterations, ShouldEqual, 0)
			So(res.Cost, ShouldEqual, res.InitialCost)
		})
	})
}
