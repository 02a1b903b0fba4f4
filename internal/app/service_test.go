package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	workerpool "github.com/okian/lineup/internal/adapters/mq/worker"
	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/search"
	"github.com/okian/lineup/internal/domain/types"
	"github.com/okian/lineup/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func overlapActs() []model.Act {
	return []model.Act{
		{Name: "X", Performers: []string{"a", "b"}},
		{Name: "Y", Performers: []string{"b", "c"}},
		{Name: "Z", Performers: []string{"c", "d"}},
	}
}

func chainActs(n int) []model.Act {
	acts := make([]model.Act, n)
	for i := range acts {
		acts[i] = model.Act{
			Name:       string(rune('A' + i)),
			Performers: []string{string(rune('a' + i)), string(rune('a' + i + 1))},
		}
	}
	return acts
}

func waitForJob(ctx context.Context, svc *app.Service, id string) model.Job {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.Job(ctx, id)
		if err == nil && (job.Status == model.JobDone || job.Status == model.JobFailed) {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := svc.Job(ctx, id)
	return job
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := app.New()

		Convey("Then it should report its limits before starting", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["exhaustiveMaxFree"], ShouldEqual, app.DefaultExhaustiveMaxFree)
			So(stats["maxTies"], ShouldEqual, app.DefaultMaxTies)
			So(stats["warnThreshold"], ShouldEqual, search.DefaultWarnThreshold)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := app.New(
			app.WithWorkerCount(8),
			app.WithQueueSize(64),
			app.WithDedupeSize(25),
			app.WithExhaustiveLimit(7),
			app.WithWarnThreshold(500),
			app.WithMaxTies(0),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 64)
			So(stats["dedupeSize"], ShouldEqual, 25)
			So(stats["exhaustiveMaxFree"], ShouldEqual, 7)
			So(stats["warnThreshold"], ShouldEqual, uint64(500))
			So(stats["maxTies"], ShouldEqual, 0)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := app.New(app.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When submitting before start", func() {
			_, err := svc.Submit(ctx, model.JobRequest{Acts: overlapActs()})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, types.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting and stopping the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)

			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_SubmitValidation(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := app.New(
			app.WithWorkerCount(1),
			app.WithWarnThreshold(100),
			app.WithExhaustiveLimit(6),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the strategy is unknown", func() {
			_, err := svc.Submit(ctx, model.JobRequest{Strategy: "greedy", Acts: overlapActs()})
			So(errors.Is(err, types.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When two acts share a name", func() {
			acts := append(overlapActs(), model.Act{Name: "X"})
			_, err := svc.Submit(ctx, model.JobRequest{Acts: acts})
			So(errors.Is(err, types.ErrInvalidRequest), ShouldBeTrue)
			So(errors.Is(err, model.ErrDuplicateAct), ShouldBeTrue)
		})

		Convey("When a pin names an unknown act", func() {
			_, err := svc.Submit(ctx, model.JobRequest{Acts: overlapActs(), Pins: model.Pins{Start: "Q"}})
			So(errors.Is(err, model.ErrInvalidConstraint), ShouldBeTrue)
		})

		Convey("When both pins name the same act", func() {
			_, err := svc.Submit(ctx, model.JobRequest{Acts: overlapActs(), Pins: model.Pins{Start: "X", End: "X"}})
			So(errors.Is(err, model.ErrInvalidConstraint), ShouldBeTrue)
		})

		Convey("When annealing parameters are invalid", func() {
			_, err := svc.Submit(ctx, model.JobRequest{
				Strategy: model.StrategyAnneal,
				Acts:     overlapActs(),
				Anneal:   model.AnnealSettings{CoolingRate: 2},
			})
			So(errors.Is(err, types.ErrInvalidRequest), ShouldBeTrue)
			So(errors.Is(err, search.ErrInvalidParams), ShouldBeTrue)
		})

		Convey("When the exhaustive search has too many free positions", func() {
			_, err := svc.Submit(ctx, model.JobRequest{Acts: chainActs(7)})
			So(errors.Is(err, types.ErrTooLarge), ShouldBeTrue)

			Convey("Then pinning an act brings it under the limit", func() {
				_, err := svc.Submit(ctx, model.JobRequest{
					Acts:         chainActs(7),
					Pins:         model.Pins{Start: "A"},
					ConfirmLarge: true,
				})
				So(err, ShouldBeNil)
			})
		})

		Convey("When the permutation count exceeds the warning threshold", func() {
			_, err := svc.Submit(ctx, model.JobRequest{Acts: chainActs(5)})

			Convey("Then confirmation is required", func() {
				So(errors.Is(err, types.ErrConfirmationRequired), ShouldBeTrue)
				var ce *types.ConfirmationError
				So(errors.As(err, &ce), ShouldBeTrue)
				So(ce.Permutations, ShouldEqual, uint64(120))
				So(ce.Threshold, ShouldEqual, uint64(100))
			})

			Convey("Then confirm_large lets it run", func() {
				res, err := svc.Submit(ctx, model.JobRequest{Acts: chainActs(5), ConfirmLarge: true})
				So(err, ShouldBeNil)
				job := waitForJob(ctx, svc, res.JobID)
				So(job.Status, ShouldEqual, model.JobDone)
				So(job.Result.Examined, ShouldEqual, uint64(120))
			})
		})
	})
}

func TestService_SubmitAndSolve(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := app.New(app.WithWorkerCount(2), app.WithProgressEvery(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When submitting an exhaustive request", func() {
			res, err := svc.Submit(ctx, model.JobRequest{Acts: overlapActs()})
			So(err, ShouldBeNil)
			So(res.Status, ShouldEqual, model.JobQueued)
			So(res.Duplicate, ShouldBeFalse)

			job := waitForJob(ctx, svc, res.JobID)

			Convey("Then every optimal order is returned with its explanation", func() {
				So(job.Status, ShouldEqual, model.JobDone)
				So(job.Result.MinCost, ShouldEqual, 0)
				So(job.Result.Examined, ShouldEqual, uint64(6))
				So(len(job.Result.Results), ShouldEqual, 4)
				for _, r := range job.Result.Results {
					So(r.Cost, ShouldEqual, 0)
					So(r.Collisions, ShouldBeEmpty)
				}
			})

			Convey("Then submitting it again returns the same job", func() {
				dup, err := svc.Submit(ctx, model.JobRequest{Acts: overlapActs(), ConfirmLarge: true})
				So(err, ShouldBeNil)
				So(dup.Duplicate, ShouldBeTrue)
				So(dup.JobID, ShouldEqual, res.JobID)
				So(dup.Status, ShouldEqual, model.JobDone)
			})
		})

		Convey("When submitting with both pins", func() {
			res, err := svc.Submit(ctx, model.JobRequest{
				Strategy: model.StrategyExhaustive,
				Acts:     overlapActs(),
				Pins:     model.Pins{Start: "X", End: "Z"},
			})
			So(err, ShouldBeNil)
			job := waitForJob(ctx, svc, res.JobID)

			Convey("Then the only order is forced and its collisions explained", func() {
				So(job.Status, ShouldEqual, model.JobDone)
				So(job.Result.MinCost, ShouldEqual, 2)
				So(job.Result.Results, ShouldHaveLength, 1)
				So(job.Result.Results[0].Schedule, ShouldResemble, model.Schedule{"X", "Y", "Z"})
				So(job.Result.Results[0].Collisions, ShouldHaveLength, 2)
			})
		})

		Convey("When submitting a seeded anneal request", func() {
			seed := int64(7)
			req := model.JobRequest{
				Strategy: model.StrategyAnneal,
				Acts:     chainActs(6),
				Pins:     model.Pins{End: "F"},
				Anneal:   model.AnnealSettings{MaxIterations: 500, Seed: &seed},
			}
			res, err := svc.Submit(ctx, req)
			So(err, ShouldBeNil)
			job := waitForJob(ctx, svc, res.JobID)

			Convey("Then one schedule honouring the pin is returned", func() {
				So(job.Status, ShouldEqual, model.JobDone)
				So(job.Result.Results, ShouldHaveLength, 1)
				r := job.Result.Results[0]
				So(r.Schedule[len(r.Schedule)-1], ShouldEqual, "F")
				So(r.Cost, ShouldEqual, job.Result.MinCost)
				So(job.Result.Iterations, ShouldBeLessThanOrEqualTo, 500)
			})

			Convey("Then a request id distinguishes otherwise equal requests", func() {
				req.RequestID = "retry-1"
				again, err := svc.Submit(ctx, req)
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeFalse)
				So(again.JobID, ShouldNotEqual, res.JobID)
			})
		})

		Convey("When asking for an unknown job", func() {
			_, err := svc.Job(ctx, "missing")
			So(errors.Is(err, types.ErrJobNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a service whose workers are gone", t, func() {
		svc := app.New(app.WithWorkerCount(1), app.WithQueueSize(1))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		// Let the cancelled workers exit before anything is queued.
		time.Sleep(50 * time.Millisecond)

		bg := context.Background()
		first, err := svc.Submit(bg, model.JobRequest{Acts: overlapActs()})
		So(err, ShouldBeNil)

		Convey("When the queue is full", func() {
			_, err := svc.Submit(bg, model.JobRequest{Acts: chainActs(3)})

			Convey("Then the request is refused and forgotten", func() {
				So(errors.Is(err, types.ErrBackpressure), ShouldBeTrue)
				So(svc.GetStats()["storedJobs"], ShouldEqual, 1)

				again, err := svc.Submit(bg, model.JobRequest{Acts: chainActs(3)})
				So(errors.Is(err, types.ErrBackpressure), ShouldBeTrue)
				So(again.Duplicate, ShouldBeFalse)
			})

			Convey("Then the queued job is still pending", func() {
				job, err := svc.Job(bg, first.JobID)
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, model.JobQueued)
			})
		})
	})
}

func TestService_StopFailsPendingJobs(t *testing.T) {
	Convey("Given a service with a queued job and no live workers", t, func() {
		bg := context.Background()
		store := repository.NewMemoryStore(bg)
		defer store.Close()

		svc := app.New(app.WithWorkerCount(1), app.WithStore(store))
		ctx, cancel := context.WithCancel(bg)
		cancel()
		So(svc.Start(ctx), ShouldBeNil)
		time.Sleep(50 * time.Millisecond)

		res, err := svc.Submit(bg, model.JobRequest{Acts: overlapActs()})
		So(err, ShouldBeNil)

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then the job is failed instead of left queued", func() {
				job, err := store.Get(bg, res.JobID)
				So(err, ShouldBeNil)
				So(job.Status, ShouldEqual, model.JobFailed)
				So(job.Error, ShouldEqual, workerpool.ErrStopped.Error())
			})
		})
	})
}

func TestService_Evaluate(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := app.New()
		ctx := context.Background()

		Convey("When evaluating a colliding order", func() {
			ev, err := svc.Evaluate(ctx, overlapActs(), model.Schedule{"X", "Y", "Z"})

			Convey("Then cost matches the collision list", func() {
				So(err, ShouldBeNil)
				So(ev.Cost, ShouldEqual, 2)
				So(ev.Collisions, ShouldHaveLength, 2)
				So(ev.Collisions[0].Performer, ShouldEqual, "b")
			})
		})

		Convey("When evaluating a clean order", func() {
			ev, err := svc.Evaluate(ctx, overlapActs(), model.Schedule{"X", "Z", "Y"})
			So(err, ShouldBeNil)
			So(ev.Cost, ShouldEqual, 0)
			So(ev.Collisions, ShouldNotBeNil)
		})

		Convey("When the order names an unknown act", func() {
			_, err := svc.Evaluate(ctx, overlapActs(), model.Schedule{"X", "Q"})
			So(errors.Is(err, types.ErrInvalidRequest), ShouldBeTrue)
			So(errors.Is(err, model.ErrUnknownAct), ShouldBeTrue)
		})
	})
}

func TestService_Solve(t *testing.T) {
	Convey("Given a service used directly as a solver", t, func() {
		svc := app.New(app.WithMaxTies(1))
		ctx := context.Background()

		Convey("When solving an exhaustive job with a tie cap", func() {
			res, err := svc.Solve(ctx, model.Job{ID: "j", Request: model.JobRequest{
				Strategy: model.StrategyExhaustive,
				Acts:     overlapActs(),
			}})

			Convey("Then ties beyond the cap are counted, not kept", func() {
				So(err, ShouldBeNil)
				So(res.Results, ShouldHaveLength, 1)
				So(res.TiesTruncated, ShouldEqual, uint64(3))
			})
		})

		Convey("When solving a job with a broken catalog", func() {
			_, err := svc.Solve(ctx, model.Job{ID: "j", Request: model.JobRequest{
				Strategy: model.StrategyExhaustive,
				Acts:     []model.Act{{Name: ""}},
			}})
			So(errors.Is(err, model.ErrEmptyActName), ShouldBeTrue)
		})

		Convey("When solving an unknown strategy", func() {
			_, err := svc.Solve(ctx, model.Job{ID: "j", Request: model.JobRequest{Strategy: "greedy"}})
			So(err, ShouldNotBeNil)
		})
	})
}
