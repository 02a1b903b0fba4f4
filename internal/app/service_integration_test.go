package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/domain/collision"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
)

// troupe builds n acts whose performers come from a small pool.
// Different variants never produce equal catalogs.
func troupe(n, variant int) []model.Act {
	pool := []string{"ana", "ben", "cleo", "dev", "eli", "fay"}
	acts := make([]model.Act, n)
	for i := range acts {
		acts[i] = model.Act{
			Name: fmt.Sprintf("act-%02d", i),
			Performers: []string{
				pool[(i+variant)%len(pool)],
				pool[(i*2+variant+1)%len(pool)],
			},
		}
	}
	acts[0].Performers = append(acts[0].Performers, fmt.Sprintf("guest-%d", variant))
	return acts
}

func checkJob(job model.Job, req model.JobRequest) {
	cat, err := model.NewCatalog(req.Acts...)
	So(err, ShouldBeNil)
	So(job.Status, ShouldEqual, model.JobDone)
	So(job.Result, ShouldNotBeNil)
	So(job.Result.Results, ShouldNotBeEmpty)
	for _, r := range job.Result.Results {
		So(model.ValidatePermutation(cat, r.Schedule), ShouldBeNil)
		So(req.Pins.Satisfied(r.Schedule), ShouldBeTrue)
		cost, err := collision.Evaluate(cat, r.Schedule)
		So(err, ShouldBeNil)
		So(cost, ShouldEqual, r.Cost)
		So(r.Cost, ShouldEqual, job.Result.MinCost)
		So(r.Collisions, ShouldHaveLength, r.Cost)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with several workers", t, func() {
		svc := app.New(
			app.WithWorkerCount(4),
			app.WithQueueSize(256),
			app.WithDedupeSize(500),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When many goroutines submit distinct requests", func() {
			const clients = 24
			type submitted struct {
				id  string
				req model.JobRequest
			}
			var (
				mu   sync.Mutex
				jobs []submitted
				errs []error
				wg   sync.WaitGroup
			)
			for i := 0; i < clients; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					seed := int64(i)
					req := model.JobRequest{Acts: troupe(5+i%3, i), Pins: model.Pins{Start: "act-00"}}
					if i%2 == 1 {
						req.Strategy = model.StrategyAnneal
						req.Pins = model.Pins{End: "act-01"}
						req.Anneal = model.AnnealSettings{MaxIterations: 300, Seed: &seed}
					}
					res, err := svc.Submit(ctx, req)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						errs = append(errs, err)
						return
					}
					jobs = append(jobs, submitted{id: res.JobID, req: req})
				}(i)
			}
			wg.Wait()

			Convey("Then every job finishes with truthful results", func() {
				So(errs, ShouldBeEmpty)
				So(jobs, ShouldHaveLength, clients)
				for _, s := range jobs {
					checkJob(waitForJob(ctx, svc, s.id), s.req)
				}
				So(svc.GetStats()["storedJobs"], ShouldEqual, clients)
			})
		})

		Convey("When the same request races with itself", func() {
			const racers = 16
			req := model.JobRequest{Acts: troupe(6, 3)}
			ids := make(chan string, racers)
			var wg sync.WaitGroup
			for i := 0; i < racers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res, err := svc.Submit(ctx, req)
					if err == nil {
						ids <- res.JobID
					}
				}()
			}
			wg.Wait()
			close(ids)

			Convey("Then exactly one job is created", func() {
				unique := map[string]struct{}{}
				for id := range ids {
					unique[id] = struct{}{}
				}
				So(unique, ShouldHaveLength, 1)
				So(svc.GetStats()["storedJobs"], ShouldEqual, 1)
			})
		})
	})

	Convey("Given a service restarted several times", t, func() {
		svc := app.New(app.WithWorkerCount(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		for i := 0; i < 3; i++ {
			So(svc.Start(ctx), ShouldBeNil)
			res, err := svc.Submit(ctx, model.JobRequest{Acts: troupe(4, i)})
			So(err, ShouldBeNil)
			So(waitForJob(ctx, svc, res.JobID).Status, ShouldEqual, model.JobDone)
			svc.Stop()
		}
		So(svc.GetStats()["started"], ShouldEqual, false)
	})
}

func TestServiceWithRedisStore(t *testing.T) {
	Convey("Given a service backed by redis", t, func() {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		store := repository.NewRedisStoreFromClient(rdb, repository.WithKeyPrefix("it"))
		defer store.Close()

		svc := app.New(app.WithWorkerCount(2), app.WithStore(store))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a job is submitted", func() {
			req := model.JobRequest{Acts: troupe(5, 1), Pins: model.Pins{Start: "act-02", End: "act-04"}}
			res, err := svc.Submit(ctx, req)
			So(err, ShouldBeNil)

			Convey("Then its result is persisted in redis", func() {
				job := waitForJob(ctx, svc, res.JobID)
				checkJob(job, req)
				So(mr.Exists("it:job:"+res.JobID), ShouldBeTrue)
				So(job.Result.Examined, ShouldEqual, uint64(6))
			})
		})
	})
}

func TestServiceRestartWithCallerStore(t *testing.T) {
	Convey("Given a service using a redis store it did not open", t, func() {
		mr := miniredis.RunT(t)
		store := repository.NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		defer store.Close()

		svc := app.New(app.WithWorkerCount(1), app.WithStore(store))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		So(svc.Start(ctx), ShouldBeNil)
		first := model.JobRequest{Acts: troupe(4, 1)}
		res, err := svc.Submit(ctx, first)
		So(err, ShouldBeNil)
		checkJob(waitForJob(ctx, svc, res.JobID), first)
		svc.Stop()

		Convey("When the service is stopped", func() {
			Convey("Then the store is left open", func() {
				So(store.Ping(ctx), ShouldBeNil)
			})
		})

		Convey("When the service is started again", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			second := model.JobRequest{Acts: troupe(4, 2)}
			again, err := svc.Submit(ctx, second)
			So(err, ShouldBeNil)

			Convey("Then new jobs run and old ones are still readable", func() {
				checkJob(waitForJob(ctx, svc, again.JobID), second)
				old, err := svc.Job(ctx, res.JobID)
				So(err, ShouldBeNil)
				So(old.Status, ShouldEqual, model.JobDone)
			})
		})
	})
}
