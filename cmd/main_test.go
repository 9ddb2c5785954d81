package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/taskflow/internal/app"
	"github.com/okian/taskflow/internal/config"
	"github.com/okian/taskflow/pkg/logger"
	"github.com/okian/taskflow/pkg/metrics"
)

const testRoster = "../internal/adapters/repository/testdata/roster.yaml"

func setenv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			setenv(t, map[string]string{
				"TASKFLOW_ADDR":         ":8080",
				"TASKFLOW_QUEUE_SIZE":   "1000",
				"TASKFLOW_WORKER_COUNT": "4",
			})

			convey.Convey("Then the values are applied", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the address is empty", func() {
			setenv(t, map[string]string{"TASKFLOW_ADDR": ""})

			convey.Convey("Then loading fails", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When building a service with hostile options", func() {
			svc := app.New(
				app.WithWorkerCount(0),
				app.WithQueueSize(0),
				app.WithDedupeSize(0),
			)

			convey.Convey("Then a service is still returned", func() {
				convey.So(svc, convey.ShouldNotBeNil)
				convey.So(svc.GetStats()["started"], convey.ShouldBeFalse)
			})
		})
	})
}

func TestHTTPServer(t *testing.T) {
	convey.Convey("Given a started service behind the HTTP server", t, func() {
		_ = logger.InitWithOptions(logger.WithWriter(io.Discard))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := config.New(ctx)
		cfg.RosterFile = testRoster
		cfg.WorkerCount = 2
		cfg.SnapshotSchedule = ""

		svc := app.New(append(app.ConfigOptions(cfg), app.WithVersion("test"))...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := newHTTPServer(ctx, cfg, svc)

		convey.Convey("Then the timeouts are applied", func() {
			convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)
			convey.So(srv.ReadTimeout, convey.ShouldEqual, readTimeout)
			convey.So(srv.WriteTimeout, convey.ShouldEqual, writeTimeout)
			convey.So(srv.IdleTimeout, convey.ShouldEqual, idleTimeout)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
		})

		convey.Convey("Then the handler serves the API", func() {
			for _, path := range []string{"/healthz", "/stats", "/api/info", "/capacity", "/items/TASK-101/recommendations"} {
				rec := httptest.NewRecorder()
				srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metric updaters", t, func() {
		convey.Convey("When the system updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When the service updater runs against a stopped service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, app.New()) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating system metrics once", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("When creating a manager on a private registry", func() {
			start := time.Now()
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))

			convey.So(manager, convey.ShouldNotBeNil)
			convey.So(time.Since(start), convey.ShouldBeLessThan, 100*time.Millisecond)
		})
	})
}

func TestRunShutdown(t *testing.T) {
	convey.Convey("Given run with a cancelled context", t, func() {
		_ = logger.InitWithOptions(logger.WithWriter(io.Discard))
		cfg := config.New(context.Background())
		cfg.Addr = "127.0.0.1:0"
		cfg.RosterFile = testRoster
		cfg.SnapshotSchedule = ""

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		convey.Convey("Then it shuts down cleanly", func() {
			convey.So(run(ctx, cfg, logger.Get()), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given run with a missing roster", t, func() {
		cfg := config.New(context.Background())
		cfg.RosterFile = os.DevNull + ".yaml"

		convey.Convey("Then start fails", func() {
			convey.So(run(context.Background(), cfg, logger.Get()), convey.ShouldNotBeNil)
		})
	})
}
