package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/unowhq/forma/internal/adapters/http/api"
	app "github.com/unowhq/forma/internal/app"
	"github.com/unowhq/forma/internal/auth"
	"github.com/unowhq/forma/internal/config"
	"github.com/unowhq/forma/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			// Test with environment variables
			_ = os.Setenv("FORMA_ADDR", ":8080")
			_ = os.Setenv("FORMA_QUEUE_SIZE", "1000")
			_ = os.Setenv("FORMA_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("FORMA_ADDR")
				_ = os.Unsetenv("FORMA_QUEUE_SIZE")
				_ = os.Unsetenv("FORMA_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.AuditQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with config options", func() {
				svc := app.New(
					app.WithWorkerCount(2),
					app.WithQueueSize(100),
					app.WithPinTTL(time.Minute),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When wiring the full HTTP surface", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			issuer, err := auth.NewIssuer("main-test-secret")
			convey.So(err, convey.ShouldBeNil)

			svc := app.New(
				app.WithWorkerCount(1),
				app.WithIssuer(issuer),
			)
			defer svc.Stop()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)

			mux := http.NewServeMux()
			apiServer := api.NewServer(svc, svc, issuer)
			apiServer.Register(ctx, mux)

			convey.Convey("Then the health endpoint should answer", func() {
				req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("And the stats endpoint should answer", func() {
				req := httptest.NewRequest(http.MethodGet, "/stats", nil)
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, "started")
			})
		})

		convey.Convey("When updating system metrics", func() {
			convey.Convey("Then the updater should not panic", func() {
				convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
			})
		})
	})
}
