package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/unowhq/forma/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.AuditQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.HistoryCapacity, convey.ShouldEqual, 10_000)
			convey.So(cfg.AccessTTLMinutes, convey.ShouldEqual, 60)
			convey.So(cfg.RefreshTTLHours, convey.ShouldEqual, 168)
			convey.So(cfg.PinTTLMinutes, convey.ShouldEqual, 10)
			convey.So(cfg.FeedbackScale, convey.ShouldEqual, 1.0)
			convey.So(cfg.CountPendingAttendance, convey.ShouldBeTrue)
		})

		convey.Convey("Then default weight schemes should be convex", func() {
			sum := func(m map[string]float64) float64 {
				total := 0.0
				for _, w := range m {
					total += w
				}
				return total
			}
			convey.So(sum(cfg.AdminWeights), convey.ShouldAlmostEqual, 1.0)
			convey.So(sum(cfg.ParticipantWeights), convey.ShouldAlmostEqual, 1.0)
		})
	})
}
