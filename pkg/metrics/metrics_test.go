package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When options carry zero values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept and creation succeeds", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the package-level recorders", t, func() {
		Convey("When recording aggregation metrics", func() {
			So(func() {
				RecordStatsComputed("trainer")
				RecordStatsComputed("admin")
				RecordStatsComputeLatency("trainer", 12.0)
			}, ShouldNotPanic)
		})

		Convey("When recording domain activity", func() {
			So(func() {
				RecordFeedbackSubmitted()
				RecordValidationSubmitted()
				RecordAttendanceValidated()
				RecordHistoryRecorded()
			}, ShouldNotPanic)
		})

		Convey("When recording auth metrics", func() {
			So(func() {
				RecordLogin()
				RecordPinIssued()
				RecordPinVerified()
				RecordPinRejected()
				RecordTokenRefreshed()
				UpdatePendingPins(3)
			}, ShouldNotPanic)
		})

		Convey("When updating store gauges", func() {
			So(func() {
				UpdateStoreRecords("users", 10)
				UpdateStoreRecords("feedback", 0)
				UpdateStoreRecords("history", 10000)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/api/stats/admin", "GET", "200", 15.0)
			}, ShouldNotPanic)
		})

		Convey("When recording queue and worker metrics", func() {
			So(func() {
				UpdateQueueSize(100)
				UpdateQueueCapacity(10000)
				UpdateQueueUtilization(0.01)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(1.0)
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(4)
				UpdateWorkerIdleCount(0)
				UpdateWorkerMessagesPerSecond(50.0)
				RecordWorkerProcessingLatency(2.0)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording error metrics", func() {
			So(func() {
				RecordErrorByComponent("store", "not_found")
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("/api/feedback/submit", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 3.0)
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(42)
				RecordSystemGCPauseTime(1.5)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		done := make(chan bool, 8)
		for i := 0; i < 8; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordStatsComputed("learner")
					UpdateQueueSize(j)
					RecordHTTPRequest("/api/stats/learner", "GET", "200")
				}
				done <- true
			}()
		}
		for i := 0; i < 8; i++ {
			<-done
		}

		Convey("Then concurrent access does not panic", func() {
			So(true, ShouldBeTrue)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		Convey("Then it is non-nil and gatherable", func() {
			reg := GetRegistry()
			So(reg, ShouldNotBeNil)
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			So(families, ShouldNotBeNil)
		})
	})
}
