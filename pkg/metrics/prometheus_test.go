package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerRegistration(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(
			WithPrometheusRegistry(reg),
			WithNamespace("test"),
			WithSubsystem("explore"),
		)

		Convey("When recording across the metric families", func() {
			m.refreshProcessed.Inc()
			m.refreshFailed.Inc()
			m.candidatesWritten.Add(5)
			m.queueSize.Set(3)
			m.queueEnqueueErrors.WithLabelValues("capacity_exceeded").Inc()
			m.httpRequests.WithLabelValues("explore", "GET", "200").Inc()

			Convey("Then the values are gatherable", func() {
				So(testutil.ToFloat64(m.refreshProcessed), ShouldEqual, 1)
				So(testutil.ToFloat64(m.refreshFailed), ShouldEqual, 1)
				So(testutil.ToFloat64(m.candidatesWritten), ShouldEqual, 5)
				So(testutil.ToFloat64(m.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(m.queueEnqueueErrors.WithLabelValues("capacity_exceeded")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("explore", "GET", "200")), ShouldEqual, 1)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		before := testutil.ToFloat64(globalManager.feedRequests)

		Convey("When recording through the package helpers", func() {
			RecordFeedRequest()
			RecordFeedFallback()
			RecordAuthFailure()
			RecordRefreshLatency(12.5)
			RecordHTTPRequest("explore", "GET", "200")
			RecordHTTPRequestDuration("explore", "GET", "200", 4.2)
			UpdateQueueCapacity(100)
			UpdateQueueUtilization(0.25)
			UpdateWorkerCount(4)

			Convey("Then the counters advance", func() {
				So(testutil.ToFloat64(globalManager.feedRequests), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
			})
		})

		Convey("When gathering the registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then the den_explore families are present", func() {
				So(err, ShouldBeNil)
				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["den_explore_refresh_jobs_processed_total"], ShouldBeTrue)
				So(names["den_explore_queue_size"], ShouldBeTrue)
				So(names["den_explore_feed_requests_total"], ShouldBeTrue)
			})
		})
	})
}
