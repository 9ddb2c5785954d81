package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				m.rosterMembers.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_roster_members")
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithNamespace(""), WithHistogramBuckets(nil), WithConstLabels(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults apply", func() {
				So(m.namespace, ShouldEqual, "taskflow")
				So(m.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording an excluded candidate", func() {
			before := testutil.ToFloat64(globalManager.candidatesExcluded.WithLabelValues("capacity"))
			RecordCandidateExcluded("capacity")

			Convey("Then the labelled counter increases", func() {
				So(testutil.ToFloat64(globalManager.candidatesExcluded.WithLabelValues("capacity")), ShouldEqual, before+1)
			})
		})

		Convey("When updating item counts", func() {
			UpdateWorkItems(4, 2)

			Convey("Then both states are set", func() {
				So(testutil.ToFloat64(globalManager.workItems.WithLabelValues("assigned")), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.workItems.WithLabelValues("unassigned")), ShouldEqual, 2)
			})
		})

		Convey("When member utilization is reset", func() {
			UpdateMemberUtilization("user_001", 60)
			ResetMemberUtilization()

			Convey("Then no per-member series remain", func() {
				So(testutil.CollectAndCount(globalManager.memberUtilization), ShouldEqual, 0)
			})
		})

		Convey("When recording the remaining helpers", func() {
			So(func() {
				RecordRecommendation("item", 1.5)
				RecordCandidateEvaluated()
				RecordAssignmentApplied("auto")
				RecordAssignmentDuplicate()
				RecordAssignmentError("not_found")
				UpdateRosterMembers(3)
				RecordRosterReload("ok")
				UpdateTeamUtilization(22.8)
				RecordStoreQueryLatency(0.2)
				RecordStoreUpdateLatency(0.3)
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
				RecordHTTPRequest("/members", "GET", "200")
				RecordHTTPRequestDuration("/members", "GET", "200", 3)
				RecordErrorByComponent("store", "not_found")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.systemGoroutines), ShouldEqual, 12)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
