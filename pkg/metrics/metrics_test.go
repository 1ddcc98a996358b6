package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register without conflicts", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "labeleval")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordComparison()

			Convey("Then metric names should use them", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_ns_test_sub_comparisons_total")
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording evaluations", func() {
			manager.RecordEvaluation("union", OutcomeOK, 1.5)
			manager.RecordEvaluation("union", OutcomeOK, 2.5)
			manager.RecordEvaluation("predicted", OutcomeEmpty, 0.1)
			manager.RecordItems(10, 2, 1)
			manager.RecordParseError("actual")
			manager.UpdateLastScores(0.75, 0.5)

			Convey("Then counters and gauges should reflect them", func() {
				So(testutil.ToFloat64(manager.evaluationsTotal.WithLabelValues("union", OutcomeOK)), ShouldEqual, 2.0)
				So(testutil.ToFloat64(manager.evaluationsTotal.WithLabelValues("predicted", OutcomeEmpty)), ShouldEqual, 1.0)
				So(testutil.ToFloat64(manager.itemsEvaluated), ShouldEqual, 10.0)
				So(testutil.ToFloat64(manager.itemsExcluded), ShouldEqual, 2.0)
				So(testutil.ToFloat64(manager.keysMerged), ShouldEqual, 1.0)
				So(testutil.ToFloat64(manager.parseErrors.WithLabelValues("actual")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(manager.lastPrecision), ShouldEqual, 0.75)
				So(testutil.ToFloat64(manager.lastRecall), ShouldEqual, 0.5)
			})
		})

		Convey("When recording HTTP traffic", func() {
			manager.RecordHTTPRequest("evaluations", "POST", "201", 3)
			manager.RecordHTTPError("evaluations", "POST", "client_error", "medium")

			Convey("Then the labelled series should be incremented", func() {
				So(testutil.ToFloat64(manager.httpRequests.WithLabelValues("evaluations", "POST", "201")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(manager.errorRateByType.WithLabelValues("client_error", "medium")), ShouldEqual, 1.0)
			})
		})

		Convey("When recording store and system values", func() {
			manager.UpdateReportsStored(7)
			manager.RecordReportEvicted()
			manager.UpdateSystem(1024, 12)

			Convey("Then gauges should hold the last value", func() {
				So(testutil.ToFloat64(manager.reportsStored), ShouldEqual, 7.0)
				So(testutil.ToFloat64(manager.reportsEvicted), ShouldEqual, 1.0)
				So(testutil.ToFloat64(manager.systemMemoryUsage), ShouldEqual, 1024.0)
				So(testutil.ToFloat64(manager.systemGoroutineCount), ShouldEqual, 12.0)
			})
		})
	})
}

func TestManagerDisabled(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
		manager.RecordItems(5, 5, 5)
		manager.UpdateLastScores(1, 1)

		Convey("Then nothing should be recorded", func() {
			So(testutil.ToFloat64(manager.itemsEvaluated), ShouldEqual, 0.0)
			So(testutil.ToFloat64(manager.lastPrecision), ShouldEqual, 0.0)
		})
	})
}

func TestGlobalRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then package-level helpers should not panic", func() {
			So(func() {
				RecordEvaluation("union", OutcomeOK, 1)
				RecordItems(1, 0, 0)
				RecordParseError("predicted")
				UpdateLastScores(1, 1)
				RecordComparison()
				UpdateReportsStored(1)
				RecordReportEvicted()
				RecordHTTPRequest("healthz", "GET", "200", 0.2)
				RecordHTTPError("healthz", "GET", "server_error", "high")
				UpdateSystem(1, 1)
			}, ShouldNotPanic)
		})

		Convey("And the custom registry should expose them", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a reconfigured global manager", t, func() {
		before := GetRegistry()
		manager := Configure(
			WithNamespace("cfg"),
			WithConstLabels(map[string]string{"instance": "a"}),
		)
		Reset(func() { Configure() })

		RecordComparison()

		Convey("Then recordings should land on a fresh registry", func() {
			So(GetRegistry(), ShouldNotPointTo, before)
			So(testutil.ToFloat64(manager.comparisonsTotal), ShouldEqual, 1.0)

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			var found bool
			for _, f := range families {
				if f.GetName() == "cfg_evaluator_comparisons_total" {
					found = true
					So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "a")
				}
			}
			So(found, ShouldBeTrue)
		})

		Convey("When metrics are disabled", func() {
			disabled := Configure(WithMetricsEnabled(false))
			RecordComparison()

			Convey("Then nothing should be recorded", func() {
				So(testutil.ToFloat64(disabled.comparisonsTotal), ShouldEqual, 0.0)
			})
		})
	})
}
