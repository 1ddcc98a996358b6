package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/okian/labeleval/internal/adapters/export"
	"github.com/okian/labeleval/internal/adapters/input"
	service "github.com/okian/labeleval/internal/app"
	"github.com/okian/labeleval/internal/domain/model"
	"github.com/okian/labeleval/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func doc(name, data string) model.Document {
	return model.Document{Name: name, Data: []byte(data)}
}

func startedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithReportHistory(5), service.WithWorkerCount(2))
		ctx := context.Background()

		Convey("When it is used before Start", func() {
			_, err := svc.Evaluate(ctx, model.Request{})

			Convey("Then it should report that it is not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})

		Convey("When it is started twice and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			stats := svc.GetStats()
			svc.Stop()
			svc.Stop()

			Convey("Then stats should reflect the configuration", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["reportHistory"], ShouldEqual, 5)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["reportsStored"], ShouldEqual, 0)
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})
	})
}

func TestService_Evaluate(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		Convey("When evaluating the basic scenario", func() {
			report, err := svc.Evaluate(ctx, model.Request{
				Actual:    doc("", `{"a.mp3":["X","Y"]}`),
				Predicted: doc("", `{"a.mp3":["X","Z"]}`),
			})

			Convey("Then it should score and store the report", func() {
				So(err, ShouldBeNil)
				So(report.ID, ShouldNotBeEmpty)
				So(report.Warning, ShouldBeEmpty)
				So(report.ActualSource, ShouldEqual, service.SourceActual)
				So(report.PredictedSource, ShouldEqual, service.SourcePredicted)
				So(report.Summary.GlobalPrecision, ShouldEqual, 0.5)
				So(report.Summary.GlobalRecall, ShouldEqual, 0.5)

				stored, err := svc.Report(ctx, report.ID)
				So(err, ShouldBeNil)
				So(stored.ID, ShouldEqual, report.ID)
				So(svc.GetStats()["evaluations"], ShouldEqual, int64(1))
			})
		})

		Convey("When the request overrides the scope", func() {
			scope := model.ScopePredicted
			report, err := svc.Evaluate(ctx, model.Request{
				Actual:    doc("truth.json", `{"a.mp3":["X"],"b.mp3":["Y"]}`),
				Predicted: doc("run.json", `{"a.mp3":["X"]}`),
				Options:   model.Overrides{Scope: &scope},
			})

			Convey("Then unmatched ground truth should be excluded", func() {
				So(err, ShouldBeNil)
				So(report.ActualSource, ShouldEqual, "truth.json")
				So(report.PredictedSource, ShouldEqual, "run.json")
				So(report.Summary.Scope, ShouldEqual, model.ScopePredicted)
				So(report.Summary.Excluded, ShouldResemble, []string{"b.mp3"})
				So(report.Summary.GlobalPrecision, ShouldEqual, 1.0)
				So(report.Summary.GlobalRecall, ShouldEqual, 1.0)
			})
		})

		Convey("When normalization is turned off per request", func() {
			off := false
			report, err := svc.Evaluate(ctx, model.Request{
				Actual:    doc("", `{"a":["Rock"]}`),
				Predicted: doc("", `{"a":["rock"]}`),
				Options:   model.Overrides{Normalize: &off},
			})

			Convey("Then labels should be compared verbatim", func() {
				So(err, ShouldBeNil)
				So(report.Summary.Normalized, ShouldBeFalse)
				So(report.Summary.Items[0].Matched, ShouldEqual, 0)
			})
		})

		Convey("When nothing can be evaluated", func() {
			report, err := svc.Evaluate(ctx, model.Request{
				Actual:    doc("", `{}`),
				Predicted: doc("", `{}`),
			})

			Convey("Then it should succeed with an advisory warning", func() {
				So(err, ShouldBeNil)
				So(report.Summary.HasAggregates(), ShouldBeFalse)
				So(report.Warning, ShouldEqual, service.ErrEmptyEvaluation.Error())
			})
		})

		Convey("When the predicted document is invalid", func() {
			_, err := svc.Evaluate(ctx, model.Request{
				Actual:    doc("", `{"a":["X"]}`),
				Predicted: doc("", `{"a":"X"}`),
			})

			Convey("Then the parse error should name the predicted source", func() {
				var pe *input.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Source, ShouldEqual, service.SourcePredicted)
				So(pe.Key, ShouldEqual, "a")
				So(errors.Is(err, input.ErrInputParse), ShouldBeTrue)
			})
		})

		Convey("When the actual document is invalid", func() {
			_, err := svc.Evaluate(ctx, model.Request{
				Actual:    doc("truth.json", `[1,2]`),
				Predicted: doc("", `{}`),
			})

			Convey("Then the parse error should carry the file name", func() {
				var pe *input.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Source, ShouldEqual, "truth.json")
			})
		})
	})
}

func TestService_Reports(t *testing.T) {
	Convey("Given a service that keeps two reports", t, func() {
		svc := startedService(t, service.WithReportHistory(2))
		ctx := context.Background()

		ids := make([]string, 0, 3)
		for i := 0; i < 3; i++ {
			r, err := svc.Evaluate(ctx, model.Request{
				Actual:    doc("", `{"a":["X"]}`),
				Predicted: doc(fmt.Sprintf("run-%d", i), `{"a":["X"]}`),
			})
			So(err, ShouldBeNil)
			ids = append(ids, r.ID)
		}

		Convey("Then the oldest report should be evicted", func() {
			_, err := svc.Report(ctx, ids[0])
			So(errors.Is(err, service.ErrReportNotFound), ShouldBeTrue)

			recent, err := svc.Recent(ctx, 10)
			So(err, ShouldBeNil)
			So(len(recent), ShouldEqual, 2)
			So(recent[0].ID, ShouldEqual, ids[2])
			So(recent[1].ID, ShouldEqual, ids[1])
		})

		Convey("When exporting a stored report", func() {
			var buf bytes.Buffer
			err := svc.ExportCSV(ctx, ids[2], &buf)

			Convey("Then the CSV should hold a header and one row", func() {
				So(err, ShouldBeNil)
				rows, err := export.ReadCSV(&buf, svc.CSVOptions()...)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 1)
				So(rows[0].Key, ShouldEqual, "a")
				So(rows[0].Precision, ShouldEqual, 1.0)
			})
		})

		Convey("When exporting an unknown report", func() {
			err := svc.ExportCSV(ctx, "missing", &bytes.Buffer{})

			Convey("Then it should be not found", func() {
				So(errors.Is(err, service.ErrReportNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_CSVFormat(t *testing.T) {
	Convey("Given a service with a custom CSV format", t, func() {
		svc := startedService(t, service.WithCSVFormat(';', "|"))
		ctx := context.Background()

		r, err := svc.Evaluate(ctx, model.Request{
			Actual:    doc("", `{"a":["X","Y"]}`),
			Predicted: doc("", `{"a":["X"]}`),
		})
		So(err, ShouldBeNil)

		var buf bytes.Buffer
		So(svc.ExportCSV(ctx, r.ID, &buf), ShouldBeNil)

		Convey("Then the output should use them", func() {
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines[0], ShouldStartWith, "Filename;Actual Labels;")
			So(lines[1], ShouldStartWith, "a;x|y;x;")
		})
	})
}

func TestService_Compare(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t, service.WithWorkerCount(2))
		ctx := context.Background()
		actual := doc("truth.json", `{"a":["X","Y"],"b":["Z"]}`)

		Convey("When comparing several runs", func() {
			reports, err := svc.Compare(ctx, model.CompareRequest{
				Actual: actual,
				Runs: []model.Document{
					doc("run-c.json", `{"a":["X"]}`),
					doc("run-a.json", `{"a":["X","Y"],"b":["Z"]}`),
					doc("run-b.json", `{}`),
				},
			})

			Convey("Then reports should come back ordered by run name", func() {
				So(err, ShouldBeNil)
				So(len(reports), ShouldEqual, 3)
				So(reports[0].PredictedSource, ShouldEqual, "run-a.json")
				So(reports[1].PredictedSource, ShouldEqual, "run-b.json")
				So(reports[2].PredictedSource, ShouldEqual, "run-c.json")
				So(reports[0].Summary.GlobalPrecision, ShouldEqual, 1.0)
				So(reports[1].Summary.GlobalRecall, ShouldEqual, 0.0)
				for _, r := range reports {
					So(r.ActualSource, ShouldEqual, "truth.json")
				}
			})
		})

		Convey("When a run is invalid", func() {
			_, err := svc.Compare(ctx, model.CompareRequest{
				Actual: actual,
				Runs: []model.Document{
					doc("good.json", `{"a":["X"]}`),
					doc("bad.json", `{"a":[1]}`),
				},
			})

			Convey("Then the comparison should fail with its parse error", func() {
				var pe *input.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Source, ShouldEqual, "bad.json")
				So(pe.Index, ShouldEqual, 0)
			})
		})

		Convey("When a later run is invalid and runs are handled one at a time", func() {
			serial := startedService(t, service.WithWorkerCount(1))
			_, err := serial.Compare(ctx, model.CompareRequest{
				Actual: actual,
				Runs: []model.Document{
					doc("good.json", `{"a":["X"]}`),
					doc("bad.json", `{"a":[1]}`),
				},
			})

			Convey("Then no report should be stored for the valid run", func() {
				So(err, ShouldNotBeNil)
				stats := serial.GetStats()
				So(stats["reportsStored"], ShouldEqual, 0)
				So(stats["evaluations"], ShouldEqual, int64(0))
			})
		})

		Convey("When no runs are given", func() {
			_, err := svc.Compare(ctx, model.CompareRequest{Actual: actual})

			Convey("Then it should fail", func() {
				So(errors.Is(err, service.ErrNoRuns), ShouldBeTrue)
			})
		})
	})
}

func TestService_ConcurrentEvaluate(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(t, service.WithReportHistory(1000))
		ctx := context.Background()

		Convey("When evaluating from many goroutines", func() {
			const n = 50
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.Evaluate(ctx, model.Request{
						Actual:    doc("", `{"a":["X"]}`),
						Predicted: doc("", `{"a":["X"]}`),
					})
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			Convey("Then every evaluation should be stored", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				So(svc.GetStats()["reportsStored"], ShouldEqual, n)
			})
		})
	})
}
