package model_test

import (
	"testing"

	model "github.com/okian/labeleval/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestLabelMapping_Keys(t *testing.T) {
	convey.Convey("Given a label mapping", t, func() {
		m := model.LabelMapping{
			"b.mp3": {"x"},
			"a.mp3": {"y"},
			"c.mp3": nil,
		}

		convey.Convey("Then keys should come back sorted", func() {
			convey.So(m.Keys(), convey.ShouldResemble, []string{"a.mp3", "b.mp3", "c.mp3"})
		})

		convey.Convey("And an empty mapping should yield no keys", func() {
			convey.So(model.LabelMapping{}.Keys(), convey.ShouldBeEmpty)
		})
	})
}

func TestParseScope(t *testing.T) {
	convey.Convey("Given scope names", t, func() {
		convey.Convey("When parsing known names", func() {
			cases := []struct {
				in   string
				want model.Scope
			}{
				{"", model.ScopeUnion},
				{"union", model.ScopeUnion},
				{"UNION", model.ScopeUnion},
				{"predicted", model.ScopePredicted},
				{" Predicted-Only ", model.ScopePredicted},
			}
			for _, tc := range cases {
				got, err := model.ParseScope(tc.in)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, tc.want)
			}
		})

		convey.Convey("When parsing an unknown name", func() {
			_, err := model.ParseScope("intersection")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "unknown scope")
		})

		convey.Convey("Then String should round trip", func() {
			for _, s := range []model.Scope{model.ScopeUnion, model.ScopePredicted} {
				got, err := model.ParseScope(s.String())
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, s)
			}
		})
	})
}

func TestParseEmptyPolicy(t *testing.T) {
	convey.Convey("Given empty policy names", t, func() {
		p, err := model.ParseEmptyPolicy("")
		convey.So(err, convey.ShouldBeNil)
		convey.So(p, convey.ShouldEqual, model.EmptyAsZero)

		p, err = model.ParseEmptyPolicy("Perfect")
		convey.So(err, convey.ShouldBeNil)
		convey.So(p, convey.ShouldEqual, model.EmptyAsPerfect)
		convey.So(p.String(), convey.ShouldEqual, "perfect")

		_, err = model.ParseEmptyPolicy("half")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestSummary_Global(t *testing.T) {
	convey.Convey("Given summaries", t, func() {
		convey.Convey("When no item was evaluated", func() {
			s := model.Summary{GlobalPrecision: 0.7}
			_, _, ok := s.Global()

			convey.Convey("Then aggregates should be reported as absent", func() {
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(s.HasAggregates(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When items were evaluated", func() {
			s := model.Summary{
				Items:           []model.ItemResult{{Key: "a"}},
				GlobalPrecision: 0.25,
				GlobalRecall:    0.75,
			}
			p, r, ok := s.Global()

			convey.Convey("Then aggregates should be returned", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(p, convey.ShouldEqual, 0.25)
				convey.So(r, convey.ShouldEqual, 0.75)
			})
		})
	})
}
