package input_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/okian/labeleval/internal/adapters/input"
	"github.com/okian/labeleval/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParse_Valid(t *testing.T) {
	convey.Convey("Given a well-formed document", t, func() {
		doc := `{"E-927337.mp3": ["Calidad de productos"], "E-927379.mp3": ["Calidad de productos", "Descripcion de producto"], "E-1.mp3": []}`

		convey.Convey("When parsing it", func() {
			m, err := input.Parse("actual", []byte(doc))

			convey.Convey("Then every key and label should be preserved in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(m, convey.ShouldResemble, model.LabelMapping{
					"E-927337.mp3": {"Calidad de productos"},
					"E-927379.mp3": {"Calidad de productos", "Descripcion de producto"},
					"E-1.mp3":      {},
				})
			})
		})

		convey.Convey("When the document starts with a byte-order mark", func() {
			m, err := input.Parse("actual", append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"a":["x"]}`)...))

			convey.Convey("Then the mark should be ignored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(m["a"], convey.ShouldResemble, []string{"x"})
			})
		})

		convey.Convey("When the document is an empty object", func() {
			m, err := input.Read("predicted", strings.NewReader(" {} \n"))

			convey.Convey("Then an empty mapping should be returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(m, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestParse_Invalid(t *testing.T) {
	convey.Convey("Given malformed documents", t, func() {
		cases := []struct {
			name   string
			doc    string
			key    string
			index  int
			reason string
		}{
			{"empty input", ``, "", -1, "empty document"},
			{"not JSON", `hello`, "", -1, "invalid JSON"},
			{"truncated", `{"a": ["x"`, "a", -1, "unexpected end"},
			{"array at top level", `[["x"]]`, "", -1, "got array"},
			{"null at top level", `null`, "", -1, "got null"},
			{"string value", `{"a": "x"}`, "a", -1, "got string"},
			{"null value", `{"a": null}`, "a", -1, "got null"},
			{"object value", `{"a": {"x": 1}}`, "a", -1, "got object"},
			{"number label", `{"a": ["x", 3]}`, "a", 1, "got number"},
			{"nested array label", `{"a": [["x"]]}`, "a", 0, "got array"},
			{"boolean label", `{"a": [true]}`, "a", 0, "got boolean"},
			{"duplicate key", `{"a": ["x"], "a": ["y"]}`, "a", -1, "duplicate key"},
			{"trailing document", `{"a": ["x"]} {}`, "", -1, "unexpected data"},
		}

		for _, tc := range cases {
			convey.Convey("When parsing "+tc.name, func() {
				m, err := input.Parse("predicted.json", []byte(tc.doc))

				convey.Convey("Then it should be rejected with context", func() {
					convey.So(m, convey.ShouldBeNil)
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, input.ErrInputParse), convey.ShouldBeTrue)

					var pe *input.ParseError
					convey.So(errors.As(err, &pe), convey.ShouldBeTrue)
					convey.So(pe.Source, convey.ShouldEqual, "predicted.json")
					convey.So(pe.Key, convey.ShouldEqual, tc.key)
					convey.So(pe.Index, convey.ShouldEqual, tc.index)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.reason)
					convey.So(err.Error(), convey.ShouldStartWith, "predicted.json")
				})
			})
		}
	})
}

func TestParseError_Message(t *testing.T) {
	convey.Convey("Given a parse error pointing at a label", t, func() {
		err := &input.ParseError{Source: "actual", Key: "a.mp3", Index: 2, Reason: "label must be a string, got number"}

		convey.Convey("Then the message should name the file, key and index", func() {
			convey.So(err.Error(), convey.ShouldEqual, `actual: key "a.mp3": label 2: label must be a string, got number`)
		})
	})
}
