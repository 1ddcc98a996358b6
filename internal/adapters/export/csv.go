// Package export renders evaluation results as delimited tabular text and
// reads them back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/labeleval/internal/domain/model"
)

// Default codec settings.
const (
	defaultDelimiter      = ','
	defaultLabelSeparator = "; "
)

// FileName is the suggested name for a downloaded export.
const FileName = "classification_metrics.csv"

// Header is the column layout of an export, one row per evaluated item.
var Header = []string{
	"Filename",
	"Actual Labels",
	"Predicted Labels",
	"Total Labels",
	"Found Correct",
	"Found Incorrect",
	"Not Found",
	"Precision",
	"Recall",
}

type codec struct {
	delimiter      rune
	labelSeparator string
}

func newCodec(opts []Option) codec {
	c := codec{delimiter: defaultDelimiter, labelSeparator: defaultLabelSeparator}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WriteCSV writes a header and one row per item of s to w. Ratios are
// written with the shortest representation that parses back to the same
// float64.
func WriteCSV(w io.Writer, s model.Summary, opts ...Option) error {
	c := newCodec(opts)
	cw := csv.NewWriter(w)
	cw.Comma = c.delimiter

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}
	for _, it := range s.Items {
		row := []string{
			it.Key,
			strings.Join(it.Actual, c.labelSeparator),
			strings.Join(it.Predicted, c.labelSeparator),
			strconv.Itoa(it.TotalLabels),
			strconv.Itoa(it.Matched),
			strconv.Itoa(it.Spurious),
			strconv.Itoa(it.Missing),
			strconv.FormatFloat(it.Precision, 'f', -1, 64),
			strconv.FormatFloat(it.Recall, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteCSV, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}
	return nil
}

// ReadCSV parses rows produced by WriteCSV. Labels are split on the label
// separator, so a label that itself contains the separator comes back split;
// counts and ratios are always exact.
func ReadCSV(r io.Reader, opts ...Option) ([]model.ItemResult, error) {
	c := newCodec(opts)
	cr := csv.NewReader(r)
	cr.Comma = c.delimiter
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: missing header", ErrMalformedCSV)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
	}
	for i, name := range Header {
		if head[i] != name {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrMalformedCSV, i+1, head[i], name)
		}
	}

	var items []model.ItemResult
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
		}
		it, err := c.parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedCSV, line, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func (c codec) parseRow(rec []string) (model.ItemResult, error) {
	it := model.ItemResult{
		Key:       rec[0],
		Actual:    c.splitLabels(rec[1]),
		Predicted: c.splitLabels(rec[2]),
	}
	ints := []*int{&it.TotalLabels, &it.Matched, &it.Spurious, &it.Missing}
	for i, dst := range ints {
		v, err := strconv.Atoi(rec[3+i])
		if err != nil {
			return it, fmt.Errorf("%s: %w", Header[3+i], err)
		}
		*dst = v
	}
	floats := []*float64{&it.Precision, &it.Recall}
	for i, dst := range floats {
		v, err := strconv.ParseFloat(rec[7+i], 64)
		if err != nil {
			return it, fmt.Errorf("%s: %w", Header[7+i], err)
		}
		*dst = v
	}
	return it, nil
}

func (c codec) splitLabels(cell string) []string {
	if cell == "" {
		return []string{}
	}
	return strings.Split(cell, c.labelSeparator)
}
