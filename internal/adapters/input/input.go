// Package input validates label mapping documents at the system boundary.
//
// A valid document is a JSON object whose values are arrays of strings:
//
//	{"E-927337.mp3": ["Calidad de productos"], "E-927379.mp3": []}
//
// Anything else is rejected with a *ParseError before it can reach the
// evaluation engine.
package input

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/okian/labeleval/internal/domain/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse validates data and returns the label mapping it encodes. source
// names the document in error messages.
func Parse(source string, data []byte) (model.LabelMapping, error) {
	return Read(source, bytes.NewReader(data))
}

// Read is like Parse but consumes r until the end of the document.
func Read(source string, r io.Reader) (model.LabelMapping, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	dec := json.NewDecoder(br)
	p := parser{source: source, dec: dec}

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, p.fail("", -1, "empty document", nil)
		}
		return nil, p.syntax("", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, p.fail("", -1, "top level must be an object of label arrays, got "+describe(tok), nil)
	}

	out := make(model.LabelMapping)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, p.syntax("", err)
		}
		key, _ := tok.(string)
		if _, dup := out[key]; dup {
			return nil, p.fail(key, -1, "duplicate key", nil)
		}
		labels, err := p.labels(key)
		if err != nil {
			return nil, err
		}
		out[key] = labels
	}
	if _, err := dec.Token(); err != nil {
		return nil, p.syntax("", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, p.syntax("", err)
		}
		return nil, p.fail("", -1, "unexpected data after the document", nil)
	}
	return out, nil
}

type parser struct {
	source string
	dec    *json.Decoder
}

func (p parser) labels(key string) ([]string, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return nil, p.syntax(key, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, p.fail(key, -1, "labels must be an array of strings, got "+describe(tok), nil)
	}
	labels := make([]string, 0)
	for i := 0; p.dec.More(); i++ {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.syntax(key, err)
		}
		s, ok := tok.(string)
		if !ok {
			return nil, p.fail(key, i, "label must be a string, got "+describe(tok), nil)
		}
		labels = append(labels, s)
	}
	if _, err := p.dec.Token(); err != nil {
		return nil, p.syntax(key, err)
	}
	return labels, nil
}

func (p parser) fail(key string, index int, reason string, err error) *ParseError {
	return &ParseError{Source: p.source, Key: key, Index: index, Reason: reason, Err: err}
}

func (p parser) syntax(key string, err error) *ParseError {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return p.fail(key, -1, "invalid JSON: unexpected end of document", err)
	}
	return p.fail(key, -1, fmt.Sprintf("invalid JSON: %v", err), err)
}

func describe(tok json.Token) string {
	switch v := tok.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case json.Delim:
		switch v {
		case '{':
			return "object"
		case '[':
			return "array"
		}
		return fmt.Sprintf("%q", v.String())
	default:
		return fmt.Sprintf("%T", v)
	}
}
