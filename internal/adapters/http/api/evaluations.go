package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/labeleval/internal/adapters/export"
	"github.com/okian/labeleval/internal/domain/model"
	"github.com/okian/labeleval/internal/domain/types"
)

// Multipart field names accepted by POST /evaluations.
const (
	fieldActual      = "actual"
	fieldPredicted   = "predicted"
	fieldScope       = "scope"
	fieldNormalize   = "normalize"
	fieldEmptyPolicy = "empty_policy"
)

// EvaluationsHandler handles evaluation requests.
type EvaluationsHandler struct {
	deps           Dependencies
	maxUploadBytes int64
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps Dependencies, opts ...Option) *EvaluationsHandler {
	h := &EvaluationsHandler{deps: deps, maxUploadBytes: DefaultMaxUploadBytes}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleEvaluations serves the /evaluations collection: POST creates a
// report, GET lists recent ones.
func (h *EvaluationsHandler) HandleEvaluations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.HandlePostEvaluation(w, r)
	case http.MethodGet:
		h.HandleListEvaluations(w, r)
	default:
		http.NotFound(w, r)
	}
}

// HandleListEvaluations handles GET /evaluations?limit=n. Reports come back
// newest first without their item rows.
func (h *EvaluationsHandler) HandleListEvaluations(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_evaluations"
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxListLimit {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be an integer between 1 and %d, got %q", MaxListLimit, v)))
			return
		}
		limit = n
	}

	reports, err := h.deps.Recent(r.Context(), limit)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	out := types.ReportList{Reports: make([]types.ReportSummary, 0, len(reports))}
	for _, rep := range reports {
		out.Reports = append(out.Reports, types.SummaryFromReport(rep, "/evaluations/"+rep.ID))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandlePostEvaluation handles POST /evaluations requests. The body is either
// a JSON EvaluateRequest or a multipart form with "actual" and "predicted"
// file fields.
func (h *EvaluationsHandler) HandlePostEvaluation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_evaluation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var (
		req model.Request
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		req, err = h.multipartRequest(r)
	} else {
		req, err = jsonRequest(r.Body)
	}
	if err != nil {
		writeServiceError(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	report, err := h.deps.Evaluate(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	location := "/evaluations/" + report.ID
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusCreated, types.FromReport(report, location+"/csv"))
}

// HandleGetEvaluation handles GET /evaluations/{id} and
// GET /evaluations/{id}/csv requests.
func (h *EvaluationsHandler) HandleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_evaluation"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/evaluations/")
	id, rest, _ := strings.Cut(path, "/")
	switch {
	case id == "":
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
	case rest == "":
		h.getReport(w, r, id)
	case rest == "csv":
		h.getCSV(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *EvaluationsHandler) getReport(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_report"
	report, err := h.deps.Report(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromReport(report, "/evaluations/"+id+"/csv"))
}

func (h *EvaluationsHandler) getCSV(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_csv"
	var buf bytes.Buffer
	if err := h.deps.ExportCSV(r.Context(), id, &buf); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func jsonRequest(body io.Reader) (model.Request, error) {
	var in types.EvaluateRequest
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.Request{}, err
		}
		return model.Request{}, fmt.Errorf("decode request body: %w", err)
	}
	overrides, err := parseOverrides(in.Scope, in.Normalize, in.EmptyPolicy)
	if err != nil {
		return model.Request{}, err
	}
	return model.Request{
		Actual:    model.Document{Name: fieldActual, Data: in.Actual},
		Predicted: model.Document{Name: fieldPredicted, Data: in.Predicted},
		Options:   overrides,
	}, nil
}

func (h *EvaluationsHandler) multipartRequest(r *http.Request) (model.Request, error) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return model.Request{}, err
	}
	actual, err := formFile(r, fieldActual)
	if err != nil {
		return model.Request{}, err
	}
	predicted, err := formFile(r, fieldPredicted)
	if err != nil {
		return model.Request{}, err
	}

	var normalize *bool
	if v := r.FormValue(fieldNormalize); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return model.Request{}, fmt.Errorf("invalid %s %q", fieldNormalize, v)
		}
		normalize = &b
	}
	overrides, err := parseOverrides(r.FormValue(fieldScope), normalize, r.FormValue(fieldEmptyPolicy))
	if err != nil {
		return model.Request{}, err
	}
	return model.Request{Actual: actual, Predicted: predicted, Options: overrides}, nil
}

func formFile(r *http.Request, field string) (model.Document, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return model.Document{}, fmt.Errorf("missing file field %q: %w", field, err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return model.Document{}, fmt.Errorf("read %q: %w", field, err)
	}
	name := hdr.Filename
	if name == "" {
		name = field
	}
	return model.Document{Name: name, Data: data}, nil
}

func parseOverrides(scope string, normalize *bool, emptyPolicy string) (model.Overrides, error) {
	var o model.Overrides
	if scope != "" {
		s, err := model.ParseScope(scope)
		if err != nil {
			return o, err
		}
		o.Scope = &s
	}
	if emptyPolicy != "" {
		p, err := model.ParseEmptyPolicy(emptyPolicy)
		if err != nil {
			return o, err
		}
		o.EmptyPolicy = &p
	}
	o.Normalize = normalize
	return o, nil
}
