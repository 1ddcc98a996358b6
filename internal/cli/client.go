package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/labeleval/internal/domain/model"
	"github.com/okian/labeleval/internal/domain/types"
)

// Client talks to a running labeleval server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Evaluate uploads both documents as a multipart form so the server keeps
// their file names.
func (c *Client) Evaluate(ctx context.Context, req model.Request) (types.Report, error) {
	body, contentType, err := multipartBody(req)
	if err != nil {
		return types.Report{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evaluations", body)
	if err != nil {
		return types.Report{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return types.Report{}, fmt.Errorf("%w: %w", ErrServer, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return types.Report{}, responseError(resp)
	}
	var out types.Report
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.Report{}, fmt.Errorf("%w: decode report: %w", ErrServer, err)
	}
	return out, nil
}

// DownloadCSV copies the CSV export at path (relative to the base URL) to w.
func (c *Client) DownloadCSV(ctx context.Context, path string, w io.Writer) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServer, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}
	return nil
}

func multipartBody(req model.Request) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, part := range []struct {
		field string
		doc   model.Document
	}{
		{"actual", req.Actual},
		{"predicted", req.Predicted},
	} {
		name := part.doc.Name
		if name == "" {
			name = part.field + ".json"
		}
		fw, err := mw.CreateFormFile(part.field, name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(part.doc.Data); err != nil {
			return nil, "", err
		}
	}

	o := req.Options
	fields := map[string]string{}
	if o.Scope != nil {
		fields["scope"] = o.Scope.String()
	}
	if o.Normalize != nil {
		fields["normalize"] = strconv.FormatBool(*o.Normalize)
	}
	if o.EmptyPolicy != nil {
		fields["empty_policy"] = o.EmptyPolicy.String()
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// responseError turns a non-success response into an error carrying the
// server's code and message.
func responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e types.ErrorResponse
	if err := json.Unmarshal(data, &e); err != nil || e.Message == "" {
		return fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return fmt.Errorf("%w: status %d: %s: %s", ErrServer, resp.StatusCode, e.Code, e.Message)
}
