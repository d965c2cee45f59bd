package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "sisvei/internal/log"
	"sisvei/internal/model"
)

const maxErrorBody = 512

// maxResponseBody caps how much of any response is read. A list larger
// than this is truncated and fails to decode as a ParseError.
var maxResponseBody int64 = 8 << 20

// ErrEmptyID is wrapped in a NetworkError when Delete is given no id; the
// request is never sent.
var ErrEmptyID = errors.New("empty id")

// Client talks to the remote appointment collection. Every call is a
// single round trip: no retries, no idempotency keys.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a Client for the collection at baseURL. A zero timeout
// leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// List returns every record in the collection, soft-deleted ones included.
func (c *Client) List(ctx context.Context) ([]model.RemoteRecord, error) {
	const op = "list"

	body, err := c.do(ctx, op, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}

	var recs []model.RemoteRecord
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, &ParseError{Op: op, Err: err}
	}
	if recs == nil {
		recs = []model.RemoteRecord{}
	}
	return recs, nil
}

// Create posts rec and returns the stored record, which carries the
// server-assigned identifier.
func (c *Client) Create(ctx context.Context, rec model.RemoteRecord) (model.RemoteRecord, error) {
	const op = "create"

	rec.ID = ""
	payload, err := json.Marshal(rec)
	if err != nil {
		return model.RemoteRecord{}, err
	}

	body, err := c.do(ctx, op, http.MethodPost, c.baseURL, payload)
	if err != nil {
		return model.RemoteRecord{}, err
	}

	var created model.RemoteRecord
	if err := json.Unmarshal(body, &created); err != nil {
		return model.RemoteRecord{}, &ParseError{Op: op, Err: err}
	}
	if created.ID == "" {
		return model.RemoteRecord{}, &ParseError{Op: op, Err: errors.New("response has no _id")}
	}
	return created, nil
}

// Delete removes the record with the given id. Any 2xx status is success.
func (c *Client) Delete(ctx context.Context, id string) error {
	const op = "delete"
	if id == "" {
		return &NetworkError{Op: op, Err: ErrEmptyID}
	}

	_, err := c.do(ctx, op, http.MethodDelete, c.baseURL+"/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, target string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		appLog.Error("store request failed", err, "op", op, "request_id", requestID)
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	appLog.Debug("store request done",
		"op", op,
		"method", method,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &ServerError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(snippet),
		}
	}
	if readErr != nil {
		return nil, &NetworkError{Op: op, Err: readErr}
	}
	return body, nil
}
