/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package transcribe is the HTTP client for the remote speech recognition service:
// transcription of an uploaded audio file, submission of corrected transcripts for
// training and a liveness ping.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"transcribeer/internal/domain"
	applog "transcribeer/internal/log"
)

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Client talks to the transcription service. BaseURL may include a trailing slash; it is normalized.
type Client struct {
	BaseURL string
	Tenant  string
	client  *http.Client
}

// NewClient creates a client. timeout <= 0 leaves the per-request context as the only deadline.
func NewClient(baseURL, tenant string, timeout time.Duration) *Client {
	if tenant == "" {
		tenant = "1"
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Tenant:  tenant,
		client:  &http.Client{Timeout: timeout},
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Status string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server %s %s: %s", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("server %s %s: %s: %s", e.Method, e.Path, e.Status, e.Body)
}

func (c *Client) post(ctx context.Context, p string, contentType string, body io.Reader) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + p)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, &StatusError{Method: http.MethodPost, Path: u.Path, Status: resp.Status, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// Transcribe uploads audio as multipart field "file" to /transcribe/{tenant} and returns the
// recognized segments as sent by the server (labels untouched).
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) ([]domain.Segment, error) {
	l := applog.WithOperation(applog.WithComponent("transcribe"), "transcribe").With(slog.String("file", filename))
	start := time.Now()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		fw, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err == nil {
			_, err = io.Copy(fw, audio)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	resp, err := c.post(ctx, "/transcribe/"+url.PathEscape(c.Tenant), mw.FormDataContentType(), pr)
	// unblock the writer goroutine if the request never drained the pipe
	_ = pr.Close()
	if err != nil {
		l.Error("transcription request failed", slog.Any("err", err))
		return nil, fmt.Errorf("transcribe %s: %w", filename, err)
	}
	defer resp.Body.Close()
	var segs []domain.Segment
	if err := json.NewDecoder(resp.Body).Decode(&segs); err != nil {
		l.Error("transcription response not a segment list", slog.Any("err", err))
		return nil, fmt.Errorf("transcribe %s: decode response: %w", filename, err)
	}
	if segs == nil {
		segs = []domain.Segment{}
	}
	l.Info("transcribed", slog.Int("segments", len(segs)), slog.Duration("took", time.Since(start)))
	return segs, nil
}

// SubmitTraining posts the full segment list as JSON in multipart field "file_data" to /save_data.
// The response body is not interpreted.
func (c *Client) SubmitTraining(ctx context.Context, segs []domain.Segment) error {
	payload, err := domain.EncodeSegments(segs)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("file_data", string(payload)); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	resp, err := c.post(ctx, "/save_data", mw.FormDataContentType(), &body)
	if err != nil {
		applog.WithComponent("transcribe").Error("training submission failed", slog.Any("err", err))
		return fmt.Errorf("submit training data: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Ping checks that the service is up. The server answers POST /ping with JSON true.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.post(ctx, "/ping", "", nil)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer resp.Body.Close()
	var ok bool
	if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
		return fmt.Errorf("ping: unexpected response: %w", err)
	}
	if !ok {
		return fmt.Errorf("ping: service reported not ready")
	}
	return nil
}
