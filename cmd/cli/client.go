package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// apiClient talks to the finledger HTTP API.
type apiClient struct {
	baseURL string
	timeout time.Duration
}

// apiError is a non-2xx answer.
type apiError struct {
	Status          int
	Kind            string `json:"kind"`
	Message         string `json:"message"`
	TransactionID   string `json:"transactionId"`
	ReferenceNumber string `json:"referenceNumber"`
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("request failed (status %d)", e.Status)
	if e.Kind != "" {
		msg += ": " + e.Kind
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.TransactionID != "" {
		msg += fmt.Sprintf(" [transaction %s, reference %s]", e.TransactionID, e.ReferenceNumber)
	}
	return msg
}

// do sends body as JSON and decodes a 2xx answer into out. A non-nil out
// also receives the body of an error answer before *apiError is returned.
func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, headers map[string]string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		if out != nil {
			_ = json.Unmarshal(raw, out)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
