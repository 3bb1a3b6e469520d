// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultJSONBinEndpoint is the public jsonbin.io v3 bin API.
const DefaultJSONBinEndpoint = "https://api.jsonbin.io/v3/b"

const binName = "KitchenOSData"

// JSONBin is a client for a jsonbin-style remote document API: a single
// JSON document ("bin") addressed by ID and authenticated with a master
// key header. There is deliberately no retry or backoff; a failed call
// surfaces to the caller, who decides whether to re-trigger it.
type JSONBin struct {
	endpoint string
	client   *http.Client
}

// NewJSONBin creates a client against endpoint, falling back to the
// public API when empty.
func NewJSONBin(endpoint string) *JSONBin {
	if endpoint == "" {
		endpoint = DefaultJSONBinEndpoint
	}
	return &JSONBin{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   http.DefaultClient,
	}
}

type binCreateResponse struct {
	Metadata struct {
		ID string `json:"id"`
	} `json:"metadata"`
}

type binReadResponse struct {
	Record json.RawMessage `json:"record"`
}

// Create stores doc as a new bin and returns its ID.
func (b *JSONBin) Create(ctx context.Context, secret string, doc any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("store: encoding bin document: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("store: creating bin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", strings.TrimSpace(secret))
	req.Header.Set("X-Bin-Name", binName)

	var res binCreateResponse
	if err := b.do(req, &res); err != nil {
		return "", err
	}
	if res.Metadata.ID == "" {
		return "", &RemoteServiceError{Message: "bin API response missing document ID"}
	}
	return res.Metadata.ID, nil
}

// Replace overwrites the full contents of the bin identified by id.
func (b *JSONBin) Replace(ctx context.Context, id, secret string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: encoding bin document: %w", err)
	}
	url := b.endpoint + "/" + strings.TrimSpace(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("store: creating bin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", strings.TrimSpace(secret))

	return b.do(req, &struct{}{})
}

// Read fetches the latest contents of the bin identified by id and
// unmarshals the stored document into out.
func (b *JSONBin) Read(ctx context.Context, id, secret string, out any) error {
	url := b.endpoint + "/" + strings.TrimSpace(id) + "/latest"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("store: creating bin request: %w", err)
	}
	req.Header.Set("X-Master-Key", strings.TrimSpace(secret))

	var res binReadResponse
	if err := b.do(req, &res); err != nil {
		return err
	}
	if err := json.Unmarshal(res.Record, out); err != nil {
		return &RemoteServiceError{Message: fmt.Sprintf("decoding bin record: %v", err)}
	}
	return nil
}

// do executes the request and decodes a JSON response into out,
// translating failures into the typed error taxonomy. Outage pages and
// other HTML bodies are detected instead of blindly JSON-parsed.
func (b *JSONBin) do(req *http.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return &RemoteServiceError{Message: fmt.Sprintf("bin API request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteServiceError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("reading bin API response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &RemoteServiceError{StatusCode: resp.StatusCode, Message: "failed to parse bin API response"}
	}
	return nil
}

func errorFromResponse(status int, body []byte) error {
	message := fmt.Sprintf("bin API error: status %d", status)
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		message = apiErr.Message
	} else if text := strings.TrimSpace(string(body)); text != "" {
		if strings.HasPrefix(text, "<") {
			message = fmt.Sprintf("bin API returned HTML (status %d); check the bin ID and API key", status)
		} else {
			message = fmt.Sprintf("bin API error %d: %s", status, truncate(text, 100))
		}
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Message: message}
	case http.StatusNotFound:
		return &NotFoundError{Resource: "bin"}
	default:
		return &RemoteServiceError{StatusCode: status, Message: message}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
