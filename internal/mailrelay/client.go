// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailrelay sends lead notifications to the external email relay.
// Sending is best-effort: callers never wait for it and failures are only logged.
package mailrelay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Kind is the notification template the relay renders.
type Kind string

// Notification kinds accepted by the relay.
const (
	KindContact     Kind = "contact"
	KindInquiry     Kind = "inquiry"
	KindApplication Kind = "application"
)

// Valid reports whether k is a kind the relay accepts.
func (k Kind) Valid() bool {
	switch k {
	case KindContact, KindInquiry, KindApplication:
		return true
	}
	return false
}

// Client configuration constants
const (
	DefaultTimeout = 10 * time.Second // Client-side bound on one send
	MaxResponseLen = 10 * 1024        // Maximum response body read (10KB)
	UserAgent      = "studiosite/1.0"

	SignatureHeader = "X-Relay-Signature"
	TypeHeader      = "X-Relay-Type"
)

// Request is the JSON body posted to the relay.
type Request struct {
	Type Kind   `json:"type"`
	To   string `json:"to,omitempty"`
	Site string `json:"site,omitempty"`
	Data any    `json:"data"`
}

type response struct {
	MessageID string `json:"messageId"`
}

// StatusError is returned when the relay answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay returned HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client posts notifications to the relay endpoint.
type Client struct {
	url     string
	secret  string
	timeout time.Duration
	http    *http.Client
}

// httpTransport is shared by all clients; deadlines come from the request context.
var httpTransport = &http.Transport{
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 5,
	IdleConnTimeout:     90 * time.Second,
}

// NewClient creates a relay client. A non-positive timeout uses DefaultTimeout.
func NewClient(url, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:     url,
		secret:  secret,
		timeout: timeout,
		http:    &http.Client{Transport: httpTransport},
	}
}

// Send posts req and returns the relay's message id. The call is bounded by
// the client timeout regardless of ctx or the relay's own limits.
func (c *Client) Send(ctx context.Context, req Request) (string, error) {
	if !req.Type.Valid() {
		return "", fmt.Errorf("unknown notification type %q", req.Type)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", UserAgent)
	httpReq.Header.Set(TypeHeader, string(req.Type))
	if c.secret != "" {
		httpReq.Header.Set(SignatureHeader, "sha256="+Sign(payload, c.secret))
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	if err != nil {
		return "", fmt.Errorf("reading relay response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decoding relay response: %w", err)
	}
	if out.MessageID == "" {
		return "", errors.New("relay response has no messageId")
	}
	return out.MessageID, nil
}

// Sign returns the hex HMAC-SHA256 of payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a "sha256=<hex>" header value against payload.
func VerifySignature(payload []byte, header, secret string) bool {
	return hmac.Equal([]byte(header), []byte("sha256="+Sign(payload, secret)))
}
