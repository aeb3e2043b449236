// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// Verifier Interface
// =============================================================================

// Verifier checks raw model output against a step schema and returns
// the verifier's raw response body. Implementations must be safe for
// concurrent use.
//
// The response body is parsed by the conformance gate, not by the
// verifier itself, so that verifiers with different response shapes can
// be swapped without touching gate logic.
type Verifier interface {
	Verify(ctx context.Context, schema Schema, raw string) ([]byte, error)
}

// HTTPVerifier calls an external verification service over HTTP.
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPVerifier creates a verifier client for the given endpoint.
func NewHTTPVerifier(endpoint string) *HTTPVerifier {
	return &HTTPVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Verify posts the schema and raw text to the verification service.
func (v *HTTPVerifier) Verify(ctx context.Context, schema Schema, raw string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"schema": schema,
		"text":   raw,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verifier returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// =============================================================================
// Conformance Gate
// =============================================================================

// deniedTerms are clinical and legal overreach terms a coaching payload
// must never present as the coach's own counsel. A hit flags the turn
// for escalation review but does not block it on its own.
var deniedTerms = []string{
	"diagnose you",
	"your diagnosis",
	"clinical depression",
	"prescribe",
	"your medication",
	"treatment plan",
	"as your therapist",
	"legal advice",
	"you should sue",
	"file a lawsuit",
}

// ConformanceResult is the outcome of the conformance gate.
type ConformanceResult struct {
	Passed       bool     `json:"passed"`
	Reason       string   `json:"reason,omitempty"`
	Flagged      bool     `json:"flagged"`
	DenylistHits []string `json:"denylist_hits,omitempty"`
}

// CheckConformance runs the conformance gate: constraint-stripped
// schema to the verifier, verdict parsed fail-closed, and a denylist
// scan of the raw text. A verifier that is unreachable or answers with
// something unparsable fails the gate; it never fails open.
func CheckConformance(ctx context.Context, verifier Verifier, schema Schema, raw string) ConformanceResult {
	result := ConformanceResult{}
	result.DenylistHits = scanDenylist(raw)
	result.Flagged = len(result.DenylistHits) > 0

	body, err := verifier.Verify(ctx, StripConstraints(schema), raw)
	if err != nil {
		result.Reason = fmt.Sprintf("verifier unavailable: %v", err)
		return result
	}

	passed, err := parseVerdict(body)
	if err != nil {
		result.Reason = fmt.Sprintf("unparsable verifier response: %v", err)
		return result
	}
	if !passed {
		result.Reason = "verifier rejected payload"
		return result
	}
	result.Passed = true
	return result
}

// parseVerdict accepts either a {"verdict":"pass"|"fail"} or a
// {"valid":bool} response shape.
func parseVerdict(body []byte) (bool, error) {
	var shape struct {
		Verdict *string `json:"verdict"`
		Valid   *bool   `json:"valid"`
	}
	if err := json.Unmarshal(body, &shape); err != nil {
		return false, err
	}
	switch {
	case shape.Verdict != nil:
		switch *shape.Verdict {
		case "pass":
			return true, nil
		case "fail":
			return false, nil
		default:
			return false, fmt.Errorf("unknown verdict %q", *shape.Verdict)
		}
	case shape.Valid != nil:
		return *shape.Valid, nil
	default:
		return false, fmt.Errorf("response has neither verdict nor valid field")
	}
}

func scanDenylist(raw string) []string {
	lowered := strings.ToLower(raw)
	var hits []string
	for _, term := range deniedTerms {
		if strings.Contains(lowered, term) {
			hits = append(hits, term)
		}
	}
	return hits
}
