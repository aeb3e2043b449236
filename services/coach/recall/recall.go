// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package recall stores session summaries in Weaviate and retrieves
// semantically related past sessions. Recall output feeds post-session
// recommendations only; it never influences progression decisions.
package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/Zee159/coachflux/services/coach/datatypes"
)

// ClassName is the Weaviate class holding session summaries.
const ClassName = "CoachSessionSummary"

// Recaller wraps the Weaviate client for summary save and lookup.
type Recaller struct {
	client *weaviate.Client
}

// New creates a Recaller.
func New(client *weaviate.Client) *Recaller {
	return &Recaller{client: client}
}

// RelatedSession is one recall hit.
type RelatedSession struct {
	SessionID string  `json:"session_id"`
	Framework string  `json:"framework"`
	Summary   string  `json:"summary"`
	Distance  float64 `json:"distance"`
}

// relatedQueryResponse parses the GraphQL shape for ClassName.
type relatedQueryResponse struct {
	Get struct {
		CoachSessionSummary []struct {
			SessionID  string `json:"session_id"`
			Framework  string `json:"framework"`
			Summary    string `json:"summary"`
			Additional struct {
				Distance float64 `json:"distance"`
			} `json:"_additional"`
		} `json:"CoachSessionSummary"`
	} `json:"Get"`
}

// SaveSummary persists a closed session's summary text.
func (r *Recaller) SaveSummary(ctx context.Context, session *datatypes.Session, summary string) error {
	if strings.TrimSpace(summary) == "" {
		return nil
	}
	slog.Info("Saving session summary to Weaviate", "sessionId", session.ID)

	_, err := r.client.Data().Creator().
		WithClassName(ClassName).
		WithProperties(map[string]interface{}{
			"session_id": session.ID,
			"user_id":    session.UserID,
			"framework":  session.Framework,
			"summary":    summary,
			"timestamp":  time.Now().UnixMilli(),
		}).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to save session summary to Weaviate: %w", err)
	}
	return nil
}

// Related returns up to limit sessions semantically close to the query
// text, nearest first.
func (r *Recaller) Related(ctx context.Context, query string, limit int) ([]RelatedSession, error) {
	if limit <= 0 {
		limit = 5
	}
	nearText := r.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})
	fields := []graphql.Field{
		{Name: "session_id"},
		{Name: "framework"},
		{Name: "summary"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	resp, err := r.client.GraphQL().Get().
		WithClassName(ClassName).
		WithNearText(nearText).
		WithFields(fields...).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("error querying related sessions: %w", err)
	}

	var queryResp relatedQueryResponse
	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("error re-encoding related-session response: %w", err)
	}
	if err := json.Unmarshal(respBytes, &queryResp); err != nil {
		return nil, fmt.Errorf("error parsing related-session response: %w", err)
	}

	related := make([]RelatedSession, 0, len(queryResp.Get.CoachSessionSummary))
	for _, hit := range queryResp.Get.CoachSessionSummary {
		related = append(related, RelatedSession{
			SessionID: hit.SessionID,
			Framework: hit.Framework,
			Summary:   hit.Summary,
			Distance:  hit.Additional.Distance,
		})
	}
	return related, nil
}

// BuildSummary condenses a session's turn history into the text that is
// embedded for recall. Coach reflections carry the session's substance;
// user inputs are included for grounding.
func BuildSummary(session *datatypes.Session, history []datatypes.Reflection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Framework: %s.", session.Framework)
	for _, reflection := range history {
		if text := strings.TrimSpace(reflection.UserInput); text != "" {
			fmt.Fprintf(&b, " Client: %s", text)
		}
		if text := strings.TrimSpace(reflection.CoachText()); text != "" {
			fmt.Fprintf(&b, " Coach: %s", text)
		}
	}
	return b.String()
}
