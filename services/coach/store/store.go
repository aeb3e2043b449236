// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists sessions, reflections, and safety incidents in
// an embedded BadgerDB instance. Reflections are append-only and read
// back in insertion order; sessions are read-modify-write documents.
package store

import (
	"context"
	"errors"

	"github.com/Zee159/coachflux/services/coach/datatypes"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// SessionStore manages session documents.
type SessionStore interface {
	// CreateSession persists a new session. The caller sets the ID.
	CreateSession(ctx context.Context, session *datatypes.Session) error

	// GetSession returns the session or ErrNotFound.
	GetSession(ctx context.Context, id string) (*datatypes.Session, error)

	// UpdateSession overwrites the stored session document.
	UpdateSession(ctx context.Context, session *datatypes.Session) error

	// ListSessions returns every session for a user, newest first.
	ListSessions(ctx context.Context, userID string) ([]*datatypes.Session, error)
}

// ReflectionStore manages the append-only turn history.
type ReflectionStore interface {
	// AppendReflection appends a turn and returns its assigned ID.
	AppendReflection(ctx context.Context, reflection *datatypes.Reflection) (string, error)

	// ListReflections returns a session's turns in insertion order.
	// An empty step returns all steps.
	ListReflections(ctx context.Context, sessionID, step string) ([]datatypes.Reflection, error)
}

// IncidentStore manages the safety audit trail.
type IncidentStore interface {
	// CreateIncident records a safety incident.
	CreateIncident(ctx context.Context, incident *datatypes.SafetyIncident) error

	// ListIncidents returns a session's incidents in insertion order.
	ListIncidents(ctx context.Context, sessionID string) ([]datatypes.SafetyIncident, error)
}

// Store is the full persistence surface consumed by the handlers.
type Store interface {
	SessionStore
	ReflectionStore
	IncidentStore

	Close() error
}
