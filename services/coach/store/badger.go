// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/Zee159/coachflux/services/coach/datatypes"
)

// Key layout:
//
//	session/<id>                  session document
//	reflection/<sessionID>/<seq>  turn, seq is zero-padded for ordered scans
//	incident/<sessionID>/<seq>    safety incident
const (
	sessionPrefix    = "session/"
	reflectionPrefix = "reflection/"
	incidentPrefix   = "incident/"
	sequenceKey      = "seq/turns"
)

// Config holds configuration for the BadgerDB-backed store.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory
	// is true.
	Path string

	// InMemory enables in-memory mode. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults for a persistent store.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// BadgerStore implements Store over an embedded BadgerDB instance. Safe
// for concurrent use.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

var _ Store = (*BadgerStore)(nil)

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open creates and opens the store.
func Open(cfg Config) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	seq, err := db.GetSequence([]byte(sequenceKey), 128)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open turn sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

// Close releases the sequence and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return fmt.Errorf("release turn sequence: %w", err)
	}
	return s.db.Close()
}

// ====== Sessions ======

func (s *BadgerStore) CreateSession(_ context.Context, session *datatypes.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	return s.put(sessionPrefix+session.ID, session)
}

func (s *BadgerStore) GetSession(_ context.Context, id string) (*datatypes.Session, error) {
	var session datatypes.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *BadgerStore) UpdateSession(_ context.Context, session *datatypes.Session) error {
	return s.put(sessionPrefix+session.ID, session)
}

func (s *BadgerStore) ListSessions(_ context.Context, userID string) ([]*datatypes.Session, error) {
	var sessions []*datatypes.Session
	err := s.scan(sessionPrefix, func(val []byte) error {
		var session datatypes.Session
		if err := json.Unmarshal(val, &session); err != nil {
			return err
		}
		if session.UserID == userID {
			sessions = append(sessions, &session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// ====== Reflections ======

func (s *BadgerStore) AppendReflection(_ context.Context, reflection *datatypes.Reflection) (string, error) {
	if reflection.ID == "" {
		reflection.ID = uuid.NewString()
	}
	if reflection.CreatedAt.IsZero() {
		reflection.CreatedAt = time.Now().UTC()
	}
	seq, err := s.seq.Next()
	if err != nil {
		return "", fmt.Errorf("next turn sequence: %w", err)
	}
	key := fmt.Sprintf("%s%s/%020d", reflectionPrefix, reflection.SessionID, seq)
	if err := s.put(key, reflection); err != nil {
		return "", err
	}
	return reflection.ID, nil
}

func (s *BadgerStore) ListReflections(_ context.Context, sessionID, step string) ([]datatypes.Reflection, error) {
	var reflections []datatypes.Reflection
	err := s.scan(reflectionPrefix+sessionID+"/", func(val []byte) error {
		var reflection datatypes.Reflection
		if err := json.Unmarshal(val, &reflection); err != nil {
			return err
		}
		if step == "" || reflection.Step == step {
			reflections = append(reflections, reflection)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reflections, nil
}

// ====== Incidents ======

func (s *BadgerStore) CreateIncident(_ context.Context, incident *datatypes.SafetyIncident) error {
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = time.Now().UTC()
	}
	seq, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next turn sequence: %w", err)
	}
	key := fmt.Sprintf("%s%s/%020d", incidentPrefix, incident.SessionID, seq)
	return s.put(key, incident)
}

func (s *BadgerStore) ListIncidents(_ context.Context, sessionID string) ([]datatypes.SafetyIncident, error) {
	var incidents []datatypes.SafetyIncident
	err := s.scan(incidentPrefix+sessionID+"/", func(val []byte) error {
		var incident datatypes.SafetyIncident
		if err := json.Unmarshal(val, &incident); err != nil {
			return err
		}
		incidents = append(incidents, incident)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return incidents, nil
}

// ====== Helpers ======

func (s *BadgerStore) put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// scan iterates all values under prefix in key order.
func (s *BadgerStore) scan(prefix string, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}
