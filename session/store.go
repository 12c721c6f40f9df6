package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Storage keys. KeySession holds the canonical record; the rest are what
// earlier console versions wrote and are only read.
const (
	KeySession = "session"
	KeyUser    = "user"
	KeyToken   = "token"
	KeyRole    = "userRole"
	KeyUserID  = "userId"
)

var allKeys = []string{KeySession, KeyUser, KeyToken, KeyRole, KeyUserID}

const canonicalVersion = 1

// canonicalRecord is the only shape Save writes.
type canonicalRecord struct {
	Version int    `json:"version"`
	Token   string `json:"token"`
	Role    string `json:"role"`
	Name    string `json:"name"`
	UserID  int64  `json:"userId"`
}

// compositeRecord is the legacy "user" object. Signup wrote the id as "id",
// login as "userId", sometimes as a string.
type compositeRecord struct {
	Token  string  `json:"token"`
	Role   string  `json:"role"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	UserID flexInt `json:"userId"`
	ID     flexInt `json:"id"`
}

type legacyScalars struct {
	Token  string
	Role   string
	UserID string
}

// persisted is the versioned union of everything that may be on disk.
// Version 1 carries Canonical; version 0 carries Composite and/or Scalars.
type persisted struct {
	Version   int
	Canonical canonicalRecord
	Composite *compositeRecord
	Scalars   legacyScalars
}

// flexInt decodes a JSON number or a numeric string. Anything else is zero.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// Store is the session service shared by the gate and every page.
type Store struct {
	storage *Storage
	logger  *slog.Logger

	mu     sync.Mutex
	subs   map[int]func(Session, bool)
	nextID int
}

// NewStore wraps storage.
func NewStore(storage *Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storage: storage,
		logger:  logger,
		subs:    make(map[int]func(Session, bool)),
	}
}

// Load returns the persisted session. The error is always in the
// ErrNoSession family; Load never fails in any other way.
func (s *Store) Load() (Session, error) {
	p, err := s.read()
	if err != nil {
		s.logger.Debug("session unavailable", slog.String("reason", err.Error()))
		return Session{}, err
	}
	sess, err := normalize(p)
	if err != nil {
		s.logger.Debug("session rejected",
			slog.Int("version", p.Version),
			slog.String("reason", err.Error()),
		)
		return Session{}, err
	}
	return sess, nil
}

// Save persists sess as the canonical record and drops legacy keys.
func (s *Store) Save(sess Session) error {
	role, ok := ParseRole(string(sess.Role))
	if ok {
		sess.Role = role
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	raw, err := json.Marshal(canonicalRecord{
		Version: canonicalVersion,
		Token:   sess.Token,
		Role:    string(sess.Role),
		Name:    sess.Name,
		UserID:  sess.UserID,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	legacy := []string{KeyUser, KeyToken, KeyRole, KeyUserID}
	if err := s.storage.Update(map[string]string{KeySession: string(raw)}, legacy); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.logger.Info("session saved", slog.Int64("user_id", sess.UserID), slog.String("role", string(sess.Role)))
	s.notify(sess, true)
	return nil
}

// Clear removes every session key, whatever version wrote it.
func (s *Store) Clear() error {
	if err := s.storage.Remove(allKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("session cleared")
	s.notify(Session{}, false)
	return nil
}

// Subscribe registers fn for session changes and returns its cancel func.
func (s *Store) Subscribe(fn func(sess Session, present bool)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(sess Session, present bool) {
	s.mu.Lock()
	fns := make([]func(Session, bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(sess, present)
	}
}

// read collects whatever is on disk into the union.
func (s *Store) read() (persisted, error) {
	raw, ok, err := s.storage.Get(KeySession)
	if err != nil {
		return persisted{}, fmt.Errorf("%w: read state: %v", ErrNoSession, err)
	}
	if ok {
		var rec canonicalRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return persisted{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
		if rec.Version != canonicalVersion {
			return persisted{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedState, rec.Version)
		}
		return persisted{Version: canonicalVersion, Canonical: rec}, nil
	}

	p := persisted{Version: 0}
	raw, ok, err = s.storage.Get(KeyUser)
	if err != nil {
		return persisted{}, fmt.Errorf("%w: read state: %v", ErrNoSession, err)
	}
	if ok {
		var rec compositeRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return persisted{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
		p.Composite = &rec
	}

	scalars := []struct {
		key string
		dst *string
	}{
		{KeyToken, &p.Scalars.Token},
		{KeyRole, &p.Scalars.Role},
		{KeyUserID, &p.Scalars.UserID},
	}
	for _, sc := range scalars {
		v, _, err := s.storage.Get(sc.key)
		if err != nil {
			return persisted{}, fmt.Errorf("%w: read state: %v", ErrNoSession, err)
		}
		*sc.dst = v
	}
	return p, nil
}

// normalize turns any persisted version into the canonical Session.
func normalize(p persisted) (Session, error) {
	var (
		token, role, name string
		userID            int64
	)

	switch p.Version {
	case canonicalVersion:
		token, role, name, userID = p.Canonical.Token, p.Canonical.Role, p.Canonical.Name, p.Canonical.UserID
	case 0:
		if c := p.Composite; c != nil {
			token, role, name = c.Token, c.Role, c.Name
			userID = int64(c.UserID)
			if userID == 0 {
				userID = int64(c.ID)
			}
		}
		if strings.TrimSpace(token) == "" {
			token = p.Scalars.Token
		}
		if strings.TrimSpace(role) == "" {
			role = p.Scalars.Role
		}
		if userID == 0 {
			userID, _ = strconv.ParseInt(strings.TrimSpace(p.Scalars.UserID), 10, 64)
		}
	default:
		return Session{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedState, p.Version)
	}

	if strings.TrimSpace(token) == "" {
		return Session{}, ErrNoSession
	}

	sess := Session{
		Token:  strings.TrimSpace(token),
		Name:   strings.TrimSpace(name),
		UserID: userID,
	}
	if r, ok := ParseRole(role); ok {
		sess.Role = r
	} else {
		sess.Role = Role(role)
	}
	if err := sess.Validate(); err != nil {
		return Session{}, err
	}
	return sess, nil
}
