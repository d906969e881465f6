package engine

import (
	"sync"

	"github.com/pders01/ytsweep/internal/auth"
	"github.com/pders01/ytsweep/internal/events"
)

// session holds the credential and the quota counter. It is handed to the
// API client as both its credential source and quota recorder.
type session struct {
	pub events.Publisher

	mu    sync.Mutex
	cred  auth.Credential
	quota int64
	meta  events.Meta
}

func newSession(pub events.Publisher) *session {
	return &session{pub: pub}
}

func (s *session) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cred.Valid() {
		return "", false
	}
	return s.cred.AccessToken, true
}

func (s *session) credential() (auth.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, s.cred.Valid()
}

func (s *session) setCredential(c auth.Credential) {
	s.mu.Lock()
	s.cred = c
	s.mu.Unlock()
}

// clearCredential forgets the credential and returns what was held.
func (s *session) clearCredential() auth.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cred
	s.cred = auth.Credential{}
	return old
}

// begin tags later quota events with meta and optionally zeroes the counter.
func (s *session) begin(meta events.Meta, resetQuota bool) {
	s.mu.Lock()
	s.meta = meta
	if resetQuota {
		s.quota = 0
	}
	s.mu.Unlock()
}

// AddQuota charges units and publishes the new total.
func (s *session) AddQuota(units int) int64 {
	s.mu.Lock()
	s.quota += int64(units)
	total, meta := s.quota, s.meta
	s.mu.Unlock()

	s.pub.Publish(events.Quota{Meta: meta, Used: total})
	return total
}

func (s *session) quotaUsed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quota
}
