package store

import (
	"context"
	"sort"
	"sync"

	"marriage-registry/internal/certificate/models"
	id "marriage-registry/pkg/domain"
)

// InMemoryStore keeps certificates in process. It is safe for concurrent use
// and enforces the same canonical-number uniqueness as the database.
type InMemoryStore struct {
	mu          sync.RWMutex
	byID        map[id.CertificateID]*models.Certificate
	byCanonical map[string]id.CertificateID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:        make(map[id.CertificateID]*models.Certificate),
		byCanonical: make(map[string]id.CertificateID),
	}
}

// Save inserts a new certificate.
func (s *InMemoryStore) Save(_ context.Context, c *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.byCanonical[c.CanonicalNumber]; ok {
		return ErrDuplicate
	}
	s.byID[c.ID] = clone(c)
	s.byCanonical[c.CanonicalNumber] = c.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, certID id.CertificateID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[certID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemoryStore) FindByCanonical(_ context.Context, canonical string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	certID, ok := s.byCanonical[canonical]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s.byID[certID]), nil
}

// Revoke records the revocation carried by c, but only while the stored
// certificate is still active. Everything except the revocation fields is
// left as stored.
func (s *InMemoryStore) Revoke(_ context.Context, c *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[c.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.IsRevoked() {
		return ErrAlreadyRevoked
	}
	updated := clone(existing)
	updated.Status = models.StatusRevoked
	updated.RevocationReason = c.RevocationReason
	if c.RevokedAt != nil {
		at := *c.RevokedAt
		updated.RevokedAt = &at
	}
	s.byID[c.ID] = updated
	return nil
}

// List returns certificates ordered by registration time, oldest first, along
// with the total count.
func (s *InMemoryStore) List(_ context.Context, offset, limit int) ([]*models.Certificate, int, error) {
	s.mu.RLock()
	all := make([]*models.Certificate, 0, len(s.byID))
	for _, c := range s.byID {
		all = append(all, c)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].RegisteredAt.Equal(all[j].RegisteredAt) {
			return all[i].RegisteredAt.Before(all[j].RegisteredAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	total := len(all)
	if offset >= total {
		return []*models.Certificate{}, total, nil
	}
	end := min(offset+limit, total)
	page := make([]*models.Certificate, 0, end-offset)
	for _, c := range all[offset:end] {
		page = append(page, clone(c))
	}
	return page, total, nil
}

func clone(c *models.Certificate) *models.Certificate {
	cp := *c
	if c.RevokedAt != nil {
		t := *c.RevokedAt
		cp.RevokedAt = &t
	}
	return &cp
}
