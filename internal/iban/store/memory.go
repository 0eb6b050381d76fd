// Package store persists issued IBANs. Misses surface as sentinel.ErrNotFound
// and IBAN collisions as sentinel.ErrAlreadyUsed.
package store

import (
	"context"
	"fmt"
	"sync"

	"ibanmanager/internal/iban/models"
	id "ibanmanager/pkg/domain"
	"ibanmanager/pkg/platform/sentinel"
)

// InMemory stores IBANs in process memory for local runs and tests.
// Callers receive copies, so mutating a returned entity never changes stored state.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.IBANID]*models.IBAN
	ibanIdx map[string]id.IBANID
	order   []id.IBANID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.IBANID]*models.IBAN),
		ibanIdx: make(map[string]id.IBANID),
	}
}

func (s *InMemory) Save(_ context.Context, iban *models.IBAN) error {
	if iban == nil {
		return fmt.Errorf("iban is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ibanIdx[iban.IBAN]; exists {
		return fmt.Errorf("iban %s: %w", iban.IBAN, sentinel.ErrAlreadyUsed)
	}
	if _, exists := s.byID[iban.ID]; exists {
		return fmt.Errorf("iban id %s: %w", iban.ID, sentinel.ErrAlreadyUsed)
	}
	stored := *iban
	s.byID[iban.ID] = &stored
	s.ibanIdx[iban.IBAN] = iban.ID
	s.order = append(s.order, iban.ID)
	return nil
}

// Update replaces the mutable lifecycle fields of an existing record.
func (s *InMemory) Update(_ context.Context, iban *models.IBAN) error {
	if iban == nil {
		return fmt.Errorf("iban is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[iban.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing.Status = iban.Status
	existing.UpdatedAt = iban.UpdatedAt
	return nil
}

func (s *InMemory) FindByID(_ context.Context, ibanID id.IBANID) (*models.IBAN, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if stored, ok := s.byID[ibanID]; ok {
		out := *stored
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByIBAN(_ context.Context, iban string) (*models.IBAN, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ibanID, ok := s.ibanIdx[iban]; ok {
		out := *s.byID[ibanID]
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByDaesAccountID(_ context.Context, accountID id.AccountID) ([]*models.IBAN, error) {
	return s.filter(func(i *models.IBAN) bool { return i.DaesAccountID == accountID }), nil
}

func (s *InMemory) FindByStatus(_ context.Context, status models.Status) ([]*models.IBAN, error) {
	return s.filter(func(i *models.IBAN) bool { return i.Status == status }), nil
}

func (s *InMemory) ExistsByIBAN(_ context.Context, iban string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ibanIdx[iban]
	return ok, nil
}

// FindAll pages through records in insertion order.
func (s *InMemory) FindAll(_ context.Context, limit, offset int) ([]*models.IBAN, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.order) {
		return []*models.IBAN{}, nil
	}
	end := len(s.order)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*models.IBAN, 0, end-offset)
	for _, ibanID := range s.order[offset:end] {
		cp := *s.byID[ibanID]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) filter(match func(*models.IBAN) bool) []*models.IBAN {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.IBAN{}
	for _, ibanID := range s.order {
		stored := s.byID[ibanID]
		if match(stored) {
			cp := *stored
			out = append(out, &cp)
		}
	}
	return out
}
