package ledger

import (
	"fmt"
	"sync"
)

// Store keeps clients, personnel, the global transaction log and the audit
// trail in memory. A single lock covers every collection so a charge mutates
// the balance, the payer history and the log as one step.
type Store struct {
	mu           sync.RWMutex
	clients      []*Client
	clientIdx    map[string]*Client
	personnel    []*Personnel
	personnelIdx map[string]*Personnel
	log          []*Transaction
	statistics   []Statistic
}

// NewStore returns an empty ledger store.
func NewStore() *Store {
	return &Store{
		clientIdx:    make(map[string]*Client),
		personnelIdx: make(map[string]*Personnel),
	}
}

// ============================================================================
// CLIENTS
// ============================================================================

// Clients returns a copy of every client in insertion order.
func (s *Store) Clients() []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, *c)
	}
	return out
}

// GetClient returns the client with the given id.
func (s *Store) GetClient(id string) (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clientIdx[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return *c, nil
}

// AddClient inserts a new client. The id must be unique.
func (s *Store) AddClient(c Client) error {
	if c.Balance < 0 {
		return ErrInvalidBalance
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clientIdx[c.ID]; ok {
		return ErrAlreadyExists
	}
	cp := c
	s.clients = append(s.clients, &cp)
	s.clientIdx[cp.ID] = &cp
	return nil
}

// UpdateClient replaces name and balance of an existing client. The history
// is owned by the store and never replaced through an update.
func (s *Store) UpdateClient(c Client) error {
	if c.Balance < 0 {
		return ErrInvalidBalance
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.clientIdx[c.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = c.Name
	existing.Balance = c.Balance
	return nil
}

// DeleteClient removes a client by id.
func (s *Store) DeleteClient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clientIdx[id]; !ok {
		return ErrNotFound
	}
	delete(s.clientIdx, id)
	for i, c := range s.clients {
		if c.ID == id {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			break
		}
	}
	return nil
}

// ResetClients drops every client.
func (s *Store) ResetClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = nil
	s.clientIdx = make(map[string]*Client)
}

// ============================================================================
// PERSONNEL
// ============================================================================

// Personnel returns a copy of every staff member in insertion order.
func (s *Store) Personnel() []Personnel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Personnel, 0, len(s.personnel))
	for _, p := range s.personnel {
		out = append(out, *p)
	}
	return out
}

// GetPersonnel returns the staff member with the given id.
func (s *Store) GetPersonnel(id string) (Personnel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.personnelIdx[id]
	if !ok {
		return Personnel{}, ErrNotFound
	}
	return *p, nil
}

// AddPersonnel inserts a new staff member. The id must be unique.
func (s *Store) AddPersonnel(p Personnel) error {
	if p.OwedBalance < 0 {
		return ErrInvalidBalance
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.personnelIdx[p.ID]; ok {
		return ErrAlreadyExists
	}
	cp := p
	s.personnel = append(s.personnel, &cp)
	s.personnelIdx[cp.ID] = &cp
	return nil
}

// UpdatePersonnel replaces name and owed balance of an existing staff member.
func (s *Store) UpdatePersonnel(p Personnel) error {
	if p.OwedBalance < 0 {
		return ErrInvalidBalance
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.personnelIdx[p.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = p.Name
	existing.OwedBalance = p.OwedBalance
	return nil
}

// DeletePersonnel removes a staff member by id.
func (s *Store) DeletePersonnel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.personnelIdx[id]; !ok {
		return ErrNotFound
	}
	delete(s.personnelIdx, id)
	for i, p := range s.personnel {
		if p.ID == id {
			s.personnel = append(s.personnel[:i], s.personnel[i+1:]...)
			break
		}
	}
	return nil
}

// ResetPersonnel drops every staff member.
func (s *Store) ResetPersonnel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personnel = nil
	s.personnelIdx = make(map[string]*Personnel)
}

// ============================================================================
// PAYERS & CHARGES
// ============================================================================

// PayerInfo resolves the name and current balance (or debt) of a payer.
func (s *Store) PayerInfo(ref PayerRef) (name string, balance float64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch ref.Type {
	case PayerClient:
		c, ok := s.clientIdx[ref.ID]
		if !ok {
			return "", 0, ErrNotFound
		}
		return c.Name, c.Balance, nil
	case PayerPersonnel:
		p, ok := s.personnelIdx[ref.ID]
		if !ok {
			return "", 0, ErrNotFound
		}
		return p.Name, p.OwedBalance, nil
	default:
		return "", 0, fmt.Errorf("%w: unknown payer type %q", ErrNotFound, ref.Type)
	}
}

// ApplyCharge commits a settled transaction: the client balance decreases (or
// the personnel debt increases) by tx.Total, and the record is appended to
// both the payer history and the global log under one lock. The returned
// amount is the balance or debt after the charge.
func (s *Store) ApplyCharge(ref PayerRef, tx *Transaction) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ref.Type {
	case PayerClient:
		c, ok := s.clientIdx[ref.ID]
		if !ok {
			return 0, ErrNotFound
		}
		if c.Balance < tx.Total {
			return 0, ErrInsufficientFunds
		}
		c.Balance -= tx.Total
		c.History = append(c.History, tx)
		s.log = append(s.log, tx)
		return c.Balance, nil
	case PayerPersonnel:
		p, ok := s.personnelIdx[ref.ID]
		if !ok {
			return 0, ErrNotFound
		}
		p.OwedBalance += tx.Total
		p.History = append(p.History, tx)
		s.log = append(s.log, tx)
		return p.OwedBalance, nil
	default:
		return 0, fmt.Errorf("%w: unknown payer type %q", ErrNotFound, ref.Type)
	}
}

// Transactions returns the global log in append order.
func (s *Store) Transactions() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, 0, len(s.log))
	for _, tx := range s.log {
		out = append(out, *tx)
	}
	return out
}

// ============================================================================
// STATISTICS
// ============================================================================

// AppendStatistic records an audit trail entry.
func (s *Store) AppendStatistic(stat Statistic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statistics = append(s.statistics, stat)
}

// Statistics returns the audit trail in append order.
func (s *Store) Statistics() []Statistic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Statistic, len(s.statistics))
	copy(out, s.statistics)
	return out
}

// ResetStatistics drops the audit trail.
func (s *Store) ResetStatistics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statistics = nil
}
