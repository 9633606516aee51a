package catalog

import (
	"fmt"
	"sync"
)

// Store keeps the product catalog in memory. All methods are safe for
// concurrent use and listing preserves insertion order.
type Store struct {
	mu       sync.RWMutex
	products []*Product
	index    map[string]*Product
}

// NewStore returns an empty catalog store.
func NewStore() *Store {
	return &Store{index: make(map[string]*Product)}
}

func validate(p Product) error {
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// List returns a copy of every product in insertion order.
func (s *Store) List() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out
}

// Get returns the product with the given id.
func (s *Store) Get(id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.index[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return *p, nil
}

// Add inserts a new product. The id must be unique.
func (s *Store) Add(p Product) error {
	if err := validate(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[p.ID]; ok {
		return ErrAlreadyExists
	}
	cp := p
	s.products = append(s.products, &cp)
	s.index[cp.ID] = &cp
	return nil
}

// Update replaces an existing product, keeping its position in the list.
func (s *Store) Update(p Product) error {
	if err := validate(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.index[p.ID]
	if !ok {
		return ErrNotFound
	}
	*existing = p
	return nil
}

// Delete removes a product by id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; !ok {
		return ErrNotFound
	}
	delete(s.index, id)
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			break
		}
	}
	return nil
}

// Reset drops every product.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = nil
	s.index = make(map[string]*Product)
}

// Deduct applies a set of stock decrements as one unit. Either every line is
// applied or none: a missing product or a quantity above the current stock
// leaves the catalog untouched.
func (s *Store) Deduct(items []Deduction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		p, ok := s.index[it.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, it.ProductID)
		}
		if it.Quantity > p.Stock {
			return fmt.Errorf("%w: %s", ErrStockExceeded, p.Name)
		}
	}
	for _, it := range items {
		s.index[it.ProductID].Stock -= it.Quantity
	}
	return nil
}

// Restock reverses a previous Deduct. Used to compensate a settlement that
// failed after stock was already taken.
func (s *Store) Restock(items []Deduction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if p, ok := s.index[it.ProductID]; ok {
			p.Stock += it.Quantity
		}
	}
}

// Snapshot returns the full catalog for persistence.
func (s *Store) Snapshot() []Product {
	return s.List()
}

// Restore replaces the catalog with the given products, preserving order.
func (s *Store) Restore(products []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make([]*Product, 0, len(products))
	s.index = make(map[string]*Product, len(products))
	for _, p := range products {
		cp := p
		s.products = append(s.products, &cp)
		s.index[cp.ID] = &cp
	}
}
