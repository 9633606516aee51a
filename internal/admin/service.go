package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bodega-pos/bodega/internal/catalog"
	"github.com/bodega-pos/bodega/internal/ledger"
)

// PersistHook is called after every administrative mutation so the snapshot
// boundary sees each state transition.
type PersistHook interface {
	Persist(ctx context.Context)
}

// Service exposes catalog and ledger administration. Every mutation appends a
// statistic record describing the action and pushes a snapshot.
type Service struct {
	catalog *catalog.Store
	ledger  *ledger.Store
	persist PersistHook
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewService builds the administration service.
func NewService(cat *catalog.Store, led *ledger.Store, persist PersistHook, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog: cat,
		ledger:  led,
		persist: persist,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Service) record(ctx context.Context, category ledger.StatCategory, details string) {
	s.ledger.AppendStatistic(ledger.Statistic{
		ID:       s.newID(),
		Date:     s.now(),
		Category: category,
		Details:  details,
	})
	if s.persist != nil {
		s.persist.Persist(ctx)
	}
}

// ============================================================================
// PRODUCTS
// ============================================================================

// ProductInput carries the editable product fields.
type ProductInput struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Price    float64 `json:"price" validate:"gte=0"`
	Stock    int     `json:"stock" validate:"gte=0"`
	ImageURL string  `json:"image_url" validate:"omitempty,max=500"`
}

// ListProducts returns the catalog.
func (s *Service) ListProducts(ctx context.Context) []catalog.Product {
	return s.catalog.List()
}

// CreateProduct adds a catalog entry.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (catalog.Product, error) {
	p := catalog.Product{
		ID:       s.newID(),
		Name:     in.Name,
		Price:    in.Price,
		Stock:    in.Stock,
		ImageURL: in.ImageURL,
	}
	if err := s.catalog.Add(p); err != nil {
		return catalog.Product{}, fmt.Errorf("admin: create product: %w", err)
	}
	s.record(ctx, ledger.StatProductUpdate, fmt.Sprintf("Producto agregado: %s", p.Name))
	return p, nil
}

// UpdateProduct replaces a catalog entry.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (catalog.Product, error) {
	p := catalog.Product{
		ID:       id,
		Name:     in.Name,
		Price:    in.Price,
		Stock:    in.Stock,
		ImageURL: in.ImageURL,
	}
	if err := s.catalog.Update(p); err != nil {
		return catalog.Product{}, fmt.Errorf("admin: update product: %w", err)
	}
	s.record(ctx, ledger.StatProductUpdate, fmt.Sprintf("Producto actualizado: %s", p.Name))
	return p, nil
}

// DeleteProduct removes a catalog entry.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.catalog.Get(id)
	if err != nil {
		return err
	}
	if err := s.catalog.Delete(id); err != nil {
		return err
	}
	s.record(ctx, ledger.StatProductUpdate, fmt.Sprintf("Producto eliminado: %s", p.Name))
	return nil
}

// ResetProducts drops the whole catalog.
func (s *Service) ResetProducts(ctx context.Context) {
	s.catalog.Reset()
	s.record(ctx, ledger.StatProductUpdate, "Base de datos de productos reiniciada")
}

// ImportProducts adds each record independently; one bad record does not
// abort the batch.
func (s *Service) ImportProducts(ctx context.Context, inputs []ProductInput) (int, error) {
	added := 0
	for _, in := range inputs {
		p := catalog.Product{
			ID:       s.newID(),
			Name:     in.Name,
			Price:    in.Price,
			Stock:    in.Stock,
			ImageURL: in.ImageURL,
		}
		if err := s.catalog.Add(p); err != nil {
			s.logger.Warn("import product skipped", slog.String("name", in.Name), slog.Any("error", err))
			continue
		}
		added++
	}
	s.record(ctx, ledger.StatProductUpdate, fmt.Sprintf("Importación de productos: %d productos", added))
	return added, nil
}

// ============================================================================
// CLIENTS
// ============================================================================

// ClientInput carries the editable client fields.
type ClientInput struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Balance float64 `json:"balance" validate:"gte=0"`
}

// ListClients returns every client.
func (s *Service) ListClients(ctx context.Context) []ledger.Client {
	return s.ledger.Clients()
}

// GetClient returns one client with its history.
func (s *Service) GetClient(ctx context.Context, id string) (ledger.Client, error) {
	return s.ledger.GetClient(id)
}

// CreateClient adds a client.
func (s *Service) CreateClient(ctx context.Context, in ClientInput) (ledger.Client, error) {
	c := ledger.Client{ID: s.newID(), Name: in.Name, Balance: in.Balance}
	if err := s.ledger.AddClient(c); err != nil {
		return ledger.Client{}, fmt.Errorf("admin: create client: %w", err)
	}
	s.record(ctx, ledger.StatClientUpdate, fmt.Sprintf("Cliente agregado: %s", c.Name))
	return c, nil
}

// UpdateClient replaces name and balance of a client.
func (s *Service) UpdateClient(ctx context.Context, id string, in ClientInput) (ledger.Client, error) {
	c := ledger.Client{ID: id, Name: in.Name, Balance: in.Balance}
	if err := s.ledger.UpdateClient(c); err != nil {
		return ledger.Client{}, fmt.Errorf("admin: update client: %w", err)
	}
	s.record(ctx, ledger.StatClientUpdate, fmt.Sprintf("Cliente actualizado: %s", c.Name))
	return s.ledger.GetClient(id)
}

// DeleteClient removes a client.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	c, err := s.ledger.GetClient(id)
	if err != nil {
		return err
	}
	if err := s.ledger.DeleteClient(id); err != nil {
		return err
	}
	s.record(ctx, ledger.StatClientUpdate, fmt.Sprintf("Cliente eliminado: %s", c.Name))
	return nil
}

// ResetClients drops every client.
func (s *Service) ResetClients(ctx context.Context) {
	s.ledger.ResetClients()
	s.record(ctx, ledger.StatClientUpdate, "Base de datos de clientes reiniciada")
}

// ImportClients adds each record independently.
func (s *Service) ImportClients(ctx context.Context, inputs []ClientInput) (int, error) {
	added := 0
	for _, in := range inputs {
		c := ledger.Client{ID: s.newID(), Name: in.Name, Balance: in.Balance}
		if err := s.ledger.AddClient(c); err != nil {
			s.logger.Warn("import client skipped", slog.String("name", in.Name), slog.Any("error", err))
			continue
		}
		added++
	}
	s.record(ctx, ledger.StatClientUpdate, fmt.Sprintf("Importación de clientes: %d clientes", added))
	return added, nil
}

// ============================================================================
// PERSONNEL
// ============================================================================

// PersonnelInput carries the editable personnel fields.
type PersonnelInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	OwedBalance float64 `json:"owed_balance" validate:"gte=0"`
}

// ListPersonnel returns every staff member.
func (s *Service) ListPersonnel(ctx context.Context) []ledger.Personnel {
	return s.ledger.Personnel()
}

// GetPersonnel returns one staff member with their history.
func (s *Service) GetPersonnel(ctx context.Context, id string) (ledger.Personnel, error) {
	return s.ledger.GetPersonnel(id)
}

// CreatePersonnel adds a staff member.
func (s *Service) CreatePersonnel(ctx context.Context, in PersonnelInput) (ledger.Personnel, error) {
	p := ledger.Personnel{ID: s.newID(), Name: in.Name, OwedBalance: in.OwedBalance}
	if err := s.ledger.AddPersonnel(p); err != nil {
		return ledger.Personnel{}, fmt.Errorf("admin: create personnel: %w", err)
	}
	s.record(ctx, ledger.StatPersonnelUpdate, fmt.Sprintf("Personal agregado: %s", p.Name))
	return p, nil
}

// UpdatePersonnel replaces name and owed balance of a staff member.
func (s *Service) UpdatePersonnel(ctx context.Context, id string, in PersonnelInput) (ledger.Personnel, error) {
	p := ledger.Personnel{ID: id, Name: in.Name, OwedBalance: in.OwedBalance}
	if err := s.ledger.UpdatePersonnel(p); err != nil {
		return ledger.Personnel{}, fmt.Errorf("admin: update personnel: %w", err)
	}
	s.record(ctx, ledger.StatPersonnelUpdate, fmt.Sprintf("Personal actualizado: %s", p.Name))
	return s.ledger.GetPersonnel(id)
}

// DeletePersonnel removes a staff member.
func (s *Service) DeletePersonnel(ctx context.Context, id string) error {
	p, err := s.ledger.GetPersonnel(id)
	if err != nil {
		return err
	}
	if err := s.ledger.DeletePersonnel(id); err != nil {
		return err
	}
	s.record(ctx, ledger.StatPersonnelUpdate, fmt.Sprintf("Personal eliminado: %s", p.Name))
	return nil
}

// ResetPersonnel drops every staff member.
func (s *Service) ResetPersonnel(ctx context.Context) {
	s.ledger.ResetPersonnel()
	s.record(ctx, ledger.StatPersonnelUpdate, "Base de datos de personal reiniciada")
}

// ImportPersonnel adds each record independently.
func (s *Service) ImportPersonnel(ctx context.Context, inputs []PersonnelInput) (int, error) {
	added := 0
	for _, in := range inputs {
		p := ledger.Personnel{ID: s.newID(), Name: in.Name, OwedBalance: in.OwedBalance}
		if err := s.ledger.AddPersonnel(p); err != nil {
			s.logger.Warn("import personnel skipped", slog.String("name", in.Name), slog.Any("error", err))
			continue
		}
		added++
	}
	s.record(ctx, ledger.StatPersonnelUpdate, fmt.Sprintf("Importación de personal: %d personal", added))
	return added, nil
}

// ============================================================================
// STATISTICS
// ============================================================================

// Statistics returns the audit trail.
func (s *Service) Statistics(ctx context.Context) []ledger.Statistic {
	return s.ledger.Statistics()
}

// ResetStatistics drops the audit trail.
func (s *Service) ResetStatistics(ctx context.Context) {
	s.ledger.ResetStatistics()
	if s.persist != nil {
		s.persist.Persist(ctx)
	}
}
