package ledger

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the payer does not exist.
	ErrNotFound = errors.New("ledger: payer not found")
	// ErrAlreadyExists indicates a duplicate payer id.
	ErrAlreadyExists = errors.New("ledger: payer already exists")
	// ErrInvalidBalance indicates a negative balance or debt.
	ErrInvalidBalance = errors.New("ledger: balance must not be negative")
	// ErrInsufficientFunds indicates a charge larger than the client balance.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
)

// PayerType distinguishes prepaid clients from personnel with accrued debt.
type PayerType string

const (
	PayerClient    PayerType = "client"
	PayerPersonnel PayerType = "personnel"
)

// PayerRef identifies the payer selected for a sale.
type PayerRef struct {
	ID   string    `json:"id"`
	Type PayerType `json:"type"`
}

// Client is a customer with a prepaid balance.
type Client struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Balance float64        `json:"balance"`
	History []*Transaction `json:"history"`
}

// Personnel is a staff member whose purchases accrue as debt.
type Personnel struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	OwedBalance float64        `json:"owed_balance"`
	History     []*Transaction `json:"history"`
}

// TransactionLine snapshots one cart line at sale time.
type TransactionLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Transaction is an immutable record of a committed sale. The global log and
// the payer history reference the same record.
type Transaction struct {
	ID        string            `json:"id"`
	Date      time.Time         `json:"date"`
	PayerID   string            `json:"payer_id"`
	PayerName string            `json:"payer_name"`
	PayerType PayerType         `json:"payer_type"`
	Lines     []TransactionLine `json:"lines"`
	Total     float64           `json:"total"`
}

// StatCategory classifies an audit trail entry.
type StatCategory string

const (
	StatPurchase        StatCategory = "purchase"
	StatProductUpdate   StatCategory = "product_update"
	StatClientUpdate    StatCategory = "client_update"
	StatPersonnelUpdate StatCategory = "personnel_update"
)

// Statistic is a free-text audit entry, independent of the transaction log.
type Statistic struct {
	ID       string       `json:"id"`
	Date     time.Time    `json:"date"`
	Category StatCategory `json:"category"`
	Details  string       `json:"details"`
}
