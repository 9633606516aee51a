package catalog

import "errors"

var (
	// ErrNotFound indicates the product does not exist.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrAlreadyExists indicates a duplicate product id.
	ErrAlreadyExists = errors.New("catalog: product already exists")
	// ErrInvalidPrice indicates a negative price.
	ErrInvalidPrice = errors.New("catalog: price must not be negative")
	// ErrInvalidStock indicates a negative stock count.
	ErrInvalidStock = errors.New("catalog: stock must not be negative")
	// ErrStockExceeded indicates a requested quantity above the available stock.
	ErrStockExceeded = errors.New("catalog: requested quantity exceeds available stock")
)

// Product is a catalog entry sold through the storefront.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	ImageURL string  `json:"image_url"`
}

// Deduction describes one stock decrement applied during settlement.
type Deduction struct {
	ProductID string
	Quantity  int
}
