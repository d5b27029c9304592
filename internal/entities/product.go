package entities

import "github.com/shopspring/decimal"

// Product is the read-only catalog view this core consumes.
// Catalog management lives elsewhere; orders never write products.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Published bool
}
