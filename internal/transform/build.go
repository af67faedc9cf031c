package transform

import (
	"fmt"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/staging"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/warehouse"
)

// Result holds every table produced by one load.
type Result struct {
	Customers  []warehouse.Customer
	Products   []warehouse.Product
	Sellers    []warehouse.Seller
	Orders     []warehouse.Order
	OrderItems []warehouse.OrderItem
	Payments   []warehouse.Payment
}

// Build runs the dimensional transforms and the fact builder over one
// staging snapshot. It is deterministic: the same snapshot always yields an
// equal Result.
func Build(s *staging.Snapshot) (*Result, error) {
	items, err := OrderItems(s.Items)
	if err != nil {
		return nil, fmt.Errorf("build order items: %w", err)
	}
	payments := Payments(s.Payments)

	return &Result{
		Customers:  Customers(s.Customers, s.Geolocations),
		Products:   Products(s.Products, s.Translations),
		Sellers:    Sellers(s.Sellers),
		Orders:     Orders(s.Orders, ItemAggregates(items), payments),
		OrderItems: items,
		Payments:   payments,
	}, nil
}

// Datasets lists the tables in publish order.
func (r *Result) Datasets() []warehouse.Dataset {
	return []warehouse.Dataset{
		warehouse.NewDataset(warehouse.CustomersTable, r.Customers),
		warehouse.NewDataset(warehouse.ProductsTable, r.Products),
		warehouse.NewDataset(warehouse.SellersTable, r.Sellers),
		warehouse.NewDataset(warehouse.OrdersTable, r.Orders),
		warehouse.NewDataset(warehouse.OrderItemsTable, r.OrderItems),
		warehouse.NewDataset(warehouse.PaymentsTable, r.Payments),
	}
}
