package transform

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/records"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/warehouse"
)

// ErrMissingAmount is returned when an item lacks its price or freight value.
var ErrMissingAmount = errors.New("missing price or freight value")

// OrderItems computes item_total = price + freight_value per item. An item
// without either amount fails the whole build.
func OrderItems(items []records.Item) ([]warehouse.OrderItem, error) {
	out := make([]warehouse.OrderItem, 0, len(items))
	for i, it := range items {
		if it.Price == nil || it.FreightValue == nil {
			return nil, fmt.Errorf("item %d (order %s, item %d): %w", i, it.OrderID, it.OrderItemID, ErrMissingAmount)
		}
		out = append(out, warehouse.OrderItem{
			OrderID:           it.OrderID,
			OrderItemID:       it.OrderItemID,
			ProductID:         it.ProductID,
			SellerID:          it.SellerID,
			ShippingLimitDate: it.ShippingLimitDate,
			Price:             *it.Price,
			FreightValue:      *it.FreightValue,
			ItemTotal:         *it.Price + *it.FreightValue,
		})
	}
	return out, nil
}

// Payments reduces payment rows to one row per order. The primary payment is
// the largest single payment; ties keep source order and missing values sort
// last. Totals skip missing values and methods counts distinct known types.
// Orders appear in the order they are first seen.
func Payments(payments []records.Payment) []warehouse.Payment {
	groups := lo.GroupBy(payments, func(p records.Payment) string { return p.OrderID })
	orderIDs := lo.Uniq(lo.Map(payments, func(p records.Payment, _ int) string { return p.OrderID }))

	return lo.Map(orderIDs, func(id string, _ int) warehouse.Payment {
		rows := groups[id]
		primary := primaryPayment(rows)

		known := lo.Filter(rows, func(p records.Payment, _ int) bool { return p.Value != nil })
		total := lo.SumBy(known, func(p records.Payment) float64 { return *p.Value })

		types := lo.FilterMap(rows, func(p records.Payment, _ int) (string, bool) {
			if p.Type == nil {
				return "", false
			}
			return *p.Type, true
		})

		return warehouse.Payment{
			OrderID:      id,
			Type:         primary.Type,
			Installments: primary.Installments,
			Value:        primary.Value,
			ValueTotal:   total,
			Methods:      int64(len(lo.Uniq(types))),
		}
	})
}

func primaryPayment(rows []records.Payment) records.Payment {
	sorted := make([]records.Payment, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Value, sorted[j].Value
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return sorted[0]
}

// ItemAggregate summarizes the items of one order.
type ItemAggregate struct {
	ItemsCount   int64
	ProductCount int64
	FreightTotal float64
	ItemValue    float64
	OrderValue   float64
}

// ItemAggregates groups order items by order_id.
func ItemAggregates(items []warehouse.OrderItem) map[string]ItemAggregate {
	groups := lo.GroupBy(items, func(it warehouse.OrderItem) string { return it.OrderID })
	return lo.MapValues(groups, func(rows []warehouse.OrderItem, _ string) ItemAggregate {
		return ItemAggregate{
			ItemsCount:   int64(len(rows)),
			ProductCount: int64(len(lo.UniqBy(rows, func(it warehouse.OrderItem) string { return it.ProductID }))),
			FreightTotal: lo.SumBy(rows, func(it warehouse.OrderItem) float64 { return it.FreightValue }),
			ItemValue:    lo.SumBy(rows, func(it warehouse.OrderItem) float64 { return it.Price }),
			OrderValue:   lo.SumBy(rows, func(it warehouse.OrderItem) float64 { return it.ItemTotal }),
		}
	})
}

// Orders assembles the order fact: every order record, left-joined to its
// item aggregate and then to its payment row. Aggregate fields stay nil for
// orders without items or payments.
func Orders(orders []records.Order, items map[string]ItemAggregate, payments []warehouse.Payment) []warehouse.Order {
	paymentsByOrder := lo.KeyBy(payments, func(p warehouse.Payment) string { return p.OrderID })

	return lo.Map(orders, func(o records.Order, _ int) warehouse.Order {
		row := warehouse.Order{
			OrderID:               o.OrderID,
			CustomerID:            o.CustomerID,
			Status:                o.Status,
			PurchasedAt:           o.PurchasedAt,
			ApprovedAt:            o.ApprovedAt,
			DeliveredToCarrierAt:  o.DeliveredCarrierAt,
			DeliveredToCustomerAt: o.DeliveredCustomerAt,
			EstimatedDeliveryAt:   o.EstimatedDeliveryAt,
		}
		if agg, ok := items[o.OrderID]; ok {
			row.ItemsCount = lo.ToPtr(agg.ItemsCount)
			row.ProductCount = lo.ToPtr(agg.ProductCount)
			row.FreightTotal = lo.ToPtr(agg.FreightTotal)
			row.ItemValue = lo.ToPtr(agg.ItemValue)
			row.OrderValue = lo.ToPtr(agg.OrderValue)
		}
		if p, ok := paymentsByOrder[o.OrderID]; ok {
			row.PaymentType = p.Type
			row.PaymentInstallments = p.Installments
			row.PaymentValue = p.Value
			row.PaymentValueTotal = lo.ToPtr(p.ValueTotal)
			row.PaymentMethods = lo.ToPtr(p.Methods)
		}
		return row
	})
}
