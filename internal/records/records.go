// Package records holds the typed form of the staged documents and the
// explicit coercion step that produces them from loosely typed input.
package records

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingKey is returned when a document lacks an identifier the
// warehouse cannot do without.
var ErrMissingKey = errors.New("missing required key")

// Customer is one row of the customers collection.
type Customer struct {
	CustomerID       string
	CustomerUniqueID string
	ZipPrefix        *int64
	City             *string
	State            *string
}

// Order is one row of the orders collection.
type Order struct {
	OrderID             string
	CustomerID          string
	Status              *string
	PurchasedAt         *time.Time
	ApprovedAt          *time.Time
	DeliveredCarrierAt  *time.Time
	DeliveredCustomerAt *time.Time
	EstimatedDeliveryAt *time.Time
}

// Item is one row of the items collection. Price and FreightValue stay
// nullable here; the fact builder rejects rows where either is missing.
type Item struct {
	OrderID           string
	OrderItemID       int64
	ProductID         string
	SellerID          string
	ShippingLimitDate *time.Time
	Price             *float64
	FreightValue      *float64
}

// Payment is one row of the payments collection.
type Payment struct {
	OrderID      string
	Sequential   *int64
	Type         *string
	Installments *int64
	Value        *float64
}

// Product is one row of the products collection, limited to the columns the
// warehouse keeps.
type Product struct {
	ProductID    string
	CategoryName *string
	WeightG      *float64
	LengthCm     *float64
	HeightCm     *float64
	WidthCm      *float64
}

// Seller is one row of the sellers collection.
type Seller struct {
	SellerID  string
	ZipPrefix *int64
	City      *string
	State     *string
}

// Geolocation is one row of the geolocation collection. Many rows share a prefix.
type Geolocation struct {
	ZipPrefix *int64
	City      *string
	State     *string
}

// CategoryTranslation maps a source category name to its English name.
type CategoryTranslation struct {
	CategoryName        string
	CategoryNameEnglish *string
}

// decoder reads typed fields out of one document and records every outcome.
type decoder struct {
	entity string
	doc    map[string]any
	report *Report
}

func (d decoder) key(field string) string { return d.entity + "." + field }

func (d decoder) str(field string) *string {
	v, outcome := String(d.doc[field])
	d.report.Record(d.key(field), outcome)
	return ptr(v)
}

// integer decodes fields stored in INTEGER columns.
func (d decoder) integer(field string) *int64 {
	v, outcome := Int32(d.doc[field])
	d.report.Record(d.key(field), outcome)
	return ptr(v)
}

func (d decoder) number(field string) *float64 {
	v, outcome := Float(d.doc[field])
	d.report.Record(d.key(field), outcome)
	return ptr(v)
}

func (d decoder) timestamp(field string) *time.Time {
	v, outcome := Time(d.doc[field])
	d.report.Record(d.key(field), outcome)
	return ptr(v)
}

func (d decoder) requiredStr(field string) (string, error) {
	if s := d.str(field); s != nil {
		return *s, nil
	}
	return "", fmt.Errorf("%s: %w %q", d.entity, ErrMissingKey, field)
}

func (d decoder) requiredInt(field string) (int64, error) {
	if n := d.integer(field); n != nil {
		return *n, nil
	}
	return 0, fmt.Errorf("%s: %w %q", d.entity, ErrMissingKey, field)
}

func decodeAll[T any](entity string, docs []map[string]any, report *Report, fn func(decoder) (T, error)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for i, doc := range docs {
		rec, err := fn(decoder{entity: entity, doc: doc, report: report})
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeCustomers converts customers documents.
func DecodeCustomers(docs []map[string]any, report *Report) ([]Customer, error) {
	return decodeAll("customers", docs, report, func(d decoder) (Customer, error) {
		id, err := d.requiredStr("customer_id")
		if err != nil {
			return Customer{}, err
		}
		uid, err := d.requiredStr("customer_unique_id")
		if err != nil {
			return Customer{}, err
		}
		return Customer{
			CustomerID:       id,
			CustomerUniqueID: uid,
			ZipPrefix:        d.integer("customer_zip_code_prefix"),
			City:             d.str("customer_city"),
			State:            d.str("customer_state"),
		}, nil
	})
}

// DecodeOrders converts orders documents.
func DecodeOrders(docs []map[string]any, report *Report) ([]Order, error) {
	return decodeAll("orders", docs, report, func(d decoder) (Order, error) {
		id, err := d.requiredStr("order_id")
		if err != nil {
			return Order{}, err
		}
		customerID, err := d.requiredStr("customer_id")
		if err != nil {
			return Order{}, err
		}
		return Order{
			OrderID:             id,
			CustomerID:          customerID,
			Status:              d.str("order_status"),
			PurchasedAt:         d.timestamp("order_purchase_timestamp"),
			ApprovedAt:          d.timestamp("order_approved_at"),
			DeliveredCarrierAt:  d.timestamp("order_delivered_carrier_date"),
			DeliveredCustomerAt: d.timestamp("order_delivered_customer_date"),
			EstimatedDeliveryAt: d.timestamp("order_estimated_delivery_date"),
		}, nil
	})
}

// DecodeItems converts items documents.
func DecodeItems(docs []map[string]any, report *Report) ([]Item, error) {
	return decodeAll("items", docs, report, func(d decoder) (Item, error) {
		orderID, err := d.requiredStr("order_id")
		if err != nil {
			return Item{}, err
		}
		itemID, err := d.requiredInt("order_item_id")
		if err != nil {
			return Item{}, err
		}
		productID, err := d.requiredStr("product_id")
		if err != nil {
			return Item{}, err
		}
		sellerID, err := d.requiredStr("seller_id")
		if err != nil {
			return Item{}, err
		}
		return Item{
			OrderID:           orderID,
			OrderItemID:       itemID,
			ProductID:         productID,
			SellerID:          sellerID,
			ShippingLimitDate: d.timestamp("shipping_limit_date"),
			Price:             d.number("price"),
			FreightValue:      d.number("freight_value"),
		}, nil
	})
}

// DecodePayments converts payments documents.
func DecodePayments(docs []map[string]any, report *Report) ([]Payment, error) {
	return decodeAll("payments", docs, report, func(d decoder) (Payment, error) {
		orderID, err := d.requiredStr("order_id")
		if err != nil {
			return Payment{}, err
		}
		return Payment{
			OrderID:      orderID,
			Sequential:   d.integer("payment_sequential"),
			Type:         d.str("payment_type"),
			Installments: d.integer("payment_installments"),
			Value:        d.number("payment_value"),
		}, nil
	})
}

// DecodeProducts converts products documents.
func DecodeProducts(docs []map[string]any, report *Report) ([]Product, error) {
	return decodeAll("products", docs, report, func(d decoder) (Product, error) {
		id, err := d.requiredStr("product_id")
		if err != nil {
			return Product{}, err
		}
		return Product{
			ProductID:    id,
			CategoryName: d.str("product_category_name"),
			WeightG:      d.number("product_weight_g"),
			LengthCm:     d.number("product_length_cm"),
			HeightCm:     d.number("product_height_cm"),
			WidthCm:      d.number("product_width_cm"),
		}, nil
	})
}

// DecodeSellers converts sellers documents.
func DecodeSellers(docs []map[string]any, report *Report) ([]Seller, error) {
	return decodeAll("sellers", docs, report, func(d decoder) (Seller, error) {
		id, err := d.requiredStr("seller_id")
		if err != nil {
			return Seller{}, err
		}
		return Seller{
			SellerID:  id,
			ZipPrefix: d.integer("seller_zip_code_prefix"),
			City:      d.str("seller_city"),
			State:     d.str("seller_state"),
		}, nil
	})
}

// DecodeGeolocations converts geolocation documents.
func DecodeGeolocations(docs []map[string]any, report *Report) ([]Geolocation, error) {
	return decodeAll("geolocation", docs, report, func(d decoder) (Geolocation, error) {
		return Geolocation{
			ZipPrefix: d.integer("geolocation_zip_code_prefix"),
			City:      d.str("geolocation_city"),
			State:     d.str("geolocation_state"),
		}, nil
	})
}

// DecodeCategoryTranslations converts category_translation documents.
func DecodeCategoryTranslations(docs []map[string]any, report *Report) ([]CategoryTranslation, error) {
	return decodeAll("category_translation", docs, report, func(d decoder) (CategoryTranslation, error) {
		name, err := d.requiredStr("product_category_name")
		if err != nil {
			return CategoryTranslation{}, err
		}
		return CategoryTranslation{
			CategoryName:        name,
			CategoryNameEnglish: d.str("product_category_name_english"),
		}, nil
	})
}
