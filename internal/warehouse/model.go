package warehouse

import "time"

// Customer is a row of the customers dimension. CustomerID is unique per row;
// CustomerUniqueID identifies the person and may repeat.
type Customer struct {
	CustomerID       string  `parquet:"customer_id"`
	CustomerUniqueID string  `parquet:"customer_unique_id"`
	ZipPrefix        *int64  `parquet:"zip_prefix,optional"`
	City             *string `parquet:"city,optional"`
	State            *string `parquet:"state,optional"`
	GeoCity          *string `parquet:"geo_city,optional"`
	GeoState         *string `parquet:"geo_state,optional"`
}

func (c Customer) Values() []any {
	return []any{c.CustomerID, c.CustomerUniqueID, c.ZipPrefix, c.City, c.State, c.GeoCity, c.GeoState}
}

// Product is a row of the products dimension.
type Product struct {
	ProductID    string   `parquet:"product_id"`
	CategoryName *string  `parquet:"product_category_name,optional"`
	CategoryEN   *string  `parquet:"category_en,optional"`
	WeightG      *float64 `parquet:"product_weight_g,optional"`
	LengthCm     *float64 `parquet:"product_length_cm,optional"`
	HeightCm     *float64 `parquet:"product_height_cm,optional"`
	WidthCm      *float64 `parquet:"product_width_cm,optional"`
}

func (p Product) Values() []any {
	return []any{p.ProductID, p.CategoryName, p.CategoryEN, p.WeightG, p.LengthCm, p.HeightCm, p.WidthCm}
}

// Seller is a row of the sellers dimension.
type Seller struct {
	SellerID  string  `parquet:"seller_id"`
	ZipPrefix *int64  `parquet:"seller_zip_code_prefix,optional"`
	City      *string `parquet:"seller_city,optional"`
	State     *string `parquet:"seller_state,optional"`
}

func (s Seller) Values() []any {
	return []any{s.SellerID, s.ZipPrefix, s.City, s.State}
}

// Order is a row of the orders fact. Aggregate fields are nil when the order
// has no items or no payments.
type Order struct {
	OrderID               string     `parquet:"order_id"`
	CustomerID            string     `parquet:"customer_id"`
	Status                *string    `parquet:"order_status,optional"`
	PurchasedAt           *time.Time `parquet:"purchased_at,optional"`
	ApprovedAt            *time.Time `parquet:"approved_at,optional"`
	DeliveredToCarrierAt  *time.Time `parquet:"delivered_to_carrier_at,optional"`
	DeliveredToCustomerAt *time.Time `parquet:"delivered_to_customer_at,optional"`
	EstimatedDeliveryAt   *time.Time `parquet:"estimated_delivery_at,optional"`

	ItemsCount   *int64   `parquet:"items_count,optional"`
	ProductCount *int64   `parquet:"product_count,optional"`
	FreightTotal *float64 `parquet:"freight_total,optional"`
	ItemValue    *float64 `parquet:"item_value,optional"`
	OrderValue   *float64 `parquet:"order_value,optional"`

	PaymentType         *string  `parquet:"payment_type,optional"`
	PaymentInstallments *int64   `parquet:"payment_installments,optional"`
	PaymentValue        *float64 `parquet:"payment_value,optional"`
	PaymentValueTotal   *float64 `parquet:"payment_value_total,optional"`
	PaymentMethods      *int64   `parquet:"payment_methods,optional"`
}

func (o Order) Values() []any {
	return []any{
		o.OrderID, o.CustomerID, o.Status,
		o.PurchasedAt, o.ApprovedAt, o.DeliveredToCarrierAt, o.DeliveredToCustomerAt, o.EstimatedDeliveryAt,
		o.ItemsCount, o.ProductCount, o.FreightTotal, o.ItemValue, o.OrderValue,
		o.PaymentType, o.PaymentInstallments, o.PaymentValue, o.PaymentValueTotal, o.PaymentMethods,
	}
}

// OrderItem is a row of the order_items fact, one per (order_id, order_item_id).
type OrderItem struct {
	OrderID           string     `parquet:"order_id"`
	OrderItemID       int64      `parquet:"order_item_id"`
	ProductID         string     `parquet:"product_id"`
	SellerID          string     `parquet:"seller_id"`
	ShippingLimitDate *time.Time `parquet:"shipping_limit_date,optional"`
	Price             float64    `parquet:"price"`
	FreightValue      float64    `parquet:"freight_value"`
	ItemTotal         float64    `parquet:"item_total"`
}

func (i OrderItem) Values() []any {
	return []any{i.OrderID, i.OrderItemID, i.ProductID, i.SellerID, i.ShippingLimitDate, i.Price, i.FreightValue, i.ItemTotal}
}

// Payment is a row of the order_payments fact, one per order. Type,
// Installments and Value describe the primary payment.
type Payment struct {
	OrderID      string   `parquet:"order_id"`
	Type         *string  `parquet:"payment_type,optional"`
	Installments *int64   `parquet:"payment_installments,optional"`
	Value        *float64 `parquet:"payment_value,optional"`
	ValueTotal   float64  `parquet:"payment_value_total"`
	Methods      int64    `parquet:"payment_methods"`
}

func (p Payment) Values() []any {
	return []any{p.OrderID, p.Type, p.Installments, p.Value, p.ValueTotal, p.Methods}
}

// Segment is a row of customer_segments, keyed by CustomerUniqueID.
type Segment struct {
	CustomerUniqueID string    `parquet:"customer_unique_id"`
	RecencyDays      int64     `parquet:"recency_days"`
	Frequency        int64     `parquet:"frequency"`
	Monetary         float64   `parquet:"monetary"`
	RScore           int       `parquet:"r_score"`
	FScore           int       `parquet:"f_score"`
	MScore           int       `parquet:"m_score"`
	RFMScore         string    `parquet:"rfm_score"`
	Segment          string    `parquet:"segment"`
	SnapshotDate     time.Time `parquet:"snapshot_date,timestamp(millisecond)"`
}

func (s Segment) Values() []any {
	return []any{s.CustomerUniqueID, s.RecencyDays, s.Frequency, s.Monetary,
		s.RScore, s.FScore, s.MScore, s.RFMScore, s.Segment, s.SnapshotDate}
}
