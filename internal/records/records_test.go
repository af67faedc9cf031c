package records

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		outcome Outcome
	}{
		{"double", 12.5, 12.5, Parsed},
		{"int32", int32(7), 7, Parsed},
		{"int64", int64(9), 9, Parsed},
		{"string", " 3.25 ", 3.25, Parsed},
		{"nil", nil, 0, Missing},
		{"nan", math.NaN(), 0, Missing},
		{"empty string", "", 0, Missing},
		{"garbage", "abc", 0, Invalid},
		{"bool", true, 0, Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := Float(tt.in)
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.want, got.OrElse(0))
		})
	}
}

func TestInt(t *testing.T) {
	got, outcome := Int(14409.0)
	assert.Equal(t, Parsed, outcome)
	assert.Equal(t, int64(14409), got.MustGet())

	got, outcome = Int("01310")
	assert.Equal(t, Parsed, outcome)
	assert.Equal(t, int64(1310), got.MustGet())

	_, outcome = Int(1.5)
	assert.Equal(t, Invalid, outcome)

	_, outcome = Int(nil)
	assert.Equal(t, Missing, outcome)
}

func TestInt_Range(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		outcome Outcome
	}{
		{name: "float beyond int64", in: 1e19, outcome: Invalid},
		{name: "negative float beyond int64", in: -1e19, outcome: Invalid},
		{name: "2^63 exactly", in: math.Exp2(63), outcome: Invalid},
		{name: "infinity", in: math.Inf(1), outcome: Invalid},
		{name: "large int64 string", in: "99999999999", want: 99999999999, outcome: Parsed},
		{name: "max int64", in: int64(math.MaxInt64), want: math.MaxInt64, outcome: Parsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := Int(tt.in)
			assert.Equal(t, tt.outcome, outcome)
			if tt.outcome == Parsed {
				assert.Equal(t, tt.want, got.MustGet())
			} else {
				assert.True(t, got.IsAbsent())
			}
		})
	}
}

func TestInt32(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		outcome Outcome
	}{
		{name: "zip prefix", in: "01310", want: 1310, outcome: Parsed},
		{name: "max int32", in: int64(math.MaxInt32), want: math.MaxInt32, outcome: Parsed},
		{name: "min int32", in: float64(math.MinInt32), want: math.MinInt32, outcome: Parsed},
		{name: "above int32", in: "99999999999", outcome: Invalid},
		{name: "below int32", in: int64(math.MinInt32) - 1, outcome: Invalid},
		{name: "beyond int64", in: 1e19, outcome: Invalid},
		{name: "missing", in: nil, outcome: Missing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := Int32(tt.in)
			assert.Equal(t, tt.outcome, outcome)
			if tt.outcome == Parsed {
				assert.Equal(t, tt.want, got.MustGet())
			} else {
				assert.True(t, got.IsAbsent())
			}
		})
	}
}

func TestDecodeCustomers_OversizedZipIsNull(t *testing.T) {
	report := NewReport()
	got, err := DecodeCustomers([]map[string]any{
		{"customer_id": "c1", "customer_unique_id": "u1", "customer_zip_code_prefix": "99999999999"},
	}, report)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].ZipPrefix)
	assert.Equal(t, 1, report.Get("customers.customer_zip_code_prefix").Invalid)
}

func TestTime(t *testing.T) {
	want := time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC)

	got, outcome := Time("2017-10-02 10:56:33")
	require.Equal(t, Parsed, outcome)
	assert.True(t, want.Equal(got.MustGet()))

	got, outcome = Time(primitive.NewDateTimeFromTime(want))
	require.Equal(t, Parsed, outcome)
	assert.True(t, want.Equal(got.MustGet()))

	_, outcome = Time("not a date")
	assert.Equal(t, Invalid, outcome)

	_, outcome = Time(math.NaN())
	assert.Equal(t, Missing, outcome)
}

func TestDecodeOrders_RecordsOutcomes(t *testing.T) {
	docs := []map[string]any{
		{
			"order_id":                 "o1",
			"customer_id":              "c1",
			"order_status":             "delivered",
			"order_purchase_timestamp": "2018-01-01 10:00:00",
			"order_approved_at":        "garbage",
		},
	}
	report := NewReport()

	orders, err := DecodeOrders(docs, report)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "o1", o.OrderID)
	require.NotNil(t, o.PurchasedAt)
	assert.Nil(t, o.ApprovedAt)
	assert.Nil(t, o.DeliveredCustomerAt)

	assert.Equal(t, 1, report.Get("orders.order_approved_at").Invalid)
	assert.Equal(t, 1, report.Get("orders.order_delivered_customer_date").Missing)
	assert.Equal(t, 1, report.Get("orders.order_purchase_timestamp").Parsed)
}

func TestDecodeItems_MissingKey(t *testing.T) {
	docs := []map[string]any{
		{"order_id": "o1", "product_id": "p1", "seller_id": "s1", "price": 10.0},
	}
	_, err := DecodeItems(docs, NewReport())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingKey))
	assert.Contains(t, err.Error(), "order_item_id")
}

func TestDecodeCustomers(t *testing.T) {
	docs := []map[string]any{
		{
			"customer_id":              "c1",
			"customer_unique_id":       "u1",
			"customer_zip_code_prefix": int32(14409),
			"customer_city":            "franca",
			"customer_state":           "SP",
		},
	}
	customers, err := DecodeCustomers(docs, nil)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, int64(14409), *customers[0].ZipPrefix)
	assert.Equal(t, "SP", *customers[0].State)
}

func TestReport_LogValueSkipsCleanFields(t *testing.T) {
	r := NewReport()
	r.Record("orders.order_id", Parsed)
	r.Record("orders.order_approved_at", Missing)

	v := r.LogValue()
	attrs := v.Group()
	require.Len(t, attrs, 1)
	assert.Equal(t, "orders.order_approved_at", attrs[0].Key)
}
