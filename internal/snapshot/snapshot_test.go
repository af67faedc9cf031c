package snapshot

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/parquet-go/parquet-go"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/transform"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/warehouse"
)

func sampleResult() *transform.Result {
	purchased := time.Date(2018, 2, 3, 4, 5, 6, 0, time.UTC)
	return &transform.Result{
		Customers: []warehouse.Customer{{CustomerID: "c1", CustomerUniqueID: "u1", GeoCity: lo.ToPtr("sao paulo")}},
		Products:  []warehouse.Product{{ProductID: "p1"}},
		Sellers:   []warehouse.Seller{{SellerID: "s1"}},
		Orders: []warehouse.Order{
			{OrderID: "o1", CustomerID: "c1", PurchasedAt: &purchased, OrderValue: lo.ToPtr(12.5)},
			{OrderID: "o2", CustomerID: "c1"},
		},
		OrderItems: []warehouse.OrderItem{{OrderID: "o1", OrderItemID: 1, Price: 10, FreightValue: 2.5, ItemTotal: 12.5}},
		Payments:   []warehouse.Payment{{OrderID: "o1", ValueTotal: 12.5, Methods: 1}},
	}
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "processed")
	files, err := WriteAll(dir, sampleResult())
	require.NoError(t, err)
	require.Len(t, files, 6)

	assert.Equal(t, []string{"customers", "products", "sellers", "orders", "order_items", "order_payments"},
		lo.Map(files, func(f File, _ int) string { return f.Table }))

	orders := files[3]
	assert.Equal(t, filepath.Join(dir, "orders.parquet"), orders.Path)
	assert.Equal(t, 2, orders.Rows)
	assert.Greater(t, orders.Bytes, int64(0))

	back, err := parquet.ReadFile[warehouse.Order](orders.Path)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "o1", back[0].OrderID)
	require.NotNil(t, back[0].OrderValue)
	assert.Equal(t, 12.5, *back[0].OrderValue)
	assert.Nil(t, back[1].OrderValue)
}

type fakePutter struct {
	keys   []string
	bodies map[string][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.keys = append(f.keys, key)
	f.bodies[key] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Mirror(t *testing.T) {
	files, err := WriteAll(t.TempDir(), sampleResult())
	require.NoError(t, err)

	putter := &fakePutter{bodies: map[string][]byte{}}
	mirror := NewS3MirrorWithClient(putter, "bucket", "snapshots")
	require.NoError(t, mirror.Mirror(context.Background(), "run-1", files))

	require.Len(t, putter.keys, 6)
	assert.Equal(t, "snapshots/run-1/customers.parquet", putter.keys[0])
	assert.Len(t, putter.bodies["snapshots/run-1/orders.parquet"], int(files[3].Bytes))
}

func TestS3Mirror_Error(t *testing.T) {
	files, err := WriteAll(t.TempDir(), sampleResult())
	require.NoError(t, err)

	mirror := NewS3MirrorWithClient(&fakePutter{err: errors.New("access denied")}, "bucket", "")
	err = mirror.Mirror(context.Background(), "run-1", files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-1/customers.parquet")
}

func TestWriteTable_NullableTimestamps(t *testing.T) {
	dir := t.TempDir()
	purchased := time.Date(2018, 5, 6, 7, 8, 9, 0, time.UTC)
	limit := purchased.AddDate(0, 0, 6)

	var f File
	require.NotPanics(t, func() {
		var err error
		f, err = WriteTable(dir, warehouse.OrdersTable, []warehouse.Order{
			{OrderID: "o1", CustomerID: "c1", PurchasedAt: &purchased},
			{OrderID: "o2", CustomerID: "c1"},
		})
		require.NoError(t, err)
	})
	back, err := parquet.ReadFile[warehouse.Order](f.Path)
	require.NoError(t, err)
	require.Len(t, back, 2)
	require.NotNil(t, back[0].PurchasedAt)
	assert.True(t, purchased.Equal(*back[0].PurchasedAt))
	assert.Nil(t, back[0].DeliveredToCustomerAt)
	assert.Nil(t, back[1].PurchasedAt)

	items, err := WriteTable(dir, warehouse.OrderItemsTable, []warehouse.OrderItem{
		{OrderID: "o1", OrderItemID: 1, ShippingLimitDate: &limit, Price: 1, ItemTotal: 1},
	})
	require.NoError(t, err)
	gotItems, err := parquet.ReadFile[warehouse.OrderItem](items.Path)
	require.NoError(t, err)
	require.Len(t, gotItems, 1)
	require.NotNil(t, gotItems[0].ShippingLimitDate)
	assert.True(t, limit.Equal(*gotItems[0].ShippingLimitDate))
}

func TestWriteTable_UnsupportedSchemaIsError(t *testing.T) {
	type badRow struct {
		C chan int
	}
	dir := t.TempDir()

	var err error
	require.NotPanics(t, func() {
		_, err = WriteTable(dir, warehouse.Table{Name: "bad"}, []badRow{{}})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write bad snapshot")
	assert.NoFileExists(t, filepath.Join(dir, "bad.parquet.tmp"))
}
