package warehouse

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_DDL(t *testing.T) {
	tbl := Table{
		Name: "segments",
		Columns: []Column{
			{Name: "id", Type: "TEXT", PrimaryKey: true},
			{Name: "score", Type: "INTEGER"},
			{Name: "note", Type: "TEXT", Nullable: true},
		},
		Indexes: []Index{{Name: "ix_seg_score", Columns: []string{"score"}}},
	}

	assert.Equal(t, `DROP TABLE IF EXISTS "ecom"."segments"`, tbl.DropSQL("ecom"))
	assert.Equal(t, "CREATE TABLE \"ecom\".\"segments\" (\n"+
		"  \"id\" TEXT PRIMARY KEY,\n"+
		"  \"score\" INTEGER NOT NULL,\n"+
		"  \"note\" TEXT\n)", tbl.CreateSQL("ecom"))
	assert.Equal(t, []string{`CREATE INDEX "ix_seg_score" ON "ecom"."segments" ("score")`}, tbl.IndexSQL("ecom"))
	assert.Equal(t, []string{"id", "score", "note"}, tbl.ColumnNames())
}

func TestRowValuesMatchColumns(t *testing.T) {
	cases := []struct {
		table Table
		row   Row
	}{
		{CustomersTable, Customer{}},
		{ProductsTable, Product{}},
		{SellersTable, Seller{}},
		{OrdersTable, Order{}},
		{OrderItemsTable, OrderItem{}},
		{PaymentsTable, Payment{}},
		{SegmentsTable, Segment{}},
	}
	for _, tc := range cases {
		t.Run(tc.table.Name, func(t *testing.T) {
			assert.Len(t, tc.row.Values(), len(tc.table.Columns))
			assert.Equal(t, len(tc.table.Columns), reflect.TypeOf(tc.row).NumField())
		})
	}
}

func TestRequiredIndexes(t *testing.T) {
	names := map[string]bool{}
	for _, tbl := range []Table{OrdersTable, OrderItemsTable, ProductsTable, SellersTable, PaymentsTable, SegmentsTable} {
		for _, idx := range tbl.Indexes {
			names[idx.Name] = true
		}
	}
	for _, want := range []string{
		"ix_orders_order_id", "ix_orders_customer_id", "ix_items_order_id",
		"ix_products_product_id", "ix_sellers_seller_id", "ix_payments_order_id",
		"ix_seg_segment", "ix_seg_snapshot",
	} {
		assert.True(t, names[want], want)
	}
}

func expectTable(mock pgxmock.PgxConnIface, tbl Table, schema string, rows int64) {
	mock.ExpectExec(regexp.QuoteMeta(tbl.DropSQL(schema))).WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec(regexp.QuoteMeta(tbl.CreateSQL(schema))).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(tbl.Identifier(schema), tbl.ColumnNames()).WillReturnResult(rows)
	for _, stmt := range tbl.IndexSQL(schema) {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}
}

func TestPublisher_Publish(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	sellers := []Seller{{SellerID: "s1"}, {SellerID: "s2"}}
	products := []Product{{ProductID: "p1"}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "ecom"`)).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	expectTable(mock, SellersTable, "ecom", 2)
	expectTable(mock, ProductsTable, "ecom", 1)
	mock.ExpectCommit()

	published, err := NewPublisher(mock, "ecom").Publish(context.Background(),
		NewDataset(SellersTable, sellers),
		NewDataset(ProductsTable, products),
	)
	require.NoError(t, err)
	assert.Equal(t, []Published{{Table: "sellers", Rows: 2}, {Table: "products", Rows: 1}}, published)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_RollsBackOnCopyFailure(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "ecom"`)).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	expectTable(mock, SellersTable, "ecom", 1)
	mock.ExpectExec(regexp.QuoteMeta(ProductsTable.DropSQL("ecom"))).WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec(regexp.QuoteMeta(ProductsTable.CreateSQL("ecom"))).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(ProductsTable.Identifier("ecom"), ProductsTable.ColumnNames()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = NewPublisher(mock, "ecom").Publish(context.Background(),
		NewDataset(SellersTable, []Seller{{SellerID: "s1"}}),
		NewDataset(ProductsTable, []Product{{ProductID: "p1"}}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy into products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_BeginFailure(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	mock.ExpectBegin().WillReturnError(errors.New("connection reset by peer"))

	_, err = NewPublisher(mock, "ecom").Publish(context.Background(), NewDataset(SellersTable, []Seller{}))
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractor_OrderFacts(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	delivered := "delivered"
	purchased := time.Date(2018, 3, 1, 12, 0, 0, 0, time.UTC)
	value := 120.5

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "ecom"."orders" o`)).
		WillReturnRows(pgxmock.NewRows([]string{"customer_unique_id", "order_id", "order_status", "purchased_at", "payment_value_total"}).
			AddRow("u1", "o1", &delivered, &purchased, &value).
			AddRow("u2", "o2", (*string)(nil), (*time.Time)(nil), (*float64)(nil)))

	facts, err := NewExtractor(mock, "ecom").OrderFacts(context.Background())
	require.NoError(t, err)
	require.Len(t, facts, 2)

	assert.Equal(t, "u1", facts[0].CustomerUniqueID)
	require.NotNil(t, facts[0].Value)
	assert.Equal(t, 120.5, *facts[0].Value)
	assert.True(t, purchased.Equal(*facts[0].PurchasedAt))
	assert.Nil(t, facts[1].Status)
	assert.Nil(t, facts[1].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractor_RowCounts(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "ecom"."orders"`)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "ecom"."customers"`)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))

	counts, err := NewExtractor(mock, "ecom").RowCounts(context.Background(), OrdersTable, CustomersTable)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"ecom.orders": 7, "ecom.customers": 5}, counts)
}

func TestWithRetry(t *testing.T) {
	backoffUnit = time.Millisecond
	t.Cleanup(func() { backoffUnit = time.Second })

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), 3, "connect", func() error {
			calls++
			if calls < 3 {
				return errors.New("dial tcp: connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error returns at once", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), 3, "connect", func() error {
			calls++
			return errors.New(`password authentication failed for user "ecom_user"`)
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		err := withRetry(context.Background(), 2, "connect", func() error {
			return errors.New("i/o timeout")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
	})
}

func TestIdentifierQuoting(t *testing.T) {
	tbl := Table{Name: `odd"name`}
	assert.Equal(t, pgx.Identifier{"s", `odd"name`}, tbl.Identifier("s"))
	assert.Equal(t, `DROP TABLE IF EXISTS "s"."odd""name"`, tbl.DropSQL("s"))
}
