package warehouse

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Table defines a warehouse table's schema for DDL generation.
type Table struct {
	Name    string
	Columns []Column
	Indexes []Index
}

// Column defines a single column.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
}

// Index defines a supporting index. Indexes are declared statically per table.
type Index struct {
	Name    string
	Columns []string
}

// ColumnNames returns the column names in declaration order, which is also
// the order of every row type's Values.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Identifier is the schema-qualified table identifier.
func (t Table) Identifier(schema string) pgx.Identifier {
	return pgx.Identifier{schema, t.Name}
}

// DropSQL renders DROP TABLE IF EXISTS.
func (t Table) DropSQL(schema string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", t.Identifier(schema).Sanitize())
}

// CreateSQL renders the CREATE TABLE statement.
func (t Table) CreateSQL(schema string) string {
	var cols []string
	for _, c := range t.Columns {
		col := fmt.Sprintf("  %s %s", pgx.Identifier{c.Name}.Sanitize(), c.Type)
		if c.PrimaryKey {
			col += " PRIMARY KEY"
		} else if !c.Nullable {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", t.Identifier(schema).Sanitize(), strings.Join(cols, ",\n"))
}

// IndexSQL renders one CREATE INDEX statement per declared index.
func (t Table) IndexSQL(schema string) []string {
	stmts := make([]string, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		quoted := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			quoted[i] = pgx.Identifier{c}.Sanitize()
		}
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			pgx.Identifier{idx.Name}.Sanitize(),
			t.Identifier(schema).Sanitize(),
			strings.Join(quoted, ", "),
		))
	}
	return stmts
}

var (
	CustomersTable = Table{
		Name: "customers",
		Columns: []Column{
			{Name: "customer_id", Type: "VARCHAR(64)"},
			{Name: "customer_unique_id", Type: "VARCHAR(64)"},
			{Name: "zip_prefix", Type: "INTEGER", Nullable: true},
			{Name: "city", Type: "VARCHAR(255)", Nullable: true},
			{Name: "state", Type: "VARCHAR(8)", Nullable: true},
			{Name: "geo_city", Type: "VARCHAR(255)", Nullable: true},
			{Name: "geo_state", Type: "VARCHAR(8)", Nullable: true},
		},
		Indexes: []Index{
			{Name: "ix_customers_customer_id", Columns: []string{"customer_id"}},
			{Name: "ix_customers_customer_unique_id", Columns: []string{"customer_unique_id"}},
		},
	}

	ProductsTable = Table{
		Name: "products",
		Columns: []Column{
			{Name: "product_id", Type: "VARCHAR(64)"},
			{Name: "product_category_name", Type: "VARCHAR(255)", Nullable: true},
			{Name: "category_en", Type: "VARCHAR(255)", Nullable: true},
			{Name: "product_weight_g", Type: "DOUBLE PRECISION", Nullable: true},
			{Name: "product_length_cm", Type: "DOUBLE PRECISION", Nullable: true},
			{Name: "product_height_cm", Type: "DOUBLE PRECISION", Nullable: true},
			{Name: "product_width_cm", Type: "DOUBLE PRECISION", Nullable: true},
		},
		Indexes: []Index{
			{Name: "ix_products_product_id", Columns: []string{"product_id"}},
		},
	}

	SellersTable = Table{
		Name: "sellers",
		Columns: []Column{
			{Name: "seller_id", Type: "VARCHAR(64)"},
			{Name: "seller_zip_code_prefix", Type: "INTEGER", Nullable: true},
			{Name: "seller_city", Type: "VARCHAR(255)", Nullable: true},
			{Name: "seller_state", Type: "VARCHAR(8)", Nullable: true},
		},
		Indexes: []Index{
			{Name: "ix_sellers_seller_id", Columns: []string{"seller_id"}},
		},
	}

	OrdersTable = Table{
		Name: "orders",
		Columns: []Column{
			{Name: "order_id", Type: "VARCHAR(64)"},
			{Name: "customer_id", Type: "VARCHAR(64)"},
			{Name: "order_status", Type: "VARCHAR(32)", Nullable: true},
			{Name: "purchased_at", Type: "TIMESTAMP", Nullable: true},
			{Name: "approved_at", Type: "TIMESTAMP", Nullable: true},
			{Name: "delivered_to_carrier_at", Type: "TIMESTAMP", Nullable: true},
			{Name: "delivered_to_customer_at", Type: "TIMESTAMP", Nullable: true},
			{Name: "estimated_delivery_at", Type: "TIMESTAMP", Nullable: true},
			{Name: "items_count", Type: "INTEGER", Nullable: true},
			{Name: "product_count", Type: "INTEGER", Nullable: true},
			{Name: "freight_total", Type: "DOUBLE PRECISION", Nullable: true},
			{Name: "item_value", Type: "DOUBLE PRECISION", Nullable: true},
			{Name: "order_value", Type: "DOUBLE PRECISION", Nullable: true},
			{Name: "payment_type", Type: "VARCHAR(64)", Nullable: true},
			{Name: "payment_installments", Type: "INTEGER", Nullable: true},
			{Name: "payment_value", Type: "DOUBLE PRECISION", Nullable: true},
			{Name: "payment_value_total", Type: "DOUBLE PRECISION", Nullable: true},
			{Name: "payment_methods", Type: "INTEGER", Nullable: true},
		},
		Indexes: []Index{
			{Name: "ix_orders_order_id", Columns: []string{"order_id"}},
			{Name: "ix_orders_customer_id", Columns: []string{"customer_id"}},
			{Name: "ix_orders_order_status", Columns: []string{"order_status"}},
			{Name: "ix_orders_purchased_at", Columns: []string{"purchased_at"}},
		},
	}

	OrderItemsTable = Table{
		Name: "order_items",
		Columns: []Column{
			{Name: "order_id", Type: "VARCHAR(64)"},
			{Name: "order_item_id", Type: "INTEGER"},
			{Name: "product_id", Type: "VARCHAR(64)"},
			{Name: "seller_id", Type: "VARCHAR(64)"},
			{Name: "shipping_limit_date", Type: "TIMESTAMP", Nullable: true},
			{Name: "price", Type: "DOUBLE PRECISION"},
			{Name: "freight_value", Type: "DOUBLE PRECISION"},
			{Name: "item_total", Type: "DOUBLE PRECISION"},
		},
		Indexes: []Index{
			{Name: "ix_items_order_id", Columns: []string{"order_id"}},
			{Name: "ix_items_product_id", Columns: []string{"product_id"}},
			{Name: "ix_items_seller_id", Columns: []string{"seller_id"}},
		},
	}

	PaymentsTable = Table{
		Name: "order_payments",
		Columns: []Column{
			{Name: "order_id", Type: "VARCHAR(64)"},
			{Name: "payment_type", Type: "VARCHAR(64)", Nullable: true},
			{Name: "payment_installments", Type: "INTEGER", Nullable: true},
			{Name: "payment_value", Type: "DOUBLE PRECISION", Nullable: true},
			{Name: "payment_value_total", Type: "DOUBLE PRECISION"},
			{Name: "payment_methods", Type: "INTEGER"},
		},
		Indexes: []Index{
			{Name: "ix_payments_order_id", Columns: []string{"order_id"}},
		},
	}

	SegmentsTable = Table{
		Name: "customer_segments",
		Columns: []Column{
			{Name: "customer_unique_id", Type: "TEXT", PrimaryKey: true},
			{Name: "recency_days", Type: "INTEGER"},
			{Name: "frequency", Type: "INTEGER"},
			{Name: "monetary", Type: "NUMERIC(18,2)"},
			{Name: "r_score", Type: "INTEGER"},
			{Name: "f_score", Type: "INTEGER"},
			{Name: "m_score", Type: "INTEGER"},
			{Name: "rfm_score", Type: "TEXT"},
			{Name: "segment", Type: "TEXT"},
			{Name: "snapshot_date", Type: "TIMESTAMP"},
		},
		Indexes: []Index{
			{Name: "ix_seg_segment", Columns: []string{"segment"}},
			{Name: "ix_seg_snapshot", Columns: []string{"snapshot_date"}},
		},
	}
)
