package warehouse

import (
	"context"
	"fmt"
	"time"
)

// OrderFact is one order joined to the person who placed it.
type OrderFact struct {
	CustomerUniqueID string
	OrderID          string
	Status           *string
	PurchasedAt      *time.Time
	// Value is the order's payment total; nil when the order has no payments.
	Value *float64
}

// Extractor reads published tables back out of the warehouse.
type Extractor struct {
	db     DB
	schema string
}

func NewExtractor(db DB, schema string) *Extractor {
	return &Extractor{db: db, schema: schema}
}

// OrderFacts returns every order whose customer exists in the customers
// table. Orders with unknown customers cannot be attributed to a person and
// are not returned.
func (e *Extractor) OrderFacts(ctx context.Context) ([]OrderFact, error) {
	query := fmt.Sprintf(`
		SELECT c.customer_unique_id, o.order_id, o.order_status, o.purchased_at, o.payment_value_total
		FROM %s o
		JOIN %s c ON c.customer_id = o.customer_id`,
		OrdersTable.Identifier(e.schema).Sanitize(),
		CustomersTable.Identifier(e.schema).Sanitize(),
	)

	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query order facts: %w", err)
	}
	defer rows.Close()

	var facts []OrderFact
	for rows.Next() {
		var f OrderFact
		if err := rows.Scan(&f.CustomerUniqueID, &f.OrderID, &f.Status, &f.PurchasedAt, &f.Value); err != nil {
			return nil, fmt.Errorf("scan order fact: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read order facts: %w", err)
	}
	return facts, nil
}

// RowCounts returns the row count of each given table, keyed by
// schema-qualified name.
func (e *Extractor) RowCounts(ctx context.Context, tables ...Table) (map[string]int64, error) {
	counts := make(map[string]int64, len(tables))
	for _, t := range tables {
		qualifiedName := t.Identifier(e.schema).Sanitize()
		var count int64
		err := e.db.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", qualifiedName)).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", qualifiedName, err)
		}
		counts[e.schema+"."+t.Name] = count
	}
	return counts, nil
}
