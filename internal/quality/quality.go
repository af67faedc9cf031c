// Package quality runs advisory data quality checks against the published
// warehouse tables. Failing checks are reported, never raised.
package quality

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/config"
)

// Status is the outcome of one check.
type Status string

const (
	Pass Status = "PASS"
	Fail Status = "FAIL"
)

// AllowedStatuses is the closed set of order statuses the source system emits.
var AllowedStatuses = []string{"delivered", "shipped", "invoiced", "processing", "unavailable", "canceled", "created", "approved"}

// Result is one line of the quality report.
type Result struct {
	Check  string `json:"check"`
	Status Status `json:"status"`
	Info   string `json:"info"`
}

// Check counts offending rows with a single query. The check passes when
// Pass returns true for that count.
type Check struct {
	Name    string
	Query   string
	Args    []any
	InfoKey string
	Pass    func(n int64) bool
}

func zero(n int64) bool     { return n == 0 }
func positive(n int64) bool { return n > 0 }

// Open connects through lib/pq and verifies the connection.
func Open(ctx context.Context, cfg config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Checks returns the check battery for tables in schema, in report order.
func Checks(schema string) []Check {
	table := func(name string) string {
		return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name)
	}

	var checks []Check
	for _, t := range []string{"orders", "order_items", "customers", "products", "sellers", "order_payments"} {
		checks = append(checks, Check{
			Name:    t + " row_count > 0",
			Query:   fmt.Sprintf("SELECT COUNT(*) FROM %s", table(t)),
			InfoKey: "rows",
			Pass:    positive,
		})
	}

	for _, u := range [][2]string{{"orders", "order_id"}, {"customers", "customer_id"}, {"products", "product_id"}, {"sellers", "seller_id"}} {
		col := pq.QuoteIdentifier(u[1])
		checks = append(checks, Check{
			Name: u[0] + "." + u[1] + " unique",
			Query: fmt.Sprintf("SELECT COUNT(*) FROM (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1) d",
				col, table(u[0]), col),
			InfoKey: "duplicates",
			Pass:    zero,
		})
	}

	for _, nn := range [][2]string{{"orders", "order_id"}, {"orders", "customer_id"}, {"customers", "customer_id"}} {
		checks = append(checks, Check{
			Name:    nn[0] + "." + nn[1] + " not null",
			Query:   fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL", table(nn[0]), pq.QuoteIdentifier(nn[1])),
			InfoKey: "nulls",
			Pass:    zero,
		})
	}

	for _, nn := range [][2]string{{"orders", "order_value"}, {"order_payments", "payment_value_total"}} {
		checks = append(checks, Check{
			Name:    nn[0] + "." + nn[1] + " >= 0",
			Query:   fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s < 0", table(nn[0]), pq.QuoteIdentifier(nn[1])),
			InfoKey: "negatives",
			Pass:    zero,
		})
	}

	checks = append(checks,
		Check{
			Name:    "orders.order_status allowed_values",
			Query:   fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE order_status IS NOT NULL AND NOT (order_status = ANY($1))", table("orders")),
			Args:    []any{pq.Array(AllowedStatuses)},
			InfoKey: "out_of_set",
			Pass:    zero,
		},
		Check{
			Name: "orders delivered_at >= purchased_at",
			Query: fmt.Sprintf(`SELECT COUNT(*) FROM %s
				WHERE delivered_to_customer_at IS NOT NULL
				  AND purchased_at IS NOT NULL
				  AND delivered_to_customer_at < purchased_at`, table("orders")),
			InfoKey: "violations",
			Pass:    zero,
		},
	)

	for _, ref := range [][3]string{
		{"orders", "customer_id", "customers"},
		{"order_items", "order_id", "orders"},
		{"order_payments", "order_id", "orders"},
	} {
		col := pq.QuoteIdentifier(ref[1])
		checks = append(checks, Check{
			Name: ref[0] + "." + ref[1] + " references " + ref[2],
			Query: fmt.Sprintf("SELECT COUNT(*) FROM %s c WHERE NOT EXISTS (SELECT 1 FROM %s p WHERE p.%s = c.%s)",
				table(ref[0]), table(ref[2]), col, col),
			InfoKey: "orphans",
			Pass:    zero,
		})
	}
	return checks
}

// Validator runs checks over a database handle.
type Validator struct {
	db     *sql.DB
	checks []Check
}

func NewValidator(db *sql.DB, schema string) *Validator {
	return &Validator{db: db, checks: Checks(schema)}
}

// Run executes every check. A check whose query fails is reported as FAIL
// with the error as info; the remaining checks still run.
func (v *Validator) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(v.checks))
	for _, c := range v.checks {
		var n int64
		if err := v.db.QueryRowContext(ctx, c.Query, c.Args...).Scan(&n); err != nil {
			slog.WarnContext(ctx, "quality check errored", "check", c.Name, "error", err)
			results = append(results, Result{Check: c.Name, Status: Fail, Info: "error=" + err.Error()})
			continue
		}
		status := Fail
		if c.Pass(n) {
			status = Pass
		}
		results = append(results, Result{Check: c.Name, Status: status, Info: fmt.Sprintf("%s=%d", c.InfoKey, n)})
	}
	return results
}

// Summary is the JSON form of the report.
type Summary struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
	Failed      int       `json:"failed"`
	Results     []Result  `json:"results"`
}

// Summarize counts failures.
func Summarize(runID string, results []Result) Summary {
	s := Summary{RunID: runID, GeneratedAt: time.Now().UTC(), Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == Fail {
			s.Failed++
		}
	}
	return s
}
