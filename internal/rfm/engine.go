// Package rfm scores customers on recency, frequency and monetary value and
// assigns each one a behavioural segment.
package rfm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/records"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/warehouse"
)

var (
	// ErrNoOrders is returned when the extract is empty.
	ErrNoOrders = errors.New("no orders to segment")
	// ErrNoUsableRows is returned when no order survives filtering.
	ErrNoUsableRows = errors.New("no usable orders after filtering")
	// ErrNoPurchaseDates is returned when no surviving order has a purchase
	// timestamp, so no snapshot date can be fixed.
	ErrNoPurchaseDates = errors.New("no valid purchase timestamps")
)

const canceledStatus = "canceled"

// Customer holds the per-person aggregates before scoring.
type Customer struct {
	CustomerUniqueID string
	LastPurchase     time.Time
	Frequency        int64
	Monetary         float64
}

// RecencyDays is the number of whole days between last purchase and snapshot.
func (c Customer) RecencyDays(snapshot time.Time) int64 {
	return int64(snapshot.Sub(c.LastPurchase) / (24 * time.Hour))
}

// Filter drops canceled orders. Status comparison ignores case; a missing
// status is kept.
func Filter(facts []warehouse.OrderFact) []warehouse.OrderFact {
	return lo.Filter(facts, func(f warehouse.OrderFact, _ int) bool {
		return f.Status == nil || strings.ToLower(strings.TrimSpace(*f.Status)) != canceledStatus
	})
}

// SnapshotDate is the latest purchase timestamp among facts.
func SnapshotDate(facts []warehouse.OrderFact) (time.Time, error) {
	dated := lo.Filter(facts, func(f warehouse.OrderFact, _ int) bool { return f.PurchasedAt != nil })
	if len(dated) == 0 {
		return time.Time{}, ErrNoPurchaseDates
	}
	latest := lo.MaxBy(dated, func(a, b warehouse.OrderFact) bool { return a.PurchasedAt.After(*b.PurchasedAt) })
	return *latest.PurchasedAt, nil
}

// Aggregate rolls orders up per customer_unique_id. Missing order values
// count as 0 and are recorded as defaulted in report. Customers without any
// dated order are left out since their recency is undefined. The result is
// sorted by CustomerUniqueID.
func Aggregate(facts []warehouse.OrderFact, report *records.Report) []Customer {
	groups := lo.GroupBy(facts, func(f warehouse.OrderFact) string { return f.CustomerUniqueID })

	customers := make([]Customer, 0, len(groups))
	for id, orders := range groups {
		dated := lo.Filter(orders, func(f warehouse.OrderFact, _ int) bool { return f.PurchasedAt != nil })
		if len(dated) == 0 {
			continue
		}
		last := lo.MaxBy(dated, func(a, b warehouse.OrderFact) bool { return a.PurchasedAt.After(*b.PurchasedAt) })

		monetary := lo.SumBy(orders, func(f warehouse.OrderFact) float64 {
			if f.Value == nil || math.IsNaN(*f.Value) {
				report.Record("order_facts.order_value", records.Defaulted)
				return 0
			}
			report.Record("order_facts.order_value", records.Parsed)
			return *f.Value
		})

		customers = append(customers, Customer{
			CustomerUniqueID: id,
			LastPurchase:     *last.PurchasedAt,
			Frequency:        int64(len(lo.UniqBy(orders, func(f warehouse.OrderFact) string { return f.OrderID }))),
			Monetary:         monetary,
		})
	}

	sort.Slice(customers, func(i, j int) bool { return customers[i].CustomerUniqueID < customers[j].CustomerUniqueID })
	return customers
}

// Segment scores customers and classifies them. customers must be sorted by
// CustomerUniqueID; that order breaks ties between equal metric values.
func Segment(customers []Customer, snapshot time.Time) []warehouse.Segment {
	recency := make([]float64, len(customers))
	frequency := make([]float64, len(customers))
	monetary := make([]float64, len(customers))
	for i, c := range customers {
		recency[i] = float64(c.RecencyDays(snapshot))
		frequency[i] = float64(c.Frequency)
		monetary[i] = c.Monetary
	}

	rScores := Score(recency, true)
	fScores := Score(frequency, false)
	mScores := Score(monetary, false)

	segments := make([]warehouse.Segment, len(customers))
	for i, c := range customers {
		r, f, m := rScores[i], fScores[i], mScores[i]
		segments[i] = warehouse.Segment{
			CustomerUniqueID: c.CustomerUniqueID,
			RecencyDays:      c.RecencyDays(snapshot),
			Frequency:        c.Frequency,
			Monetary:         math.Round(c.Monetary*100) / 100,
			RScore:           r,
			FScore:           f,
			MScore:           m,
			RFMScore:         strconv.Itoa(r) + strconv.Itoa(f) + strconv.Itoa(m),
			Segment:          Classify(r, f, m),
			SnapshotDate:     snapshot,
		}
	}
	return segments
}

// Compute runs filter, snapshot date, aggregation and scoring over facts.
func Compute(facts []warehouse.OrderFact, report *records.Report) ([]warehouse.Segment, time.Time, error) {
	if len(facts) == 0 {
		return nil, time.Time{}, ErrNoOrders
	}
	kept := Filter(facts)
	if len(kept) == 0 {
		return nil, time.Time{}, ErrNoUsableRows
	}
	for _, f := range kept {
		if f.PurchasedAt == nil {
			report.Record("order_facts.purchased_at", records.Missing)
		} else {
			report.Record("order_facts.purchased_at", records.Parsed)
		}
	}

	snapshot, err := SnapshotDate(kept)
	if err != nil {
		return nil, time.Time{}, err
	}
	customers := Aggregate(kept, report)
	if len(customers) == 0 {
		return nil, time.Time{}, ErrNoUsableRows
	}
	return Segment(customers, snapshot), snapshot, nil
}

// OrderSource supplies the order facts to segment.
type OrderSource interface {
	OrderFacts(ctx context.Context) ([]warehouse.OrderFact, error)
}

// Sink publishes the segment table.
type Sink interface {
	Publish(ctx context.Context, datasets ...warehouse.Dataset) ([]warehouse.Published, error)
}

// Engine runs one segmentation pass from warehouse to warehouse.
type Engine struct {
	source OrderSource
	sink   Sink
}

func NewEngine(source OrderSource, sink Sink) *Engine {
	return &Engine{source: source, sink: sink}
}

// Result summarizes one run.
type Result struct {
	SnapshotDate time.Time
	Customers    int
	Segments     map[string]int
	Segmented    []warehouse.Segment
}

// Run extracts, scores and publishes. Nothing is published on any error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	facts, err := e.source.OrderFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract order facts: %w", err)
	}
	slog.InfoContext(ctx, "extracted order facts", "rows", len(facts))

	report := records.NewReport()
	segments, snapshot, err := Compute(facts, report)
	if err != nil {
		return nil, fmt.Errorf("segment customers: %w", err)
	}
	slog.InfoContext(ctx, "scored customers",
		"customers", len(segments), "snapshot_date", snapshot, "coercion", report)

	if _, err := e.sink.Publish(ctx, warehouse.NewDataset(warehouse.SegmentsTable, segments)); err != nil {
		return nil, fmt.Errorf("publish segments: %w", err)
	}

	return &Result{
		SnapshotDate: snapshot,
		Customers:    len(segments),
		Segments:     lo.CountValuesBy(segments, func(s warehouse.Segment) string { return s.Segment }),
		Segmented:    segments,
	}, nil
}
