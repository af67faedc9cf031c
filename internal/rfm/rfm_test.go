package rfm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/records"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/warehouse"
)

func day(n int) *time.Time {
	t := time.Date(2018, 1, n, 9, 30, 0, 0, time.UTC)
	return &t
}

func fact(customer, order, status string, purchased *time.Time, value float64) warehouse.OrderFact {
	return warehouse.OrderFact{
		CustomerUniqueID: customer,
		OrderID:          order,
		Status:           lo.ToPtr(status),
		PurchasedAt:      purchased,
		Value:            lo.ToPtr(value),
	}
}

func TestClassify_AllTriples(t *testing.T) {
	for r := 1; r <= 5; r++ {
		for f := 1; f <= 5; f++ {
			for m := 1; m <= 5; m++ {
				var want string
				switch {
				case r >= 4 && f >= 4 && m >= 4:
					want = Champions
				case r >= 4 && f >= 3:
					want = Loyal
				case r >= 3 && f >= 3 && m >= 3:
					want = PotentialLoyalist
				case r <= 2 && f >= 3 && m >= 3:
					want = AtRisk
				case f <= 2 && m <= 2 && r <= 2:
					want = Hibernating
				case r >= 3 && (f <= 2 || m <= 2):
					want = Recent
				default:
					want = Others
				}
				assert.Equal(t, want, Classify(r, f, m), "r=%d f=%d m=%d", r, f, m)
			}
		}
	}
}

func TestClassify_Examples(t *testing.T) {
	cases := []struct {
		r, f, m int
		want    string
	}{
		{5, 5, 5, Champions},
		{4, 3, 1, Loyal},
		{3, 3, 3, PotentialLoyalist},
		{1, 5, 5, AtRisk},
		{1, 1, 1, Hibernating},
		{5, 1, 5, Recent},
		{2, 1, 5, Others},
		{2, 3, 1, Others},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.r, tc.f, tc.m), "%d%d%d", tc.r, tc.f, tc.m)
	}
	assert.Equal(t, Others, Rules[len(Rules)-1].Label)
}

func TestScore_FewCustomers(t *testing.T) {
	for n := 1; n <= 4; n++ {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			values := make([]float64, n)
			for i := range values {
				values[i] = 1
			}
			for _, negate := range []bool{false, true} {
				scores := Score(values, negate)
				require.Len(t, scores, n)
				for _, s := range scores {
					assert.GreaterOrEqual(t, s, 1)
					assert.LessOrEqual(t, s, Bins)
				}
			}
		})
	}
	assert.Equal(t, []int{3}, Score([]float64{42}, false))
	assert.Equal(t, []int{3}, Score([]float64{0}, true))
}

func TestScore_EqualPopulation(t *testing.T) {
	values := make([]float64, 10)
	for i := range values {
		values[i] = float64(i * 10)
	}
	assert.Equal(t, []int{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, Score(values, false))
	assert.Equal(t, []int{5, 5, 4, 4, 3, 3, 2, 2, 1, 1}, Score(values, true))
}

func TestScore_TiesSplitByPosition(t *testing.T) {
	// every customer has frequency 1; ranks still spread over all bins
	values := make([]float64, 10)
	for i := range values {
		values[i] = 1
	}
	assert.Equal(t, []int{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, Score(values, false))
}

func TestScore_TwoValues(t *testing.T) {
	assert.Equal(t, []int{1, 5}, Score([]float64{3, 7}, false))
	assert.Equal(t, []int{5, 1}, Score([]float64{0, 9}, true))
}

func TestScore_Empty(t *testing.T) {
	assert.Nil(t, Score(nil, false))
}

func TestCompute_TwoCustomerScenario(t *testing.T) {
	facts := []warehouse.OrderFact{
		fact("A", "a1", "delivered", day(1), 100),
		fact("A", "a2", "delivered", day(10), 200),
		fact("B", "b1", "canceled", day(5), 50),
	}

	segments, snapshot, err := Compute(facts, records.NewReport())
	require.NoError(t, err)
	assert.Equal(t, *day(10), snapshot)
	require.Len(t, segments, 1)

	a := segments[0]
	assert.Equal(t, "A", a.CustomerUniqueID)
	assert.Equal(t, int64(2), a.Frequency)
	assert.Equal(t, 300.0, a.Monetary)
	assert.Equal(t, int64(0), a.RecencyDays)
	assert.Equal(t, snapshot, a.SnapshotDate)
}

func TestFilter_CaseInsensitive(t *testing.T) {
	kept := Filter([]warehouse.OrderFact{
		fact("A", "1", "CANCELED", day(1), 1),
		fact("A", "2", " Canceled ", day(1), 1),
		fact("A", "3", "delivered", day(1), 1),
		{CustomerUniqueID: "A", OrderID: "4"},
	})
	assert.Equal(t, []string{"3", "4"}, lo.Map(kept, func(f warehouse.OrderFact, _ int) string { return f.OrderID }))
}

func TestAggregate(t *testing.T) {
	report := records.NewReport()
	customers := Aggregate([]warehouse.OrderFact{
		fact("B", "b1", "delivered", day(3), 10),
		{CustomerUniqueID: "B", OrderID: "b2", PurchasedAt: day(7)},
		fact("B", "b2", "delivered", day(7), 5),
		fact("A", "a1", "delivered", day(2), 1),
		{CustomerUniqueID: "C", OrderID: "c1", Value: lo.ToPtr(9.0)},
	}, report)

	require.Len(t, customers, 2, "customers without a dated order are dropped")
	assert.Equal(t, "A", customers[0].CustomerUniqueID)
	b := customers[1]
	assert.Equal(t, int64(2), b.Frequency, "distinct order ids")
	assert.Equal(t, 15.0, b.Monetary)
	assert.Equal(t, *day(7), b.LastPurchase)
	assert.Equal(t, 1, report.Get("order_facts.order_value").Defaulted)
}

func TestRecencyDays_Floors(t *testing.T) {
	c := Customer{LastPurchase: time.Date(2018, 1, 1, 23, 0, 0, 0, time.UTC)}
	assert.Equal(t, int64(0), c.RecencyDays(time.Date(2018, 1, 2, 22, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(1), c.RecencyDays(time.Date(2018, 1, 2, 23, 0, 0, 0, time.UTC)))
}

func TestRecencyDays_ExactDayBoundaries(t *testing.T) {
	last := time.Date(2016, 9, 4, 21, 15, 19, 0, time.UTC)
	c := Customer{LastPurchase: last}
	for _, days := range []int64{1, 7, 30, 365, 729} {
		boundary := last.Add(time.Duration(days) * 24 * time.Hour)
		assert.Equal(t, days, c.RecencyDays(boundary), "exactly %d days", days)
		assert.Equal(t, days-1, c.RecencyDays(boundary.Add(-time.Nanosecond)), "one nanosecond short of %d days", days)
	}
	assert.Equal(t, int64(0), c.RecencyDays(last))
}

func TestCompute_Failures(t *testing.T) {
	_, _, err := Compute(nil, records.NewReport())
	assert.True(t, errors.Is(err, ErrNoOrders))

	_, _, err = Compute([]warehouse.OrderFact{fact("A", "1", "canceled", day(1), 1)}, records.NewReport())
	assert.True(t, errors.Is(err, ErrNoUsableRows))

	_, _, err = Compute([]warehouse.OrderFact{{CustomerUniqueID: "A", OrderID: "1"}}, records.NewReport())
	assert.True(t, errors.Is(err, ErrNoPurchaseDates))
}

func TestCompute_Invariants(t *testing.T) {
	var facts []warehouse.OrderFact
	for i := 0; i < 137; i++ {
		customer := fmt.Sprintf("u%03d", i%61)
		facts = append(facts, fact(customer, fmt.Sprintf("o%03d", i), "delivered", day(1+i%28), float64(i%17)*12.5))
	}

	segments, _, err := Compute(facts, records.NewReport())
	require.NoError(t, err)
	require.Len(t, segments, 61)

	for _, s := range segments {
		assert.GreaterOrEqual(t, s.RecencyDays, int64(0))
		for _, score := range []int{s.RScore, s.FScore, s.MScore} {
			assert.GreaterOrEqual(t, score, 1)
			assert.LessOrEqual(t, score, 5)
		}
		assert.Equal(t, fmt.Sprintf("%d%d%d", s.RScore, s.FScore, s.MScore), s.RFMScore)
		assert.Equal(t, Classify(s.RScore, s.FScore, s.MScore), s.Segment)
	}

	// reordering the extract does not change the outcome
	reversed := lo.Reverse(append([]warehouse.OrderFact(nil), facts...))
	again, _, err := Compute(reversed, records.NewReport())
	require.NoError(t, err)
	assert.Equal(t, segments, again)
}

type stubSource struct {
	facts []warehouse.OrderFact
	err   error
}

func (s stubSource) OrderFacts(context.Context) ([]warehouse.OrderFact, error) { return s.facts, s.err }

type stubSink struct {
	datasets []warehouse.Dataset
	err      error
}

func (s *stubSink) Publish(_ context.Context, datasets ...warehouse.Dataset) ([]warehouse.Published, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.datasets = append(s.datasets, datasets...)
	return []warehouse.Published{{Table: datasets[0].Table.Name, Rows: int64(len(datasets[0].Rows))}}, nil
}

func TestEngine_Run(t *testing.T) {
	sink := &stubSink{}
	res, err := NewEngine(stubSource{facts: []warehouse.OrderFact{
		fact("A", "a1", "delivered", day(1), 100),
		fact("A", "a2", "delivered", day(10), 200),
		fact("B", "b1", "canceled", day(5), 50),
	}}, sink).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Customers)
	require.Len(t, sink.datasets, 1)
	assert.Equal(t, warehouse.SegmentsTable.Name, sink.datasets[0].Table.Name)
	assert.Len(t, sink.datasets[0].Rows, 1)
	assert.Equal(t, 1, lo.Sum(lo.Values(res.Segments)))
}

func TestEngine_NoPublishOnFailure(t *testing.T) {
	sink := &stubSink{}
	_, err := NewEngine(stubSource{}, sink).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoOrders))
	assert.Empty(t, sink.datasets)

	_, err = NewEngine(stubSource{err: errors.New("connection refused")}, sink).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, sink.datasets)
}
