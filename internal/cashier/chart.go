package cashier

import (
	"time"

	"pos-backend/internal/apperror"
	"pos-backend/internal/models"
	"pos-backend/internal/order"

	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// DefaultCount is the number of buckets returned when the caller gives none.
func (p Period) DefaultCount() int {
	switch p {
	case PeriodWeekly:
		return 8
	case PeriodMonthly:
		return 12
	}
	return 7
}

type ChartPoint struct {
	Label string          `json:"label"` // bucket start, YYYY-MM-DD
	Cash  decimal.Decimal `json:"cash"`
	Card  decimal.Decimal `json:"card"`
	PIX   decimal.Decimal `json:"pix"`
	Total decimal.Decimal `json:"total"`
}

func (p *ChartPoint) add(m models.PaymentMethod, amount decimal.Decimal) {
	switch m {
	case models.PaymentCash:
		p.Cash = p.Cash.Add(amount)
	case models.PaymentCard:
		p.Card = p.Card.Add(amount)
	case models.PaymentPIX:
		p.PIX = p.PIX.Add(amount)
	}
	p.Total = p.Total.Add(amount)
}

type Chart struct {
	Period      Period       `json:"period"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []ChartPoint `json:"points"`
	GrandTotals ChartPoint   `json:"grand_totals"`
}

// bucketStart truncates t to the start of its day, ISO week (Monday) or month.
func bucketStart(p Period, t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch p {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return day
}

func step(p Period, t time.Time, n int) time.Time {
	switch p {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7*n)
	case PeriodMonthly:
		return t.AddDate(0, n, 0)
	}
	return t.AddDate(0, 0, n)
}

// Chart buckets paid order totals by payment method over the last count
// periods ending with the one containing now. Empty buckets are included.
func (t *Till) Chart(establishmentID uint, period Period, count int, now time.Time) (Chart, error) {
	switch period {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	default:
		return Chart{}, apperror.Validationf("unknown period %q", period)
	}
	if count <= 0 || count > 366 {
		return Chart{}, apperror.Validation("count must be between 1 and 366")
	}

	last := bucketStart(period, now)
	first := step(period, last, -(count - 1))
	end := step(period, last, 1)

	paid := true
	orders, err := t.orders.List(establishmentID, order.Filter{Paid: &paid})
	if err != nil {
		return Chart{}, err
	}

	points := make([]ChartPoint, count)
	index := make(map[time.Time]int, count)
	for i := 0; i < count; i++ {
		b := step(period, first, i)
		index[b] = i
		points[i] = ChartPoint{Label: b.Format("2006-01-02")}
	}

	grand := ChartPoint{Label: "total"}
	for _, o := range orders {
		if o.PaidAt == nil || o.PaymentMethod == nil {
			continue
		}
		at := o.PaidAt.In(now.Location())
		if at.Before(first) || !at.Before(end) {
			continue
		}
		i, ok := index[bucketStart(period, at)]
		if !ok {
			continue
		}
		points[i].add(*o.PaymentMethod, o.Total)
		grand.add(*o.PaymentMethod, o.Total)
	}

	return Chart{
		Period:      period,
		From:        first.Format("2006-01-02"),
		To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points:      points,
		GrandTotals: grand,
	}, nil
}
