package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	dbgen "github.com/codr1/Trainyard/internal/db/generated"
)

const topProductsLimit = 10

type RevenueInput struct {
	Payments    []dbgen.ListPaymentsInRangeRow
	Refunds     []dbgen.ListRefundsInRangeRow
	Start       time.Time
	End         time.Time
	Granularity string
	Location    *time.Location
}

type MethodRevenue struct {
	Method        string `json:"method"`
	PaymentCount  int    `json:"paymentCount"`
	GrossCents    int64  `json:"grossCents"`
	RefundedCents int64  `json:"refundedCents"`
	NetCents      int64  `json:"netCents"`
}

type ProductRevenue struct {
	ProductID     int64  `json:"productId"`
	ProductName   string `json:"productName"`
	PaymentCount  int    `json:"paymentCount"`
	GrossCents    int64  `json:"grossCents"`
	RefundedCents int64  `json:"refundedCents"`
}

type RevenuePoint struct {
	Period        string `json:"period"`
	PaymentCount  int    `json:"paymentCount"`
	GrossCents    int64  `json:"grossCents"`
	RefundedCents int64  `json:"refundedCents"`
	NetCents      int64  `json:"netCents"`
}

type RevenueReport struct {
	Granularity         string           `json:"granularity"`
	GrossCents          int64            `json:"grossCents"`
	RefundedCents       int64            `json:"refundedCents"`
	NetCents            int64            `json:"netCents"`
	PaymentCount        int              `json:"paymentCount"`
	AveragePaymentCents float64          `json:"averagePaymentCents"`
	MedianPaymentCents  float64          `json:"medianPaymentCents"`
	ByMethod            []MethodRevenue  `json:"byMethod"`
	TopProducts         []ProductRevenue `json:"topProducts"`
	Series              []RevenuePoint   `json:"series"`
}

type RevenueSource interface {
	ListPaymentsInRange(ctx context.Context, arg dbgen.ListPaymentsInRangeParams) ([]dbgen.ListPaymentsInRangeRow, error)
	ListRefundsInRange(ctx context.Context, arg dbgen.ListRefundsInRangeParams) ([]dbgen.ListRefundsInRangeRow, error)
}

// CalculateRevenue loads payments and refunds in [start, end) and builds the
// revenue report bucketed in loc.
func CalculateRevenue(ctx context.Context, q RevenueSource, start, end time.Time, granularity string, loc *time.Location) (RevenueReport, error) {
	if q == nil {
		return RevenueReport{}, errors.New("queries are required")
	}
	payments, err := q.ListPaymentsInRange(ctx, dbgen.ListPaymentsInRangeParams{StartTime: start.UTC(), EndTime: end.UTC()})
	if err != nil {
		return RevenueReport{}, fmt.Errorf("load payments: %w", err)
	}
	refunds, err := q.ListRefundsInRange(ctx, dbgen.ListRefundsInRangeParams{StartTime: start.UTC(), EndTime: end.UTC()})
	if err != nil {
		return RevenueReport{}, fmt.Errorf("load refunds: %w", err)
	}
	return BuildRevenueReport(RevenueInput{
		Payments:    payments,
		Refunds:     refunds,
		Start:       start,
		End:         end,
		Granularity: granularity,
		Location:    loc,
	}), nil
}

// BuildRevenueReport aggregates payments by paid_at and refunds by
// refunded_at. Net is gross minus refunds issued in the same range.
func BuildRevenueReport(in RevenueInput) RevenueReport {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	granularity := normalizeGranularity(in.Granularity)

	report := RevenueReport{
		Granularity: granularity,
		ByMethod:    []MethodRevenue{},
		TopProducts: []ProductRevenue{},
		Series:      []RevenuePoint{},
	}

	points := make(map[string]*RevenuePoint)
	for _, key := range bucketKeys(in.Start, in.End, granularity, loc) {
		points[key] = &RevenuePoint{Period: key}
	}
	point := func(t time.Time) *RevenuePoint {
		key := bucketKey(t, granularity, loc)
		p, ok := points[key]
		if !ok {
			p = &RevenuePoint{Period: key}
			points[key] = p
		}
		return p
	}

	methods := make(map[string]*MethodRevenue)
	method := func(name string) *MethodRevenue {
		m, ok := methods[name]
		if !ok {
			m = &MethodRevenue{Method: name}
			methods[name] = m
		}
		return m
	}
	products := make(map[int64]*ProductRevenue)

	amounts := make(stats.Float64Data, 0, len(in.Payments))
	for _, payment := range in.Payments {
		report.GrossCents += payment.AmountCents
		report.PaymentCount++
		amounts = append(amounts, float64(payment.AmountCents))

		m := method(payment.Method)
		m.PaymentCount++
		m.GrossCents += payment.AmountCents

		if payment.ProductID.Valid {
			pr, ok := products[payment.ProductID.Int64]
			if !ok {
				pr = &ProductRevenue{ProductID: payment.ProductID.Int64, ProductName: payment.ProductName.String}
				products[payment.ProductID.Int64] = pr
			}
			pr.PaymentCount++
			pr.GrossCents += payment.AmountCents
		}

		p := point(payment.PaidAt)
		p.PaymentCount++
		p.GrossCents += payment.AmountCents
	}

	for _, refund := range in.Refunds {
		report.RefundedCents += refund.AmountCents
		method(refund.Method).RefundedCents += refund.AmountCents
		if refund.ProductID.Valid {
			if pr, ok := products[refund.ProductID.Int64]; ok {
				pr.RefundedCents += refund.AmountCents
			}
		}
		point(refund.RefundedAt).RefundedCents += refund.AmountCents
	}

	report.NetCents = report.GrossCents - report.RefundedCents
	if len(amounts) > 0 {
		if mean, err := stats.Mean(amounts); err == nil {
			report.AveragePaymentCents = mean
		}
		if median, err := stats.Median(amounts); err == nil {
			report.MedianPaymentCents = median
		}
	}

	for _, m := range methods {
		m.NetCents = m.GrossCents - m.RefundedCents
		report.ByMethod = append(report.ByMethod, *m)
	}
	sort.SliceStable(report.ByMethod, func(i, j int) bool {
		if report.ByMethod[i].GrossCents != report.ByMethod[j].GrossCents {
			return report.ByMethod[i].GrossCents > report.ByMethod[j].GrossCents
		}
		return report.ByMethod[i].Method < report.ByMethod[j].Method
	})

	for _, pr := range products {
		report.TopProducts = append(report.TopProducts, *pr)
	}
	sort.SliceStable(report.TopProducts, func(i, j int) bool {
		a, b := report.TopProducts[i], report.TopProducts[j]
		if a.GrossCents != b.GrossCents {
			return a.GrossCents > b.GrossCents
		}
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.ProductID < b.ProductID
	})
	if len(report.TopProducts) > topProductsLimit {
		report.TopProducts = report.TopProducts[:topProductsLimit]
	}

	for _, p := range points {
		p.NetCents = p.GrossCents - p.RefundedCents
		report.Series = append(report.Series, *p)
	}
	sort.SliceStable(report.Series, func(i, j int) bool {
		return report.Series[i].Period < report.Series[j].Period
	})

	return report
}
