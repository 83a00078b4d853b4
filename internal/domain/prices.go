package domain

import (
	"sort"
	"time"
)

// PriceRow is one observation across a set of tickers. A row is usable only
// when every requested ticker has a positive close.
type PriceRow struct {
	Date   time.Time
	Closes map[string]float64
}

// PriceTable is an aligned table of daily closing prices: one row per date,
// one column per ticker. Dates are strictly increasing with no duplicates.
// Tables are built once and treated as immutable snapshots afterwards.
type PriceTable struct {
	Tickers []string
	Dates   []time.Time
	// Closes[i][j] is the close of Tickers[j] on Dates[i].
	Closes [][]float64
}

// BuildPriceTable assembles an aligned table from raw per-date rows.
// Rows missing any requested ticker (or carrying a non-positive close) are
// dropped. Duplicate dates keep the last occurrence. Rows are sorted by date.
func BuildPriceTable(tickers []string, rows []PriceRow) PriceTable {
	byDate := make(map[time.Time][]float64)
	for _, row := range rows {
		closes := make([]float64, 0, len(tickers))
		complete := true
		for _, ticker := range tickers {
			price, ok := row.Closes[ticker]
			if !ok || price <= 0 {
				complete = false
				break
			}
			closes = append(closes, price)
		}
		if complete {
			byDate[row.Date] = closes
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	table := PriceTable{
		Tickers: append([]string(nil), tickers...),
		Dates:   dates,
		Closes:  make([][]float64, 0, len(dates)),
	}
	for _, date := range dates {
		table.Closes = append(table.Closes, byDate[date])
	}
	return table
}

// Empty reports whether the table has no usable rows.
func (t PriceTable) Empty() bool {
	return len(t.Dates) == 0
}

// NumRows returns the number of aligned observations.
func (t PriceTable) NumRows() int {
	return len(t.Dates)
}

// Column returns the price series of a single ticker, or nil when the ticker
// is not part of the table.
func (t PriceTable) Column(ticker string) []float64 {
	idx := -1
	for j, name := range t.Tickers {
		if name == ticker {
			idx = j
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(t.Closes))
	for i, row := range t.Closes {
		out[i] = row[idx]
	}
	return out
}

// ReturnTable holds simple period-over-period returns derived from a
// PriceTable. It has one fewer row than its source; Dates[i] is the date the
// return was realized on.
type ReturnTable struct {
	Tickers []string
	Dates   []time.Time
	// Returns[i][j] is the return of Tickers[j] realized on Dates[i].
	Returns [][]float64
}

// Empty reports whether the table has no return rows.
func (rt ReturnTable) Empty() bool {
	return len(rt.Dates) == 0
}

// NumRows returns the number of return observations.
func (rt ReturnTable) NumRows() int {
	return len(rt.Dates)
}

// Column returns the return series of a single ticker, or nil when the ticker
// is not part of the table.
func (rt ReturnTable) Column(ticker string) []float64 {
	idx := -1
	for j, name := range rt.Tickers {
		if name == ticker {
			idx = j
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(rt.Returns))
	for i, row := range rt.Returns {
		out[i] = row[idx]
	}
	return out
}

// Weighted collapses the table into a single portfolio return series using
// the given weights. Tickers absent from the weight map contribute nothing.
func (rt ReturnTable) Weighted(weights Weights) ReturnSeries {
	series := ReturnSeries{
		Dates:  append([]time.Time(nil), rt.Dates...),
		Values: make([]float64, len(rt.Returns)),
	}
	for i, row := range rt.Returns {
		var total float64
		for j, ticker := range rt.Tickers {
			total += weights[ticker] * row[j]
		}
		series.Values[i] = total
	}
	return series
}

// ReturnSeries is a dated return stream for a single asset or portfolio.
type ReturnSeries struct {
	Dates  []time.Time
	Values []float64
}

// AlignReturns restricts two return series to their overlapping dates,
// preserving date order. Both returned slices have equal length; they are
// empty when the series share no dates.
func AlignReturns(a, b ReturnSeries) (av, bv []float64) {
	bByDate := make(map[time.Time]float64, len(b.Dates))
	for i, date := range b.Dates {
		bByDate[date] = b.Values[i]
	}
	for i, date := range a.Dates {
		if bval, ok := bByDate[date]; ok {
			av = append(av, a.Values[i])
			bv = append(bv, bval)
		}
	}
	return av, bv
}
