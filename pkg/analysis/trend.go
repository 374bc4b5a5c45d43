package analysis

import (
	"fmt"
	"math"
	"sort"

	"keyword-intel/pkg/model"
)

const (
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
	PeriodYearly    = "yearly"

	DirectionUp     = "up"
	DirectionDown   = "down"
	DirectionStable = "stable"

	TrendStable = "stable"
)

// Stability bands, in percent.
const (
	monthlyStableBand   = 10.0
	quarterlyStableBand = 15.0
	yearlyStableBand    = 10.0
	halvesStableBand    = 25.0
)

// ComputeTrend derives a TrendSummary from monthly volumes. Input order does
// not matter; points are sorted chronologically first.
func ComputeTrend(points []model.MonthPoint) model.TrendSummary {
	n := len(points)
	if n < 2 {
		return insufficientTrend(n)
	}

	volumes := sortedVolumes(points)
	summary := model.TrendSummary{
		QuarterlyTrend: model.InsufficientData,
		YearlyTrend:    model.InsufficientData,
		Seasonality:    classifySeasonality(volumes),
		Volatility:     classifyVolatility(volumes),
		DataPoints:     n,
	}

	w := n / 2
	if w > 3 {
		w = 3
	}
	monthly := percentChange(mean(volumes[n-2*w:n-w]), mean(volumes[n-w:]))
	summary.MonthlyPct = &monthly
	summary.MonthlyTrend = formatChange(monthly, monthlyStableBand)

	if n >= 6 {
		quarterly := percentChange(mean(volumes[n-6:n-3]), mean(volumes[n-3:]))
		summary.QuarterlyPct = &quarterly
		summary.QuarterlyTrend = formatChange(quarterly, quarterlyStableBand)
	}

	switch {
	case n >= 24:
		yearly := percentChange(mean(volumes[n-24:n-12]), mean(volumes[n-12:]))
		summary.YearlyPct = &yearly
		summary.YearlyTrend = formatChange(yearly, yearlyStableBand)
	case n >= 12:
		half := n / 2
		yearly := percentChange(mean(volumes[:half]), mean(volumes[n-half:]))
		summary.YearlyPct = &yearly
		summary.YearlyTrend = formatChange(yearly, halvesStableBand)
	}

	summary.LatestTrend, summary.Direction, summary.Period = headline(summary)
	return summary
}

// headline picks the first of monthly, quarterly, yearly that shows a change.
// A stable period is skipped like a missing one.
// Older consumers skipped only an exact 0% change; a +0.5% month now falls
// through to the quarter instead of headlining as "stable".
func headline(s model.TrendSummary) (trend, direction, period string) {
	candidates := []struct {
		text   string
		pct    *float64
		period string
	}{
		{s.MonthlyTrend, s.MonthlyPct, PeriodMonthly},
		{s.QuarterlyTrend, s.QuarterlyPct, PeriodQuarterly},
		{s.YearlyTrend, s.YearlyPct, PeriodYearly},
	}

	for _, c := range candidates {
		if c.pct == nil || c.text == TrendStable || c.text == model.InsufficientData {
			continue
		}
		if *c.pct > 0 {
			return c.text, DirectionUp, c.period
		}
		return c.text, DirectionDown, c.period
	}
	return TrendStable, DirectionStable, TrendStable
}

func insufficientTrend(n int) model.TrendSummary {
	return model.TrendSummary{
		LatestTrend:    model.InsufficientData,
		Direction:      model.InsufficientData,
		Period:         model.InsufficientData,
		MonthlyTrend:   model.InsufficientData,
		QuarterlyTrend: model.InsufficientData,
		YearlyTrend:    model.InsufficientData,
		Seasonality:    model.InsufficientData,
		Volatility:     model.InsufficientData,
		DataPoints:     n,
	}
}

func sortedVolumes(points []model.MonthPoint) []float64 {
	sorted := append([]model.MonthPoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year < sorted[j].Year
		}
		return sorted[i].Month < sorted[j].Month
	})

	volumes := make([]float64, len(sorted))
	for i, p := range sorted {
		volumes[i] = float64(p.SearchVolume)
	}
	return volumes
}

// percentChange is rounded to one decimal. Growth from zero counts as +100%.
func percentChange(before, after float64) float64 {
	if before == 0 {
		if after == 0 {
			return 0
		}
		return 100
	}
	return round1((after - before) / before * 100)
}

func formatChange(pct, band float64) string {
	if math.Abs(pct) <= band {
		return TrendStable
	}
	return fmt.Sprintf("%+.1f%%", pct)
}

func classifySeasonality(volumes []float64) string {
	lo, hi := volumes[0], volumes[0]
	for _, v := range volumes[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == 0 {
		return "low"
	}
	return band((hi-lo)/hi, 0.25, 0.40, 0.60)
}

func classifyVolatility(volumes []float64) string {
	m := mean(volumes)
	if m == 0 {
		return "low"
	}
	var sq float64
	for _, v := range volumes {
		sq += (v - m) * (v - m)
	}
	stddev := math.Sqrt(sq / float64(len(volumes)))
	return band(stddev/m, 0.15, 0.30, 0.40)
}

// band maps v onto low/medium/high/very_high using strict thresholds.
func band(v, medium, high, veryHigh float64) string {
	switch {
	case v > veryHigh:
		return "very_high"
	case v > high:
		return "high"
	case v > medium:
		return "medium"
	default:
		return "low"
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
