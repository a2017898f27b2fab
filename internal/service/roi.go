package service

import (
	"math"
	"strings"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
)

const (
	// weeksPerMonth converts weekly savings to monthly figures.
	weeksPerMonth = 4.33

	// defaultHourlyCost is the fallback blended hourly cost in MXN when the
	// intake gives no daily cost and the industry is unknown.
	defaultHourlyCost = 110.0
)

// industryHourlyCost is the blended hourly labor cost in MXN per industry,
// used when the intake omits avg_daily_cost_mxn.
var industryHourlyCost = map[string]float64{
	"retail":       100,
	"ecommerce":    105,
	"restaurantes": 90,
	"salud":        140,
	"servicios":    125,
	"manufactura":  115,
}

// teamFactor scales savings by organization size: very small teams absorb
// less automation, larger teams multiply it.
func teamFactor(teamSize int) float64 {
	switch {
	case teamSize <= 5:
		return 0.6
	case teamSize <= 20:
		return 1.0
	case teamSize <= 50:
		return 1.3
	default:
		return 1.5
	}
}

// EstimateROI projects weekly hours saved and monthly cost saved for the
// selected modules. Hours saved sum each module's coefficient scaled by the
// team factor, capped at the stated manual effort: automation cannot save
// more time than the business spends. Full precision is kept; callers round
// at assembly. PaybackMonths is filled in later, once the quote total is
// known.
func EstimateROI(intake domain.Intake, selection []domain.ScoredModule) domain.ROIFigures {
	factor := teamFactor(intake.TeamSize)

	var hours float64
	for _, m := range selection {
		hours += m.Entry.HoursCoefficient * factor
	}
	// Zero stated manual effort means zero savings.
	if manual := intake.ManualWeeklyHours(); hours > manual {
		hours = manual
	}

	hourly := defaultHourlyCost
	if intake.AvgDailyCost > 0 {
		hourly = intake.AvgDailyCost / domain.HoursPerDay
	} else if v, ok := industryHourlyCost[strings.ToLower(strings.TrimSpace(intake.Industry))]; ok {
		hourly = v
	}

	return domain.ROIFigures{
		WeeklyHoursSaved: hours,
		MonthlyCostSaved: hours * hourly * weeksPerMonth,
	}
}

// Payback returns the months to recover the quoted total from monthly
// savings, or nil when there are no savings to recover it from.
func Payback(quoteTotal int, monthlySaved float64) *float64 {
	if monthlySaved <= 0 {
		return nil
	}
	months := float64(quoteTotal) / monthlySaved
	return &months
}

// round1 rounds to one decimal place for display.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
