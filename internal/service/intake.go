// Package service contains the business logic of the readiness engine:
// intake normalization, module selection, ROI estimation, pricing,
// narrative augmentation and the lead/project lifecycle.
package service

import (
	"strconv"
	"strings"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
)

// NormalizeIntake converts a raw submission into a typed intake. All free
// text is trimmed, numeric fields are parsed, and every invalid field is
// collected before returning, so the caller sees the complete list of
// problems in one ErrValidation.
func NormalizeIntake(raw domain.RawIntake) (domain.Intake, error) {
	verr := &domain.ErrValidation{}

	intake := domain.Intake{
		CompanyName:     strings.TrimSpace(raw.CompanyName),
		Industry:        strings.TrimSpace(raw.Industry),
		BusinessFocus:   strings.TrimSpace(raw.BusinessFocus),
		Region:          strings.TrimSpace(raw.Region),
		TeamRoles:       strings.TrimSpace(raw.TeamRoles),
		Bottlenecks:     strings.TrimSpace(raw.Bottlenecks),
		Processes:       strings.TrimSpace(raw.Processes),
		Systems:         strings.TrimSpace(raw.Systems),
		Goals:           strings.TrimSpace(raw.Goals),
		ContactEmail:    strings.TrimSpace(raw.ContactEmail),
		SelectedModules: normalizeModuleList(raw.SelectedModules),
	}

	if intake.CompanyName == "" {
		verr.Add("company_name", "is required")
	}

	intake.TeamSize = parseIntField(verr, "team_size", raw.TeamSize, true)
	intake.TeamSizeTarget = parseIntField(verr, "team_size_target", raw.TeamSizeTarget, false)
	intake.ManualHoursPerWeek = parseFloatField(verr, "manual_hours_per_week", raw.ManualHoursPerWeek)
	intake.ManualDaysPerWeek = parseFloatField(verr, "manual_days_per_week", raw.ManualDaysPerWeek)
	intake.AvgDailyCost = parseFloatField(verr, "avg_daily_cost_mxn", raw.AvgDailyCost)

	if len(verr.Fields) > 0 {
		return domain.Intake{}, verr
	}
	return intake, nil
}

// parseIntField parses an integer field. An empty value is "absent" (zero)
// unless required. Required counts must be positive; optional counts only
// reject negatives, so an explicit zero is a valid answer.
func parseIntField(verr *domain.ErrValidation, field, value string, required bool) int {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			verr.Add(field, "is required")
		}
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		verr.Add(field, "must be a whole number")
		return 0
	}
	if required && n <= 0 {
		verr.Add(field, "must be greater than zero")
		return 0
	}
	if n < 0 {
		verr.Add(field, "must not be negative")
		return 0
	}
	return n
}

// parseFloatField parses an optional non-negative number, empty meaning
// absent (zero).
func parseFloatField(verr *domain.ErrValidation, field, value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		verr.Add(field, "must be a number")
		return 0
	}
	if f < 0 {
		verr.Add(field, "must not be negative")
		return 0
	}
	return f
}

// normalizeModuleList trims entries and drops blanks, preserving order.
func normalizeModuleList(ids []string) []string {
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
