// Package domain defines the core business entities for the readiness
// engine. These models are independent of transport and storage and are
// the canonical data structures used throughout the pipeline.
package domain

// RawIntake is the untyped business profile as submitted by the caller.
// Numeric fields arrive as strings so the normalizer can distinguish
// "absent" from "present but invalid".
type RawIntake struct {
	CompanyName    string `json:"company_name"`
	Industry       string `json:"industry"`
	BusinessFocus  string `json:"business_focus"`
	Region         string `json:"region"`
	TeamSize       string `json:"team_size"`
	TeamSizeTarget string `json:"team_size_target"`
	TeamRoles      string `json:"team_roles"`

	ManualHoursPerWeek string `json:"manual_hours_per_week"`
	ManualDaysPerWeek  string `json:"manual_days_per_week"`
	AvgDailyCost       string `json:"avg_daily_cost_mxn"`

	Bottlenecks string `json:"bottlenecks"`
	Processes   string `json:"processes"`
	Systems     string `json:"systems"`
	Goals       string `json:"goals"`

	ContactEmail string `json:"contact_email"`

	// SelectedModules overrides automatic selection when non-empty.
	SelectedModules []string `json:"selected_modules"`
}

// Intake is the normalized, typed business profile.
type Intake struct {
	CompanyName    string `json:"company_name"`
	Industry       string `json:"industry"`
	BusinessFocus  string `json:"business_focus"`
	Region         string `json:"region"`
	TeamSize       int    `json:"team_size"`
	TeamSizeTarget int    `json:"team_size_target,omitempty"`
	TeamRoles      string `json:"team_roles,omitempty"`

	ManualHoursPerWeek float64 `json:"manual_hours_per_week"`
	ManualDaysPerWeek  float64 `json:"manual_days_per_week"`
	AvgDailyCost       float64 `json:"avg_daily_cost_mxn"`

	Bottlenecks string `json:"bottlenecks,omitempty"`
	Processes   string `json:"processes,omitempty"`
	Systems     string `json:"systems,omitempty"`
	Goals       string `json:"goals,omitempty"`

	ContactEmail string `json:"contact_email,omitempty"`

	SelectedModules []string `json:"selected_modules,omitempty"`
}

// ManualWeeklyHours returns the stated manual effort in hours per week,
// deriving it from days when hours were not given directly.
func (in Intake) ManualWeeklyHours() float64 {
	if in.ManualHoursPerWeek > 0 {
		return in.ManualHoursPerWeek
	}
	return in.ManualDaysPerWeek * HoursPerDay
}

// HoursPerDay is the working-day length used for effort conversions.
const HoursPerDay = 8
