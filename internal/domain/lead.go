package domain

import "time"

// Lead is the durable record of a completed diagnosis request.
type Lead struct {
	ID           string     `json:"lead_id"`
	CompanyName  string     `json:"company_name"`
	Industry     string     `json:"industry"`
	ContactEmail string     `json:"contact_email,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Diagnosis    *Diagnosis `json:"diagnosis"`

	// AccessCodeHash is the bcrypt hash of the portal access code.
	// Never serialized.
	AccessCodeHash string `json:"-"`
	// AccessCodeHint is the last two digits, shown back to the lead.
	AccessCodeHint string `json:"access_code_hint,omitempty"`
}

// LeadAuth is the subset of a lead used to validate a portal login.
type LeadAuth struct {
	LeadID         string
	ContactEmail   string
	AccessCodeHash string
}

// ProjectStatus is the onboarding state of a project. Transitions are
// forward only; sent_to_automation is terminal and handoff_failed may
// re-enter ready_for_handoff on retry.
type ProjectStatus string

const (
	StatusRequested          ProjectStatus = "requested"
	StatusCredentialsPending ProjectStatus = "credentials_pending"
	StatusReadyForHandoff    ProjectStatus = "ready_for_handoff"
	StatusSentToAutomation   ProjectStatus = "sent_to_automation"
	StatusHandoffFailed      ProjectStatus = "handoff_failed"
)

// allowedTransitions is the forward-only status machine.
var allowedTransitions = map[ProjectStatus][]ProjectStatus{
	StatusRequested:          {StatusCredentialsPending, StatusReadyForHandoff},
	StatusCredentialsPending: {StatusReadyForHandoff},
	StatusReadyForHandoff:    {StatusSentToAutomation, StatusHandoffFailed},
	StatusHandoffFailed:      {StatusReadyForHandoff},
	StatusSentToAutomation:   nil, // terminal
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to ProjectStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known project status.
func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusRequested, StatusCredentialsPending, StatusReadyForHandoff,
		StatusSentToAutomation, StatusHandoffFailed:
		return true
	}
	return false
}

// Project is the durable record of a customer's opt-in to implement
// selected modules. A lead has zero or one project; a project exclusively
// owns its credential list.
type Project struct {
	ID              string        `json:"project_id"`
	LeadID          string        `json:"lead_id"`
	Status          ProjectStatus `json:"status"`
	SelectedModules []string      `json:"selected_modules"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// AccessCredential is a third-party access secret owned by a project.
// The secret is stored encrypted at rest and never serialized.
type AccessCredential struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	ServiceName     string    `json:"service_name"`
	EncryptedSecret string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// HandoffEvent is the structured event emitted to the workflow-automation
// webhook when a project reaches ready_for_handoff.
type HandoffEvent struct {
	LeadID           string     `json:"lead_id"`
	ProjectID        string     `json:"project_id"`
	CompanyName      string     `json:"company_name"`
	SelectedModules  []string   `json:"selected_modules"`
	RecommendedNames []string   `json:"recommended_names"`
	ROI              ROIFigures `json:"roi"`
	QuoteTotal       int        `json:"quote_total_mxn"`
	Narrative        string     `json:"narrative"`
}
