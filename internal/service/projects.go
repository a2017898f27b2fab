package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kanlogic/readiness-engine-go/internal/catalog"
	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/observability"
	"github.com/kanlogic/readiness-engine-go/internal/port"
)

// ProjectService manages the post-diagnosis lifecycle: project creation,
// credential intake, status transitions and the handoff to the workflow
// automation platform.
type ProjectService struct {
	store      port.Store
	secrets    port.SecretBox
	dispatcher port.WorkflowDispatcher
	validator  port.AccessValidator
	catalog    *catalog.Catalog
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewProjectService creates the project lifecycle service. validator may be
// nil when credential pre-validation is not configured.
func NewProjectService(store port.Store, secrets port.SecretBox, dispatcher port.WorkflowDispatcher, validator port.AccessValidator, cat *catalog.Catalog, metrics *observability.Metrics, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		store:      store,
		secrets:    secrets,
		dispatcher: dispatcher,
		validator:  validator,
		catalog:    cat,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateProject opens a project for an existing lead. Module ids must exist
// in the catalog; the project starts in requested.
func (s *ProjectService) CreateProject(ctx context.Context, leadID string, moduleIDs []string, notes string) (*domain.Project, error) {
	ctx, span := tracer.Start(ctx, "ProjectService.CreateProject")
	defer span.End()

	verr := &domain.ErrValidation{}
	if leadID == "" {
		verr.Add("lead_id", "is required")
	}
	if len(moduleIDs) == 0 {
		verr.Add("selected_modules", "at least one module is required")
	}
	for _, id := range moduleIDs {
		if _, err := s.catalog.Get(id); err != nil {
			verr.Add("selected_modules", "unknown module: "+id)
		}
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	now := time.Now().UTC()
	project := &domain.Project{
		ID:              uuid.New().String(),
		LeadID:          leadID,
		Status:          domain.StatusRequested,
		SelectedModules: moduleIDs,
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	s.metrics.IncrProjectCreated()
	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("lead_id", leadID),
		zap.Int("modules", len(moduleIDs)),
	)
	return project, nil
}

// GetProject loads a project by id.
func (s *ProjectService) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	return s.store.GetProject(ctx, projectID)
}

// AddCredential encrypts and stores a third-party secret for a project.
// Refused outright when no encryption key is configured: secrets are never
// written in the clear. A fresh project moves to credentials_pending; a
// concurrent move is not an error here.
func (s *ProjectService) AddCredential(ctx context.Context, projectID, serviceName, secret string) (*domain.AccessCredential, error) {
	ctx, span := tracer.Start(ctx, "ProjectService.AddCredential")
	defer span.End()

	verr := &domain.ErrValidation{}
	if serviceName == "" {
		verr.Add("service_name", "is required")
	}
	if secret == "" {
		verr.Add("secret", "is required")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	if !s.secrets.Configured() {
		return nil, &domain.ErrConfiguration{
			Setting: "DATA_ENCRYPTION_KEY",
			Message: "credential storage requires an encryption key",
		}
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.secrets.Encrypt(secret)
	if err != nil {
		return nil, err
	}

	cred := &domain.AccessCredential{
		ID:              uuid.New().String(),
		ProjectID:       projectID,
		ServiceName:     serviceName,
		EncryptedSecret: encrypted,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.AddCredential(ctx, cred); err != nil {
		return nil, err
	}

	if project.Status == domain.StatusRequested {
		err := s.store.AdvanceStatus(ctx, projectID, domain.StatusRequested, domain.StatusCredentialsPending)
		var conflict *domain.ErrConflict
		if err != nil && !errors.As(err, &conflict) {
			return nil, err
		}
	}

	s.logger.Info("credential stored",
		zap.String("project_id", projectID),
		zap.String("service", serviceName),
	)
	return cred, nil
}

// AdvanceStatus applies one status transition after validating it against
// the status machine, then lets the store enforce it atomically.
func (s *ProjectService) AdvanceStatus(ctx context.Context, projectID string, next domain.ProjectStatus) (*domain.Project, error) {
	if !domain.ValidStatus(next) {
		return nil, (&domain.ErrValidation{}).Add("status", "unknown status: "+string(next))
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(project.Status, next) {
		return nil, &domain.ErrConflict{
			Resource: "project",
			Expected: string(project.Status),
			Actual:   string(next),
		}
	}
	if err := s.store.AdvanceStatus(ctx, projectID, project.Status, next); err != nil {
		return nil, err
	}
	return s.store.GetProject(ctx, projectID)
}

// MarkReady moves a project to ready_for_handoff and triggers the handoff.
// Dispatch outcome is recorded as a status, not an error: a failed webhook
// leaves the project in handoff_failed for retry, and MarkReady on a
// handoff_failed project retries the handoff.
func (s *ProjectService) MarkReady(ctx context.Context, projectID string) (*domain.Project, error) {
	ctx, span := tracer.Start(ctx, "ProjectService.MarkReady")
	defer span.End()

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project.Status != domain.StatusReadyForHandoff {
		if !domain.CanTransition(project.Status, domain.StatusReadyForHandoff) {
			return nil, &domain.ErrConflict{
				Resource: "project",
				Expected: string(project.Status),
				Actual:   string(domain.StatusReadyForHandoff),
			}
		}
		if err := s.store.AdvanceStatus(ctx, projectID, project.Status, domain.StatusReadyForHandoff); err != nil {
			return nil, err
		}
	}

	s.handoff(ctx, projectID)
	return s.store.GetProject(ctx, projectID)
}

// handoff builds the handoff event from the lead's diagnosis and dispatches
// it, recording the outcome as the project's next status.
func (s *ProjectService) handoff(ctx context.Context, projectID string) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		s.logger.Error("handoff aborted: project load failed",
			zap.String("project_id", projectID), zap.Error(err))
		return
	}
	lead, err := s.store.GetLead(ctx, project.LeadID)
	if err != nil {
		s.logger.Error("handoff aborted: lead load failed",
			zap.String("project_id", projectID), zap.Error(err))
		return
	}

	event := &domain.HandoffEvent{
		LeadID:          lead.ID,
		ProjectID:       project.ID,
		CompanyName:     lead.CompanyName,
		SelectedModules: project.SelectedModules,
	}
	if d := lead.Diagnosis; d != nil {
		for _, r := range d.Recommendations {
			event.RecommendedNames = append(event.RecommendedNames, r.Name)
		}
		event.ROI = d.ROI
		event.QuoteTotal = d.Quote.Total
		event.Narrative = d.Narrative
	}

	next := domain.StatusSentToAutomation
	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		s.logger.Error("handoff dispatch failed",
			zap.String("project_id", projectID), zap.Error(err))
		s.metrics.IncrExternalError("n8n")
		next = domain.StatusHandoffFailed
	}

	err = s.store.AdvanceStatus(ctx, projectID, domain.StatusReadyForHandoff, next)
	var conflict *domain.ErrConflict
	if err != nil && !errors.As(err, &conflict) {
		s.logger.Error("handoff status update failed",
			zap.String("project_id", projectID), zap.Error(err))
		return
	}

	// Templates are provisioned once, after the handoff went through. A
	// lost CAS means another caller owns this handoff and provisions it.
	if next == domain.StatusSentToAutomation && err == nil {
		s.ProvisionWorkflows(ctx, projectID)
	}

	s.logger.Info("handoff completed",
		zap.String("project_id", projectID),
		zap.String("status", string(next)),
	)
}

// messagingServices maps the stored credential service names that can be
// pre-validated against the provider.
const (
	serviceWhatsApp  = "whatsapp"
	serviceMessenger = "messenger"
)

// AccessCheck is the outcome of validating one stored credential.
type AccessCheck struct {
	ServiceName string `json:"service_name"`
	Valid       bool   `json:"valid"`
	Detail      string `json:"detail,omitempty"`
}

// ValidateAccess checks every validatable stored credential against its
// provider in parallel. Unknown service names are skipped; an individual
// check failing is a result, not an error.
func (s *ProjectService) ValidateAccess(ctx context.Context, projectID string, identifiers map[string]string) ([]AccessCheck, error) {
	ctx, span := tracer.Start(ctx, "ProjectService.ValidateAccess")
	defer span.End()

	if s.validator == nil {
		return nil, &domain.ErrConfiguration{
			Setting: "META_GRAPH",
			Message: "credential validation is not configured",
		}
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	creds, err := s.store.ListCredentials(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// One check per stored credential, so duplicate service names are each
	// validated against their own secret.
	var checks []AccessCheck
	var targets []domain.AccessCredential
	for _, c := range creds {
		if c.ServiceName == serviceWhatsApp || c.ServiceName == serviceMessenger {
			checks = append(checks, AccessCheck{ServiceName: c.ServiceName})
			targets = append(targets, c)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range checks {
		i := i
		cred := targets[i]
		g.Go(func() error {
			token, err := s.secrets.Decrypt(cred.EncryptedSecret)
			if err != nil {
				checks[i].Detail = "stored credential could not be decrypted"
				return nil
			}
			id := identifiers[checks[i].ServiceName]

			var verr error
			switch checks[i].ServiceName {
			case serviceWhatsApp:
				verr = s.validator.ValidateWhatsApp(gctx, id, token)
			case serviceMessenger:
				verr = s.validator.ValidateMessenger(gctx, id, token)
			}
			if verr != nil {
				checks[i].Detail = verr.Error()
				s.metrics.IncrExternalError("meta")
				return nil
			}
			checks[i].Valid = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return checks, nil
}

// messagingModules lists the module ids that get a workflow template
// provisioned at handoff time.
var messagingModules = map[string]bool{
	"whatsapp_sales_bot": true,
	"support_chatbot":    true,
}

// ProvisionWorkflows creates workflow templates for the project's messaging
// modules. Best effort: a provisioning failure is logged, never escalated.
func (s *ProjectService) ProvisionWorkflows(ctx context.Context, projectID string) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		s.logger.Warn("workflow provisioning skipped",
			zap.String("project_id", projectID), zap.Error(err))
		return
	}

	var ids []string
	for _, id := range project.SelectedModules {
		if messagingModules[id] {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}

	lead, err := s.store.GetLead(ctx, project.LeadID)
	if err != nil {
		s.logger.Warn("workflow provisioning skipped",
			zap.String("project_id", projectID), zap.Error(err))
		return
	}

	placeholders := map[string]string{
		"COMPANY_NAME": lead.CompanyName,
		"PROJECT_ID":   project.ID,
		"LEAD_ID":      lead.ID,
	}
	if err := s.dispatcher.Provision(ctx, projectID, ids, placeholders); err != nil {
		s.logger.Warn("workflow provisioning failed",
			zap.String("project_id", projectID), zap.Error(err))
		s.metrics.IncrExternalError("n8n")
	}
}
