// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
)

// Narrator invokes the external generative-text capability. Implementations
// may fail; the augmentation layer above this port never lets a failure
// escape (it falls back to the deterministic template).
type Narrator interface {
	Generate(ctx context.Context, req *domain.NarrativeRequest) (*domain.NarrativeResponse, error)
}

// Store defines all data operations for leads, projects and credentials.
// Implemented by the sqlite adapter (or any other persistence layer).
type Store interface {
	// Leads
	CreateLead(ctx context.Context, lead *domain.Lead) error
	GetLead(ctx context.Context, leadID string) (*domain.Lead, error)
	GetLeadAuth(ctx context.Context, leadID string) (*domain.LeadAuth, error)

	// Projects
	CreateProject(ctx context.Context, project *domain.Project) error
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)
	// AdvanceStatus updates the status only when the stored status equals
	// expected (compare-and-swap). Mismatch yields ErrConflict.
	AdvanceStatus(ctx context.Context, projectID string, expected, next domain.ProjectStatus) error

	// Credentials
	AddCredential(ctx context.Context, cred *domain.AccessCredential) error
	ListCredentials(ctx context.Context, projectID string) ([]domain.AccessCredential, error)
}

// SecretBox encrypts and decrypts credential secrets at rest.
type SecretBox interface {
	Configured() bool
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// WorkflowDispatcher delivers handoff events to the workflow-automation
// platform and provisions workflow templates for messaging modules.
type WorkflowDispatcher interface {
	Dispatch(ctx context.Context, event *domain.HandoffEvent) error
	Provision(ctx context.Context, projectID string, moduleIDs []string, placeholders map[string]string) error
}

// AccessValidator checks messaging-platform credentials against the
// provider before handoff. Best effort only.
type AccessValidator interface {
	ValidateWhatsApp(ctx context.Context, phoneNumberID, token string) error
	ValidateMessenger(ctx context.Context, pageID, token string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
