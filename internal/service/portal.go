package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/observability"
	"github.com/kanlogic/readiness-engine-go/internal/port"
)

// PortalService authenticates leads against their access code and serves
// their stored diagnosis.
type PortalService struct {
	store     port.Store
	cache     port.Cache[*domain.Lead]
	jwtSecret []byte
	tokenTTL  time.Duration
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewPortalService creates the portal service.
func NewPortalService(store port.Store, cache port.Cache[*domain.Lead], jwtSecret string, tokenTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *PortalService {
	return &PortalService{
		store:     store,
		cache:     cache,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		metrics:   metrics,
		logger:    logger,
	}
}

// Login validates the 6-digit access code for a lead and issues a signed
// session token. When the lead registered a contact email, it must match
// too. Unknown leads and wrong codes both come back as ErrUnauthorized so
// the response does not reveal which ids exist.
func (s *PortalService) Login(ctx context.Context, leadID, email, accessCode string) (string, error) {
	ctx, span := tracer.Start(ctx, "PortalService.Login")
	defer span.End()

	auth, err := s.store.GetLeadAuth(ctx, leadID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return "", &domain.ErrUnauthorized{Message: "invalid lead id or access code"}
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(auth.AccessCodeHash), []byte(accessCode)); err != nil {
		s.logger.Warn("portal login rejected", zap.String("lead_id", leadID))
		return "", &domain.ErrUnauthorized{Message: "invalid lead id or access code"}
	}
	if auth.ContactEmail != "" && !strings.EqualFold(strings.TrimSpace(email), auth.ContactEmail) {
		return "", &domain.ErrUnauthorized{Message: "invalid lead id or access code"}
	}

	claims := jwt.MapClaims{
		"sub": leadID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}
	return token, nil
}

// ValidateToken verifies a portal session token and returns the lead id.
func (s *PortalService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &domain.ErrUnauthorized{Message: "unexpected signing method"}
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", &domain.ErrUnauthorized{Message: "invalid token claims"}
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", &domain.ErrUnauthorized{Message: "invalid token claims"}
	}
	return sub, nil
}

// GetLead returns a lead with its diagnosis, cached per lead id.
func (s *PortalService) GetLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	if lead, ok := s.cache.Get(leadID); ok {
		s.metrics.IncrCacheHit("lead")
		return lead, nil
	}
	s.metrics.IncrCacheMiss("lead")

	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(leadID, lead)
	return lead, nil
}
