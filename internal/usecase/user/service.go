package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	domainUser "marketlive/internal/domain/user"
	"marketlive/internal/identity"
	"marketlive/internal/infrastructure/identityhook"
	"marketlive/internal/logger"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"go.uber.org/zap"
)

// WebhookVerifier authenticates identity-provider webhook deliveries.
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

// Service keeps the local user and organization mirror in sync with the
// identity provider.
type Service struct {
	users    domainUser.Repository
	orgs     domainUser.OrganizationRepository
	verifier WebhookVerifier
	now      func() time.Time
}

func NewService(users domainUser.Repository, orgs domainUser.OrganizationRepository, verifier WebhookVerifier) *Service {
	return &Service{
		users:    users,
		orgs:     orgs,
		verifier: verifier,
		now:      time.Now,
	}
}

// HandleIdentityWebhook verifies a delivery and applies the event it carries.
func (s *Service) HandleIdentityWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if s.verifier == nil {
		return appErrors.NewAppError(appErrors.CodeVendor, "Identity webhooks are not configured", appErrors.ErrInvalidSignature)
	}
	if err := s.verifier.Verify(payload, headers); err != nil {
		logger.Warn("Rejected identity webhook", zap.Error(err))
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid webhook signature", err)
	}

	event, err := identityhook.Decode(payload)
	if err != nil {
		return err
	}
	return s.Apply(ctx, event)
}

// Apply mirrors one sync event into the local store.
func (s *Service) Apply(ctx context.Context, event domainUser.SyncEvent) error {
	switch ev := event.(type) {
	case domainUser.UserSynced:
		return s.syncUser(ctx, ev)
	case domainUser.UserDeleted:
		return s.deleteUser(ctx, ev.ExternalID)
	case domainUser.OrganizationSynced:
		return s.syncOrganization(ctx, ev)
	case domainUser.OrganizationDeleted:
		return s.deleteOrganization(ctx, ev.ExternalID)
	case domainUser.MembershipChanged:
		return s.applyMembership(ctx, ev)
	default:
		logger.Debug("Ignoring identity webhook", zap.String("type", event.EventType()))
		return nil
	}
}

func (s *Service) syncUser(ctx context.Context, ev domainUser.UserSynced) error {
	if ev.ExternalID == "" {
		return appErrors.Validation("user id is required", appErrors.ErrInvalidInput)
	}

	now := s.now()
	u := &domainUser.User{
		ExternalID: ev.ExternalID,
		Name:       ev.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if email := utils.SanitizeEmail(ev.Email); utils.IsValidEmail(email) {
		u.Email = utils.StringPtr(email)
	}

	if err := s.users.Upsert(ctx, u); err != nil {
		return err
	}

	logger.Info("User synced",
		zap.String("external_id", ev.ExternalID),
		zap.String("type", ev.Type),
		zap.String("event", "user_synced"),
	)
	return nil
}

func (s *Service) deleteUser(ctx context.Context, externalID string) error {
	err := s.users.DeleteByExternalID(ctx, externalID)
	if errors.Is(err, domainUser.ErrUserNotFound) {
		logger.Warn("Delete for unknown user", zap.String("external_id", externalID))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("User deleted",
		zap.String("external_id", externalID),
		zap.String("event", "user_deleted"),
	)
	return nil
}

func (s *Service) syncOrganization(ctx context.Context, ev domainUser.OrganizationSynced) error {
	if ev.ExternalID == "" {
		return appErrors.Validation("organization id is required", appErrors.ErrInvalidInput)
	}

	now := s.now()
	o := &domainUser.Organization{
		ExternalID:   ev.ExternalID,
		Name:         ev.Name,
		MembersCount: ev.MembersCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if ev.Slug != "" {
		o.Slug = utils.StringPtr(ev.Slug)
	}
	if ev.ImageURL != "" {
		o.ImageURL = utils.StringPtr(ev.ImageURL)
	}
	if ev.CreatedBy != "" {
		o.CreatedBy = utils.StringPtr(ev.CreatedBy)
	}

	if err := s.orgs.Upsert(ctx, o); err != nil {
		return err
	}

	logger.Info("Organization synced",
		zap.String("org_id", ev.ExternalID),
		zap.String("type", ev.Type),
		zap.String("event", "organization_synced"),
	)
	return nil
}

func (s *Service) deleteOrganization(ctx context.Context, externalID string) error {
	err := s.orgs.DeleteByExternalID(ctx, externalID)
	if errors.Is(err, domainUser.ErrOrganizationNotFound) {
		logger.Warn("Delete for unknown organization", zap.String("org_id", externalID))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("Organization deleted",
		zap.String("org_id", externalID),
		zap.String("event", "organization_deleted"),
	)
	return nil
}

// applyMembership sets the user's organization and role, or clears them when
// the membership for that organization was removed.
func (s *Service) applyMembership(ctx context.Context, ev domainUser.MembershipChanged) error {
	u, err := s.users.GetByExternalID(ctx, ev.UserID)
	if errors.Is(err, domainUser.ErrUserNotFound) {
		logger.Warn("Membership change for unknown user",
			zap.String("external_id", ev.UserID),
			zap.String("org_id", ev.OrgID),
		)
		return nil
	}
	if err != nil {
		return err
	}

	if ev.Removed {
		if u.OrgID != nil && ev.OrgID != "" && *u.OrgID != ev.OrgID {
			// user has since moved to another organization
			return nil
		}
		u.OrgID = nil
		u.Role = nil
	} else {
		u.OrgID = utils.StringPtr(ev.OrgID)
		u.Role = utils.StringPtr(identity.NormalizeRole(ev.Role))
	}
	u.UpdatedAt = s.now()

	if err := s.users.Update(ctx, u); err != nil {
		return err
	}

	logger.Info("Membership updated",
		zap.String("external_id", u.ExternalID),
		zap.String("org_id", utils.StringValue(u.OrgID)),
		zap.String("role", utils.StringValue(u.Role)),
		zap.String("event", "membership_updated"),
	)
	return nil
}

// ResolveRole returns the role stored for subject, or "" when the user is
// unknown or has none.
func (s *Service) ResolveRole(ctx context.Context, subject string) (string, error) {
	u, err := s.users.GetByExternalID(ctx, subject)
	if errors.Is(err, domainUser.ErrUserNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return utils.StringValue(u.Role), nil
}

// Me returns the caller's mirrored profile.
func (s *Service) Me(ctx context.Context, id *identity.Identity) (*UserResponse, error) {
	if !id.Authenticated() {
		return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", appErrors.ErrUnauthorized)
	}
	u, err := s.users.GetByExternalID(ctx, id.Subject)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(u), nil
}
