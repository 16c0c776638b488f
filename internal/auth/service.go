package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/pkg/apperrors"
	"github.com/eventboard/backend/pkg/utils"
)

// SignupRequest is the body for POST /signup.
type SignupRequest struct {
	Username    string          `json:"username" validate:"required,email"`
	Password    string          `json:"password" validate:"required"`
	UserType    models.UserType `json:"userType" validate:"omitempty,oneof=admin regular"`
	OrgName     string          `json:"orgName"`
	OrgLocation string          `json:"orgLocation"`
}

// LoginRequest is the body for POST /login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserStore is the user persistence the service needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
}

// OrgStore creates organizations; it stores the name in slug form.
type OrgStore interface {
	Create(ctx context.Context, org *models.Organization) (*models.Organization, error)
}

// Service implements signup and credential checks.
type Service struct {
	users         UserStore
	orgs          OrgStore
	defaultLocale string
	logger        *zap.Logger

	// signupMu holds the username check and the inserts after it together within
	// this process; across processes the unique username index decides.
	signupMu sync.Mutex

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates an auth service. Organizations created at signup get
// defaultLocale.
func NewService(users UserStore, orgs OrgStore, defaultLocale string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, orgs: orgs, defaultLocale: defaultLocale, logger: logger}
}

// Signup registers a user. An admin signup first creates the admin's organization.
// If creating the user fails after that, the organization stays behind; it is
// logged with its id and not removed.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	if req.UserType == "" {
		req.UserType = models.UserTypeRegular
	}
	if req.UserType == models.UserTypeAdmin && req.OrgName == "" {
		return nil, apperrors.NewValidationError("orgName", `"orgName" is required`)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.signupMu.Lock()
	defer s.signupMu.Unlock()

	_, err = s.users.GetByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return nil, apperrors.ErrUsernameTaken
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("check username: %w", err)
	}
	user := &models.User{
		Username: req.Username,
		Password: hash,
		UserType: req.UserType,
	}

	if req.UserType == models.UserTypeAdmin {
		org, err := s.orgs.Create(ctx, &models.Organization{
			Name:              req.OrgName,
			Location:          req.OrgLocation,
			Locale:            s.defaultLocale,
			ConfirmationEmail: req.Username,
		})
		if err != nil {
			return nil, fmt.Errorf("create signup organization: %w", err)
		}
		user.OrgID = org.ID
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if user.OrgID != "" {
			s.logger.Error("signup left an organization without admin",
				zap.String("org_id", user.OrgID),
				zap.String("username", req.Username),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("create signup user: %w", err)
	}
	return created, nil
}

// Authenticate returns the user when password matches. Unknown usernames and wrong
// passwords both yield ErrInvalidCredentials after a hash comparison.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			utils.CheckPassword(password, s.dummy())
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// dummy returns a hash to compare against for unknown users so both failure paths
// cost one bcrypt comparison.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = utils.HashPassword("not-a-real-password")
	})
	return s.dummyHash
}
