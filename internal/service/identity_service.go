package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/internal/repository"
	"github.com/d60-Lab/zingg/pkg/logger"
	"github.com/d60-Lab/zingg/pkg/telemetry"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

// ValidUsername 用于自选用户名与请求绑定校验
func ValidUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

// AuthEvent 认证事件：CredentialEvent 或 ProviderEvent
type AuthEvent interface {
	authEvent()
}

// CredentialEvent 用户名 + 密码登录
type CredentialEvent struct {
	Username string
	Password string
}

// ProviderEvent 第三方登录回调
type ProviderEvent struct {
	ProviderName string
	Email        string
	DisplayName  string
	ImageURL     string
}

func (CredentialEvent) authEvent() {}
func (ProviderEvent) authEvent()   {}

type SignUpInput struct {
	Name     string
	Username string // 为空时自动分配
	Email    string
	Password string
}

// ProfileUpdate nil 字段保持不变
type ProfileUpdate struct {
	Name  *string
	Image *string
}

type IdentityService interface {
	SignUp(ctx context.Context, in SignUpInput) (model.AuthenticatedIdentity, error)
	// Resolve 把认证事件归并到唯一账号
	Resolve(ctx context.Context, ev AuthEvent) (model.AuthenticatedIdentity, error)
	Profile(ctx context.Context, viewerID, username string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, identityID string, upd ProfileUpdate) (model.AuthenticatedIdentity, error)
}

type identityService struct {
	users      repository.UserRepository
	follows    repository.FollowRepository
	allocator  *UsernameAllocator
	validate   *validator.Validate
	bcryptCost int
	log        *zap.Logger
}

func NewIdentityService(users repository.UserRepository, follows repository.FollowRepository, allocator *UsernameAllocator, bcryptCost int) IdentityService {
	v := validator.New()
	_ = v.RegisterValidation("username", ValidUsername)
	return &identityService{
		users:      users,
		follows:    follows,
		allocator:  allocator,
		validate:   v,
		bcryptCost: bcryptCost,
		log:        logger.Named("identity"),
	}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *identityService) SignUp(ctx context.Context, in SignUpInput) (model.AuthenticatedIdentity, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if name == "" || email == "" || in.Password == "" {
		return model.AuthenticatedIdentity{}, ErrMissingFields
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return model.AuthenticatedIdentity{}, ErrInvalidEmail
	}
	if username != "" {
		if err := s.validate.Var(username, "username"); err != nil {
			return model.AuthenticatedIdentity{}, ErrInvalidUsername
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return model.AuthenticatedIdentity{}, fmt.Errorf("hash password: %w", err)
	}
	hashed := string(hash)

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        &email,
		Name:         name,
		Provider:     model.ProviderCredentials,
		PasswordHash: &hashed,
	}
	err = s.users.Transaction(ctx, func(tx repository.UserRepository) error {
		if err := tx.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailTaken
			}
			return err
		}
		if username != "" {
			ok, err := tx.ClaimUsername(ctx, u.ID, username)
			if err != nil {
				return err
			}
			if !ok {
				return ErrUsernameTaken
			}
			u.Username = &username
			return nil
		}
		allocated, err := s.allocator.Allocate(ctx, tx, u.ID, name, email)
		if err != nil {
			return err
		}
		u.Username = &allocated
		return nil
	})
	if err != nil {
		return model.AuthenticatedIdentity{}, err
	}

	s.log.Info("identity created", zap.String("id", u.ID), zap.String("provider", u.Provider))
	return u.Identity(), nil
}

func (s *identityService) Resolve(ctx context.Context, ev AuthEvent) (id model.AuthenticatedIdentity, err error) {
	ctx, span := telemetry.StartSpan(ctx, "identity.resolve")
	defer func() { telemetry.End(span, err) }()

	switch e := ev.(type) {
	case CredentialEvent:
		span.SetAttributes(attribute.String("provider", model.ProviderCredentials))
		return s.resolveCredentials(ctx, e)
	case ProviderEvent:
		span.SetAttributes(attribute.String("provider", e.ProviderName))
		return s.resolveProvider(ctx, e)
	default:
		return model.AuthenticatedIdentity{}, fmt.Errorf("unsupported auth event %T", ev)
	}
}

func (s *identityService) resolveCredentials(ctx context.Context, e CredentialEvent) (model.AuthenticatedIdentity, error) {
	username := strings.ToLower(strings.TrimSpace(e.Username))
	if username == "" || e.Password == "" {
		return model.AuthenticatedIdentity{}, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.AuthenticatedIdentity{}, err
	}
	if u == nil || u.PasswordHash == nil {
		return model.AuthenticatedIdentity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(e.Password)); err != nil {
		return model.AuthenticatedIdentity{}, ErrInvalidCredentials
	}
	return u.Identity(), nil
}

func (s *identityService) resolveProvider(ctx context.Context, e ProviderEvent) (model.AuthenticatedIdentity, error) {
	email := normalizeEmail(e.Email)
	if email == "" {
		s.log.Warn("provider sign-in without email", zap.String("provider", e.ProviderName))
		return model.AuthenticatedIdentity{}, ErrEmailRequired
	}
	provider := strings.ToLower(strings.TrimSpace(e.ProviderName))
	if provider == "" {
		return model.AuthenticatedIdentity{}, ErrMissingFields
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return model.AuthenticatedIdentity{}, err
	}
	if u != nil {
		return s.link(ctx, u, provider)
	}

	u, err = s.createFromProvider(ctx, email, provider, e)
	if errors.Is(err, repository.ErrDuplicate) {
		// 同一邮箱的并发首次登录，收敛到先写入的那一行
		winner, lookupErr := s.users.GetByEmail(ctx, email)
		if lookupErr != nil {
			return model.AuthenticatedIdentity{}, lookupErr
		}
		if winner == nil {
			return model.AuthenticatedIdentity{}, err
		}
		return s.link(ctx, winner, provider)
	}
	if err != nil {
		return model.AuthenticatedIdentity{}, err
	}
	s.log.Info("identity created", zap.String("id", u.ID), zap.String("provider", provider))
	return u.Identity(), nil
}

// link 已有账号：只覆盖 provider 标记，最后一次登录方式生效
func (s *identityService) link(ctx context.Context, u *model.User, provider string) (model.AuthenticatedIdentity, error) {
	if u.Provider != provider {
		if err := s.users.UpdateProvider(ctx, u.ID, provider); err != nil {
			return model.AuthenticatedIdentity{}, err
		}
		s.log.Info("provider relinked",
			zap.String("id", u.ID),
			zap.String("from", u.Provider),
			zap.String("to", provider),
		)
		u.Provider = provider
	}
	return u.Identity(), nil
}

func (s *identityService) createFromProvider(ctx context.Context, email, provider string, e ProviderEvent) (*model.User, error) {
	displayName := strings.TrimSpace(e.DisplayName)
	u := &model.User{
		ID:       uuid.New().String(),
		Email:    &email,
		Name:     displayName,
		Image:    strings.TrimSpace(e.ImageURL),
		Provider: provider,
	}
	seed := displayName
	if seed == "" {
		seed = "user"
	}
	err := s.users.Transaction(ctx, func(tx repository.UserRepository) error {
		if err := tx.Create(ctx, u); err != nil {
			return err
		}
		username, err := s.allocator.Allocate(ctx, tx, u.ID, seed, email)
		if err != nil {
			return err
		}
		u.Username = &username
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *identityService) Profile(ctx context.Context, viewerID, username string) (*model.Profile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, ErrMissingFields
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	followers, following, err := s.follows.Counts(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	p := &model.Profile{
		ID:             u.ID,
		Username:       u.UsernameOrEmpty(),
		Name:           u.Name,
		Image:          u.Image,
		FollowersCount: followers,
		FollowingCount: following,
	}
	switch {
	case viewerID == u.ID:
		p.Email = u.EmailOrEmpty()
	case viewerID != "":
		if p.Followed, err = s.follows.Exists(ctx, viewerID, u.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *identityService) UpdateProfile(ctx context.Context, identityID string, upd ProfileUpdate) (model.AuthenticatedIdentity, error) {
	if identityID == "" {
		return model.AuthenticatedIdentity{}, ErrUnauthenticated
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return model.AuthenticatedIdentity{}, ErrMissingFields
		}
		upd.Name = &name
	}
	if upd.Image != nil {
		image := strings.TrimSpace(*upd.Image)
		if err := s.validate.Var(image, "omitempty,url"); err != nil {
			return model.AuthenticatedIdentity{}, ErrInvalidImage
		}
		upd.Image = &image
	}
	if err := s.users.UpdateProfile(ctx, identityID, upd.Name, upd.Image); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.AuthenticatedIdentity{}, ErrUserNotFound
		}
		return model.AuthenticatedIdentity{}, err
	}
	u, err := s.users.GetByID(ctx, identityID)
	if err != nil {
		return model.AuthenticatedIdentity{}, err
	}
	if u == nil {
		return model.AuthenticatedIdentity{}, ErrUserNotFound
	}
	return u.Identity(), nil
}
