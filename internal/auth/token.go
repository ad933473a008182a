package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/d60-Lab/zingg/config"
	"github.com/d60-Lab/zingg/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims 访问令牌载荷
type Claims struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Image    string `json:"image,omitempty"`
	jwt.RegisteredClaims
}

// Identity 还原会话身份
func (c *Claims) Identity() model.AuthenticatedIdentity {
	return model.AuthenticatedIdentity{
		ID:       c.Subject,
		Username: c.Username,
		Name:     c.Name,
		Email:    c.Email,
		Image:    c.Image,
	}
}

// TokenManager 签发与校验 HS256 访问令牌
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	return &TokenManager{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.TTL, now: time.Now}
}

func (m *TokenManager) Issue(id model.AuthenticatedIdentity) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		Username: id.Username,
		Name:     id.Name,
		Email:    id.Email,
		Image:    id.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   id.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func (m *TokenManager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
