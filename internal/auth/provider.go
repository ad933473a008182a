package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/zingg/config"
)

var ErrProviderNotAllowed = errors.New("provider not allowed")

// maxAssertionTTL 断言只在回调瞬间有效，exp 不得超过签发后这么久
const maxAssertionTTL = 10 * time.Minute

// ProviderClaims OAuth 网关完成第三方授权后签发的断言
type ProviderClaims struct {
	Provider string `json:"provider"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	jwt.RegisteredClaims
}

// ProviderVerifier 校验断言签名与 provider 白名单。
// 邮箱是否存在交给 IdentityService 判断
type ProviderVerifier struct {
	secret  []byte
	allowed map[string]struct{}
}

func NewProviderVerifier(cfg config.AuthConfig) *ProviderVerifier {
	allowed := make(map[string]struct{}, len(cfg.Providers))
	for _, p := range cfg.Providers {
		allowed[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	return &ProviderVerifier{secret: []byte(cfg.ProviderSecret), allowed: allowed}
}

func (v *ProviderVerifier) Verify(assertion string) (*ProviderClaims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: provider secret not configured", ErrInvalidToken)
	}
	claims := &ProviderClaims{}
	keyFunc := func(*jwt.Token) (interface{}, error) { return v.secret, nil }
	_, err := jwt.ParseWithClaims(assertion, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if time.Until(claims.ExpiresAt.Time) > maxAssertionTTL {
		return nil, fmt.Errorf("%w: assertion lifetime exceeds %s", ErrInvalidToken, maxAssertionTTL)
	}
	claims.Provider = strings.ToLower(strings.TrimSpace(claims.Provider))
	if _, ok := v.allowed[claims.Provider]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotAllowed, claims.Provider)
	}
	return claims, nil
}

// SignAssertion 供网关与测试生成断言
func SignAssertion(secret string, claims *ProviderClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
