package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/zingg/internal/auth"
	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/pkg/response"
)

const (
	identityKey = "zingg.identity"
	claimsKey   = "zingg.claims"
)

// Authenticator 解析 Bearer 令牌并检查黑名单
type Authenticator struct {
	tokens  *auth.TokenManager
	revoker auth.Revoker
}

func NewAuthenticator(tokens *auth.TokenManager, revoker auth.Revoker) *Authenticator {
	if revoker == nil {
		revoker = auth.NoopRevoker{}
	}
	return &Authenticator{tokens: tokens, revoker: revoker}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (a *Authenticator) authenticate(c *gin.Context) (*auth.Claims, error) {
	raw := bearerToken(c)
	if raw == "" {
		return nil, auth.ErrInvalidToken
	}
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	revoked, err := a.revoker.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

// RequireAuth 未登录返回 401
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.authenticate(c)
		switch {
		case err == nil:
			setIdentity(c, claims)
			c.Next()
		case errors.Is(err, auth.ErrInvalidToken):
			response.Unauthorized(c, "unauthenticated")
		default:
			response.InternalError(c, err)
		}
	}
}

// OptionalAuth 有合法令牌时注入身份，否则按匿名处理
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := a.authenticate(c); err == nil {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(claimsKey, claims)
	c.Set(identityKey, claims.Identity())
}

// CurrentIdentity 当前请求的身份；匿名时返回零值与 false
func CurrentIdentity(c *gin.Context) (model.AuthenticatedIdentity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.AuthenticatedIdentity{}, false
	}
	id, ok := v.(model.AuthenticatedIdentity)
	return id, ok
}

// CurrentActorID 匿名时为空串
func CurrentActorID(c *gin.Context) string {
	id, _ := CurrentIdentity(c)
	return id.ID
}

func CurrentClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
