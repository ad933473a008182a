package handler

import (
	"time"

	"github.com/d60-Lab/zingg/internal/auth"
	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/internal/service"
)

// Handler HTTP 入口，业务全部委托给 service
type Handler struct {
	identityService service.IdentityService
	relService      service.RelationshipService
	mentionService  service.MentionService
	commentService  service.CommentService
	tokens          *auth.TokenManager
	providers       *auth.ProviderVerifier
	revoker         auth.Revoker
}

type Options struct {
	Identity  service.IdentityService
	Relation  service.RelationshipService
	Mention   service.MentionService
	Comment   service.CommentService
	Tokens    *auth.TokenManager
	Providers *auth.ProviderVerifier
	Revoker   auth.Revoker
}

func NewHandler(opts Options) *Handler {
	if opts.Revoker == nil {
		opts.Revoker = auth.NoopRevoker{}
	}
	return &Handler{
		identityService: opts.Identity,
		relService:      opts.Relation,
		mentionService:  opts.Mention,
		commentService:  opts.Comment,
		tokens:          opts.Tokens,
		providers:       opts.Providers,
		revoker:         opts.Revoker,
	}
}

// sessionResponse 登录 / 注册成功后的载荷
type sessionResponse struct {
	User      model.AuthenticatedIdentity `json:"user"`
	Token     string                      `json:"token"`
	ExpiresAt time.Time                   `json:"expiresAt"`
}

func (h *Handler) issueSession(id model.AuthenticatedIdentity) (*sessionResponse, error) {
	token, claims, err := h.tokens.Issue(id)
	if err != nil {
		return nil, err
	}
	return &sessionResponse{User: id, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}
