package service

import (
	"context"
	"math/rand/v2"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/d60-Lab/zingg/pkg/logger"
)

const (
	maxUsernameBase  = 20
	variantsPerBase  = 5
	variantSuffixLen = 5
	fallbackTailLen  = 8
	base36Alphabet   = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// UsernameStore 分配器只依赖"写入即占用"这一能力
type UsernameStore interface {
	// ClaimUsername 写入成功返回 true；唯一索引冲突返回 false
	ClaimUsername(ctx context.Context, identityID, username string) (bool, error)
}

// UsernameAllocator 由显示名 / 邮箱派生唯一用户名
type UsernameAllocator struct {
	fallbackWords []string
	intn          func(n int) int
}

func NewUsernameAllocator(platformName string) *UsernameAllocator {
	return &UsernameAllocator{
		fallbackWords: []string{"user", "writer", Slugify(platformName)},
		intn:          rand.IntN,
	}
}

// Slugify 小写，去掉空白，其余非字母数字的连续片段折叠为 "_"，
// 去掉首尾 "_" 后截断到 20 个字符
func Slugify(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	out := b.String()
	if len(out) > maxUsernameBase {
		out = strings.TrimRight(out[:maxUsernameBase], "_")
	}
	return out
}

// Bases 候选基础名，按优先级去重
func (a *UsernameAllocator) Bases(displayName, email string) []string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}
	raw := append([]string{Slugify(displayName), Slugify(local)}, a.fallbackWords...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (a *UsernameAllocator) randomChunk(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = base36Alphabet[a.intn(len(base36Alphabet))]
	}
	return string(buf)
}

// Allocate 依次尝试 base、base_XXXXX ×5，最后 user_XXXXXXXX。
// 每次尝试都是一次写入，唯一索引决定胜负，不做先查后写
func (a *UsernameAllocator) Allocate(ctx context.Context, store UsernameStore, identityID, displayName, email string) (string, error) {
	attempts := 0
	try := func(candidate string) (bool, error) {
		attempts++
		return store.ClaimUsername(ctx, identityID, candidate)
	}

	for _, base := range a.Bases(displayName, email) {
		candidates := make([]string, 0, variantsPerBase+1)
		candidates = append(candidates, base)
		for i := 0; i < variantsPerBase; i++ {
			candidates = append(candidates, base+"_"+a.randomChunk(variantSuffixLen))
		}
		for _, c := range candidates {
			ok, err := try(c)
			if err != nil {
				return "", err
			}
			if ok {
				return c, nil
			}
		}
	}

	last := "user_" + a.randomChunk(fallbackTailLen)
	ok, err := try(last)
	if err != nil {
		return "", err
	}
	if !ok {
		logger.Warn("username allocation exhausted",
			zap.String("identity_id", identityID),
			zap.Int("attempts", attempts),
		)
		return "", ErrUsernameUnavailable
	}
	return last, nil
}
