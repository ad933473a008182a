package model

// AuthenticatedIdentity 会话中携带的身份，按值传递
type AuthenticatedIdentity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Image    string `json:"image,omitempty"`
}

// MentionCandidate @提及候选
type MentionCandidate struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	// Priority 与查看者存在关注关系（任一方向）
	Priority bool `json:"priority"`
}

// Profile 公开资料页
type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Image          string `json:"image,omitempty"`
	Email          string `json:"email,omitempty"`
	FollowersCount int64  `json:"followersCount"`
	FollowingCount int64  `json:"followingCount"`
	Followed       bool   `json:"followed"`
}

// FollowEntry 关注/粉丝列表条目
type FollowEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	Followed bool   `json:"followed"`
}
