package domain

import "time"

// Credentials 仪表盘登录凭据
type Credentials struct {
	LoginName string `json:"loginName"`
	Password  string `json:"password"`
}

// Valid 凭据是否可用于登录
func (c *Credentials) Valid() bool {
	return c != nil && c.LoginName != "" && c.Password != ""
}

// SessionToken 仪表盘会话 Cookie，只有 Value 会被持久化
type SessionToken struct {
	Value   string    `json:"value"`
	Domain  string    `json:"domain,omitempty"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// Empty 是否为空令牌
func (t SessionToken) Empty() bool { return t.Value == "" }

// Expired 令牌是否已过期，零值 Expires 视为未知过期时间
func (t SessionToken) Expired(now time.Time) bool {
	return !t.Expires.IsZero() && !now.Before(t.Expires)
}

// TunnelRecord 仪表盘表格中的一行隧道信息
type TunnelRecord struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	IP         string `json:"ip"`
	Region     string `json:"region"`
	CreateTime string `json:"createTime"`
}

// TunnelList 按表格行顺序排列的隧道列表
type TunnelList []TunnelRecord

// RawDocument 状态页原始 HTML
type RawDocument []byte

// TunnelSnapshot 一次成功抓取的历史快照
type TunnelSnapshot struct {
	ID        string     `json:"id"`
	Count     int        `json:"count"`
	Tunnels   TunnelList `json:"tunnels"`
	CreatedAt time.Time  `json:"createdAt"`
}
