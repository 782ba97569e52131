package protocol

import (
	"errors"
	"net/http"
	"time"

	"cpolarstatus/pkg/domain"
)

// SessionCookieName 仪表盘会话 Cookie 名称
const SessionCookieName = "session"

var (
	ErrNoSetCookie       = errors.New("no Set-Cookie header")
	ErrNoSessionCookie   = errors.New("no session entry in Set-Cookie")
	ErrEmptySessionValue = errors.New("session cookie has empty value")
)

// FindSessionCookie 从响应头的全部 Set-Cookie 中提取名为 session 的 Cookie
//
// 形如 session=8ca896c6-...; Path=/; Domain=dashboard.cpolar.com; Expires=...; Max-Age=784478367; HttpOnly
func FindSessionCookie(h http.Header, now time.Time) (domain.SessionToken, error) {
	if len(h.Values("Set-Cookie")) == 0 {
		return domain.SessionToken{}, ErrNoSetCookie
	}

	resp := http.Response{Header: h}
	for _, c := range resp.Cookies() {
		if c.Name != SessionCookieName {
			continue
		}
		if c.Value == "" || c.MaxAge < 0 {
			return domain.SessionToken{}, ErrEmptySessionValue
		}
		tok := domain.SessionToken{
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		}
		switch {
		case c.MaxAge > 0:
			tok.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			tok.Expires = c.Expires
		}
		return tok, nil
	}
	return domain.SessionToken{}, ErrNoSessionCookie
}

// CookieHeader 构造只携带会话令牌的 Cookie 请求头，空令牌返回空字符串
func CookieHeader(tok domain.SessionToken) string {
	if tok.Empty() {
		return ""
	}
	return SessionCookieName + "=" + tok.Value
}
