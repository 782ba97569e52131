// Package dashboard 实现仪表盘的“先认证再抓取”协议。
//
// 会话令牌作为显式值在每一步之间传递，不使用 cookie jar。所有请求严格串行：
// 登录页下发的 session 必须在提交账号密码之前拿到并保存，否则服务端会拒绝登录。
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cpolarstatus/internal/logger"
	"cpolarstatus/internal/protocol"
	"cpolarstatus/internal/session"
	"cpolarstatus/pkg/domain"
	"cpolarstatus/pkg/errx"
)

// 仪表盘路径
const (
	PathStatus = "/status"
	PathLogin  = "/login"
)

// maxDocumentSize 状态页响应体上限
const maxDocumentSize = 8 << 20

// Options 客户端选项
type Options struct {
	// BaseURL 仪表盘地址，例如 https://dashboard.cpolar.com
	BaseURL string
	// Timeout 单个请求超时，0 表示使用传输层默认行为
	Timeout time.Duration
	// Store 会话令牌存储
	Store session.Store
	// HTTPClient 可选，用于注入 Transport；重定向策略总会被覆盖为不跟随
	HTTPClient *http.Client
	// Headers 每个请求附带的请求头，为空时使用 protocol.BrowserHeaders
	Headers http.Header
	// Logger 日志
	Logger logger.Logger
	// Now 时钟，测试用
	Now func() time.Time
}

// Client 仪表盘认证客户端
type Client struct {
	base    *url.URL
	http    *http.Client
	store   session.Store
	headers http.Header
	log     logger.Logger
	now     func() time.Time
}

// New 创建客户端
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: dashboard base url %q", domain.ErrInvalidConfig, opts.BaseURL)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: session store is nil", domain.ErrInvalidConfig)
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		cp := *opts.HTTPClient
		hc = &cp
	}
	if opts.Timeout > 0 {
		hc.Timeout = opts.Timeout
	}
	// 302 是未登录信号，必须自己处理
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	headers := opts.Headers
	if headers == nil {
		headers = protocol.BrowserHeaders()
	}
	l := opts.Logger
	if l == nil {
		l = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		base:    base,
		http:    hc,
		store:   opts.Store,
		headers: headers,
		log:     l,
		now:     now,
	}, nil
}

// FetchStatusDocument 返回已登录状态下的状态页 HTML
//
// 凭据缺失时在任何网络请求之前返回 CONFIG_MISSING。只有走登录分支时才会覆盖一次持久化的令牌。
func (c *Client) FetchStatusDocument(ctx context.Context, creds *domain.Credentials) (domain.RawDocument, error) {
	if !creds.Valid() {
		return nil, errx.Wrap(errx.CodeConfigMissing, domain.ErrCredentialsMissing, "no dashboard credentials")
	}

	tok := c.storedToken(ctx)

	status, body, err := c.getStatus(ctx, tok)
	if err != nil {
		return nil, err
	}
	switch {
	case isSuccess(status):
		c.log.Debug("会话仍然有效", "status", status)
		return body, nil
	case status == http.StatusFound:
		c.log.Info("会话已失效，重新登录")
	default:
		return nil, errx.New(errx.CodeStatusFetch, fmt.Sprintf("get status: unexpected status %d", status))
	}

	// 旧令牌已失效，登录流程从匿名请求开始
	c.log.Debug("丢弃失效的会话令牌", "hadToken", !tok.Empty())
	tok, err = c.login(ctx, *creds)
	if err != nil {
		return nil, err
	}

	status, body, err = c.getStatus(ctx, tok)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, errx.New(errx.CodeStatusFetch, fmt.Sprintf("get status after login: unexpected status %d", status))
	}
	return body, nil
}

// storedToken 读取持久化令牌，读取失败只记录警告并按未登录处理
func (c *Client) storedToken(ctx context.Context) domain.SessionToken {
	value, err := c.store.Load(ctx)
	if err != nil {
		c.log.Err(err, "读取会话令牌失败，按未登录处理")
		return domain.SessionToken{}
	}
	if value == "" {
		c.log.Debug("没有已保存的会话令牌")
		return domain.SessionToken{}
	}
	return domain.SessionToken{
		Value:  value,
		Domain: c.base.Hostname(),
		Path:   "/",
	}
}

// login 不带 cookie 请求登录页拿到新的 session，保存后提交账号密码，返回已登录的令牌
func (c *Client) login(ctx context.Context, creds domain.Credentials) (domain.SessionToken, error) {
	resp, err := c.do(ctx, http.MethodGet, PathLogin, domain.SessionToken{}, nil)
	if err != nil {
		return domain.SessionToken{}, err
	}
	drain(resp)

	tok, err := protocol.FindSessionCookie(resp.Header, c.now())
	if err != nil {
		return tok, errx.Wrap(errx.CodeSessionExtraction, err, "read session from login page")
	}
	if tok.Domain == "" {
		tok.Domain = c.base.Hostname()
	}

	if err := c.store.Save(ctx, tok.Value); err != nil {
		if errx.CodeOf(err) == "" {
			err = errx.Wrap(errx.CodeStorage, err, "save session")
		}
		return tok, err
	}
	c.log.Debug("已保存新的会话令牌", "domain", tok.Domain)

	resp, err = c.do(ctx, http.MethodPost, PathLogin, tok, strings.NewReader(protocol.LoginForm(creds)))
	if err != nil {
		return tok, err
	}
	drain(resp)

	if resp.StatusCode != http.StatusFound {
		return tok, errx.New(errx.CodeAuthentication, fmt.Sprintf("login rejected with status %d, please check login name and password", resp.StatusCode))
	}
	c.log.Info("登录成功", "login", creds.LoginName)
	return tok, nil
}

// getStatus 请求状态页，只在成功时读取响应体
func (c *Client) getStatus(ctx context.Context, tok domain.SessionToken) (int, domain.RawDocument, error) {
	resp, err := c.do(ctx, http.MethodGet, PathStatus, tok, nil)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil, nil
	}

	// 多读一个字节用于判断是否超出上限，截断的页面会丢行
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return 0, nil, errx.Wrap(errx.CodeNetwork, err, "read status page")
	}
	if len(body) > maxDocumentSize {
		return 0, nil, errx.New(errx.CodeStatusFetch, "status page exceeds size limit")
	}
	return resp.StatusCode, body, nil
}

// CheckSession 用给定令牌请求一次状态页，判断是否已登录
//
// 不读写会话存储。2xx 表示已登录，302 表示未登录，其他状态码返回 STATUS_FETCH。
func (c *Client) CheckSession(ctx context.Context, tok domain.SessionToken) (bool, error) {
	status, _, err := c.getStatus(ctx, tok)
	if err != nil {
		return false, err
	}
	switch {
	case isSuccess(status):
		return true, nil
	case status == http.StatusFound:
		return false, nil
	default:
		return false, errx.New(errx.CodeStatusFetch, fmt.Sprintf("check session: unexpected status %d", status))
	}
}

// do 发送单个请求，传输层错误统一包装为 NETWORK
func (c *Client) do(ctx context.Context, method, path string, tok domain.SessionToken, body io.Reader) (*http.Response, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errx.Wrap(errx.CodeNetwork, err, "build request")
	}
	protocol.ApplyHeaders(req, c.headers)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie := protocol.CookieHeader(tok); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	c.log.Debug("请求仪表盘", "method", method, "path", path, "withSession", !tok.Empty())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errx.Wrap(errx.CodeNetwork, err, method+" "+path)
	}
	return resp, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
