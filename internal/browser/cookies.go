package browser

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cpolarstatus/internal/logger"
	"cpolarstatus/internal/protocol"
	"cpolarstatus/pkg/domain"
	"cpolarstatus/pkg/errx"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/network"
	"github.com/mafredri/cdp/rpcc"
)

// ErrNotLoggedIn 浏览器里的 session 还没有登录（登录页下发的匿名令牌）
var ErrNotLoggedIn = errors.New("browser session is not logged in")

// CookieReader 读取浏览器中仪表盘域下的 cookie
type CookieReader interface {
	ReadCookies(ctx context.Context) ([]network.Cookie, error)
}

// Verifier 判断令牌是否已登录，dashboard.Client 实现了该接口
type Verifier interface {
	CheckSession(ctx context.Context, tok domain.SessionToken) (bool, error)
}

// DevToolsReader 通过 DevTools 协议连接一个页面目标读取 cookie
type DevToolsReader struct {
	devtoolsURL  string
	dashboardURL string
	log          logger.Logger
}

// NewDevToolsReader 创建 cookie 读取器
func NewDevToolsReader(devtoolsURL, dashboardURL string, l logger.Logger) *DevToolsReader {
	if l == nil {
		l = logger.Nop()
	}
	return &DevToolsReader{
		devtoolsURL:  strings.TrimRight(devtoolsURL, "/"),
		dashboardURL: strings.TrimRight(dashboardURL, "/"),
		log:          l,
	}
}

// ReadCookies 返回浏览器发往状态页时会携带的 cookie
func (r *DevToolsReader) ReadCookies(ctx context.Context) ([]network.Cookie, error) {
	targets, err := devtool.New(r.devtoolsURL).List(ctx)
	if err != nil {
		r.log.Err(err, "获取 Target 列表失败", "devtools", r.devtoolsURL)
		return nil, fmt.Errorf("%w: %v", domain.ErrDevToolsUnreachable, err)
	}

	target := PickTarget(targets, r.dashboardURL)
	if target == nil {
		return nil, domain.ErrNoPageTarget
	}

	conn, err := rpcc.DialContext(ctx, target.WebSocketDebuggerURL)
	if err != nil {
		r.log.Err(err, "CDP 连接建立失败", "wsURL", target.WebSocketDebuggerURL)
		return nil, fmt.Errorf("%w: %v", domain.ErrDevToolsUnreachable, err)
	}
	defer conn.Close()

	client := cdp.NewClient(conn)
	args := network.NewGetCookiesArgs().SetURLs([]string{r.dashboardURL + "/status"})
	reply, err := client.Network.GetCookies(ctx, args)
	if err != nil {
		return nil, errx.Wrap(errx.CodeNetwork, err, "read browser cookies")
	}
	r.log.Debug("已读取浏览器 cookie", "targetID", string(target.ID), "count", len(reply.Cookies))
	return reply.Cookies, nil
}

// ImporterOptions 导入器依赖
type ImporterOptions struct {
	Reader CookieReader
	// Verifier 为 nil 时不校验登录状态
	Verifier Verifier
	Logger   logger.Logger
}

// Importer 从已登录仪表盘的浏览器中读取会话令牌
type Importer struct {
	reader   CookieReader
	verifier Verifier
	log      logger.Logger
}

// NewImporter 创建导入器
func NewImporter(opts ImporterOptions) *Importer {
	l := opts.Logger
	if l == nil {
		l = logger.Nop()
	}
	return &Importer{reader: opts.Reader, verifier: opts.Verifier, log: l}
}

// Import 读取一次浏览器里的 session cookie
//
// 登录页本身就会下发匿名 session，所以拿到 cookie 后还要确认它已经登录，
// 未登录时返回包装 ErrNotLoggedIn 的 SESSION_EXTRACTION 错误。
func (im *Importer) Import(ctx context.Context) (domain.SessionToken, error) {
	cookies, err := im.reader.ReadCookies(ctx)
	if err != nil {
		return domain.SessionToken{}, err
	}

	tok, err := SessionFromCookies(cookies)
	if err != nil {
		return domain.SessionToken{}, err
	}

	if im.verifier != nil {
		ok, err := im.verifier.CheckSession(ctx, tok)
		if err != nil {
			return domain.SessionToken{}, err
		}
		if !ok {
			im.log.Debug("浏览器中的会话尚未登录")
			return domain.SessionToken{}, errx.Wrap(errx.CodeSessionExtraction, ErrNotLoggedIn, "browser cookie")
		}
	}
	im.log.Info("已从浏览器读取会话令牌", "domain", tok.Domain)
	return tok, nil
}

// Wait 轮询直到浏览器中出现已登录的会话令牌，用于等待用户在新启动的浏览器里手动登录
func (im *Importer) Wait(ctx context.Context, interval time.Duration) (domain.SessionToken, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		tok, err := im.Import(ctx)
		if err == nil {
			return tok, nil
		}
		if ctx.Err() != nil {
			return domain.SessionToken{}, ctx.Err()
		}
		if !errx.Is(err, errx.CodeSessionExtraction) && !errors.Is(err, domain.ErrNoPageTarget) {
			return domain.SessionToken{}, err
		}
		select {
		case <-ctx.Done():
			return domain.SessionToken{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// PickTarget 优先选择已打开仪表盘的页面，否则选择第一个页面
func PickTarget(targets []*devtool.Target, dashboardURL string) *devtool.Target {
	var first *devtool.Target
	for _, t := range targets {
		if t == nil || t.Type != devtool.Page {
			continue
		}
		if dashboardURL != "" && strings.HasPrefix(t.URL, dashboardURL) {
			return t
		}
		if first == nil {
			first = t
		}
	}
	return first
}

// SessionFromCookies 从浏览器 cookie 中找出名为 session 的非空令牌
func SessionFromCookies(cookies []network.Cookie) (domain.SessionToken, error) {
	for _, c := range cookies {
		if c.Name != protocol.SessionCookieName {
			continue
		}
		if c.Value == "" {
			return domain.SessionToken{}, errx.Wrap(errx.CodeSessionExtraction, protocol.ErrEmptySessionValue, "browser cookie")
		}
		tok := domain.SessionToken{Value: c.Value, Domain: c.Domain, Path: c.Path}
		// 会话 cookie 的 Expires 为 -1
		if !c.Session && c.Expires > 0 {
			sec, frac := math.Modf(c.Expires)
			tok.Expires = time.Unix(int64(sec), int64(frac*1e9)).UTC()
		}
		return tok, nil
	}
	return domain.SessionToken{}, errx.Wrap(errx.CodeSessionExtraction, protocol.ErrNoSessionCookie, "browser cookie")
}
