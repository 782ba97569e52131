package browser_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cpolarstatus/internal/browser"
	"cpolarstatus/internal/protocol"
	"cpolarstatus/pkg/domain"
	"cpolarstatus/pkg/errx"

	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/network"
)

func TestSessionFromCookies(t *testing.T) {
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		cookies []network.Cookie
		want    domain.SessionToken
		wantErr error
	}{
		{
			name: "持久 cookie",
			cookies: []network.Cookie{
				{Name: "_ga", Value: "GA1"},
				{Name: "session", Value: "abc", Domain: "dashboard.cpolar.com", Path: "/", Expires: float64(expires.Unix())},
			},
			want: domain.SessionToken{Value: "abc", Domain: "dashboard.cpolar.com", Path: "/", Expires: expires},
		},
		{
			name:    "会话 cookie 没有过期时间",
			cookies: []network.Cookie{{Name: "session", Value: "v", Expires: -1, Session: true}},
			want:    domain.SessionToken{Value: "v"},
		},
		{
			name:    "名称必须完全一致",
			cookies: []network.Cookie{{Name: "session_id", Value: "x"}, {Name: "Session", Value: "y"}},
			wantErr: protocol.ErrNoSessionCookie,
		},
		{
			name:    "空值",
			cookies: []network.Cookie{{Name: "session", Value: ""}},
			wantErr: protocol.ErrEmptySessionValue,
		},
		{
			name:    "没有 cookie",
			wantErr: protocol.ErrNoSessionCookie,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := browser.SessionFromCookies(tt.cookies)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errx.Is(err, errx.CodeSessionExtraction) {
					t.Fatalf("err = %v, want %v (SESSION_EXTRACTION)", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Value != tt.want.Value || got.Domain != tt.want.Domain || got.Path != tt.want.Path || !got.Expires.Equal(tt.want.Expires) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPickTarget(t *testing.T) {
	targets := []*devtool.Target{
		nil,
		{ID: "sw", Type: devtool.ServiceWorker, URL: "https://dashboard.cpolar.com/sw.js"},
		{ID: "other", Type: devtool.Page, URL: "https://example.com"},
		{ID: "dash", Type: devtool.Page, URL: "https://dashboard.cpolar.com/status"},
	}

	if got := browser.PickTarget(targets, "https://dashboard.cpolar.com"); got == nil || got.ID != "dash" {
		t.Errorf("应优先选择仪表盘页面, got %+v", got)
	}
	if got := browser.PickTarget(targets, "https://other.host"); got == nil || got.ID != "other" {
		t.Errorf("没有仪表盘页面时应选择第一个页面, got %+v", got)
	}
	if got := browser.PickTarget(targets[:2], ""); got != nil {
		t.Errorf("没有页面目标时应返回 nil, got %+v", got)
	}
}

func devtoolsImporter(url string) *browser.Importer {
	return browser.NewImporter(browser.ImporterOptions{
		Reader: browser.NewDevToolsReader(url, "https://dashboard.cpolar.com", nil),
	})
}

func TestImport_DevToolsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := devtoolsImporter(url).Import(ctx)
	if !errors.Is(err, domain.ErrDevToolsUnreachable) {
		t.Errorf("err = %v, want ErrDevToolsUnreachable", err)
	}
}

func TestImport_NoPageTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"bg","type":"background_page","url":"chrome-extension://x","webSocketDebuggerUrl":"ws://127.0.0.1/devtools/page/bg"}]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := devtoolsImporter(srv.URL).Import(ctx)
	if !errors.Is(err, domain.ErrNoPageTarget) {
		t.Errorf("err = %v, want ErrNoPageTarget", err)
	}
}

func TestWait_StopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := devtoolsImporter(srv.URL).Wait(ctx, 20*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

// scriptedReader 依次返回预设的 cookie，用完后重复最后一组
type scriptedReader struct {
	mu    sync.Mutex
	steps [][]network.Cookie
	calls int
}

func (r *scriptedReader) ReadCookies(ctx context.Context) ([]network.Cookie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	if i >= len(r.steps) {
		i = len(r.steps) - 1
	}
	r.calls++
	return r.steps[i], nil
}

// loggedInVerifier 只认可 valid 中的令牌
type loggedInVerifier struct {
	mu      sync.Mutex
	valid   string
	err     error
	checked []string
}

func (v *loggedInVerifier) CheckSession(ctx context.Context, tok domain.SessionToken) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.checked = append(v.checked, tok.Value)
	if v.err != nil {
		return false, v.err
	}
	return tok.Value == v.valid, nil
}

func sessionCookie(value string) []network.Cookie {
	return []network.Cookie{{Name: "session", Value: value, Domain: "dashboard.cpolar.com", Path: "/"}}
}

func TestImport_AnonymousLoginPageCookieRejected(t *testing.T) {
	reader := &scriptedReader{steps: [][]network.Cookie{sessionCookie("anonymous")}}
	verifier := &loggedInVerifier{valid: "logged-in"}
	im := browser.NewImporter(browser.ImporterOptions{Reader: reader, Verifier: verifier})

	tok, err := im.Import(context.Background())
	if !errors.Is(err, browser.ErrNotLoggedIn) || !errx.Is(err, errx.CodeSessionExtraction) {
		t.Fatalf("err = %v, want ErrNotLoggedIn (SESSION_EXTRACTION)", err)
	}
	if !tok.Empty() {
		t.Errorf("未登录时不应返回令牌: %+v", tok)
	}
	if len(verifier.checked) != 1 || verifier.checked[0] != "anonymous" {
		t.Errorf("checked = %v", verifier.checked)
	}
}

func TestImport_VerifierError(t *testing.T) {
	reader := &scriptedReader{steps: [][]network.Cookie{sessionCookie("x")}}
	verifier := &loggedInVerifier{err: errx.New(errx.CodeStatusFetch, "unexpected status code 500")}
	im := browser.NewImporter(browser.ImporterOptions{Reader: reader, Verifier: verifier})

	if _, err := im.Import(context.Background()); !errx.Is(err, errx.CodeStatusFetch) {
		t.Errorf("err = %v, want STATUS_FETCH", err)
	}
}

func TestWait_PollsUntilSessionLoggedIn(t *testing.T) {
	reader := &scriptedReader{steps: [][]network.Cookie{
		nil,
		sessionCookie("anonymous"),
		sessionCookie("anonymous"),
		sessionCookie("logged-in"),
	}}
	verifier := &loggedInVerifier{valid: "logged-in"}
	im := browser.NewImporter(browser.ImporterOptions{Reader: reader, Verifier: verifier})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tok, err := im.Wait(ctx, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Wait 失败: %v", err)
	}
	if tok.Value != "logged-in" {
		t.Errorf("value = %q, want logged-in", tok.Value)
	}
	if reader.calls != 4 {
		t.Errorf("calls = %d, want 4", reader.calls)
	}
	if len(verifier.checked) != 3 {
		t.Errorf("checked = %v", verifier.checked)
	}
}

func TestWait_AnonymousCookieTimesOut(t *testing.T) {
	reader := &scriptedReader{steps: [][]network.Cookie{sessionCookie("anonymous")}}
	verifier := &loggedInVerifier{valid: "logged-in"}
	im := browser.NewImporter(browser.ImporterOptions{Reader: reader, Verifier: verifier})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	tok, err := im.Wait(ctx, 10*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
	if !tok.Empty() {
		t.Errorf("不应接受匿名令牌: %+v", tok)
	}
}
