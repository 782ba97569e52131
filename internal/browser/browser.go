// Package browser 启动本地 Chrome 并通过 DevTools 协议读取仪表盘会话。
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"cpolarstatus/pkg/domain"

	"github.com/mafredri/cdp/devtool"
)

// Options 浏览器启动选项
type Options struct {
	ExecPath            string   // 浏览器可执行文件路径
	UserDataDir         string   // 用户数据目录
	RemoteDebuggingPort int      // CDP端口，0表示 9222
	StartURL            string   // 启动后打开的页面，通常是仪表盘登录页
	Args                []string // 额外启动参数
}

// ErrChromeNotFound 找不到可用的 Chrome 可执行文件
var ErrChromeNotFound = errors.New("chrome executable not found")

// Browser 已启动的浏览器进程句柄
type Browser struct {
	cmd         *exec.Cmd
	DevToolsURL string
}

// Start 启动浏览器并等待 DevTools 服务就绪，返回的 DevToolsURL 可直接交给 Importer
func Start(ctx context.Context, opts Options) (*Browser, error) {
	exe := opts.ExecPath
	if exe == "" {
		exe = defaultChromePath()
	}
	if exe == "" {
		return nil, ErrChromeNotFound
	}

	preferred := opts.RemoteDebuggingPort
	if preferred == 0 {
		preferred = 9222
	}
	port, err := pickPort(preferred)
	if err != nil {
		return nil, fmt.Errorf("pick devtools port: %w", err)
	}

	args, err := buildLaunchArgs(port, opts)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, exe, args...)
	// 浏览器自身的输出会干扰命令行提示
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start browser %s: %w", exe, err)
	}

	b := &Browser{cmd: cmd, DevToolsURL: fmt.Sprintf("http://127.0.0.1:%d", port)}
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := waitDevToolsReady(waitCtx, b.DevToolsURL); err != nil {
		_ = b.Stop(2 * time.Second)
		return nil, fmt.Errorf("%w: %v", domain.ErrDevToolsUnreachable, err)
	}
	return b, nil
}

// Stop 关闭浏览器进程
func (b *Browser) Stop(timeout time.Duration) error {
	if b == nil || b.cmd == nil || b.cmd.Process == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- b.cmd.Wait() }()
	// Windows上直接Kill以避免悬挂
	_ = b.cmd.Process.Kill()
	select {
	case <-time.After(timeout):
		return errors.New("browser stop timeout")
	case err := <-done:
		return err
	}
}

// defaultChromePath 返回常见的 Chrome 可执行路径（跨平台）
func defaultChromePath() string {
	candidates := getChromePaths()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	for _, name := range []string{"chrome", "google-chrome", "chromium", "chromium-browser"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}

	return ""
}

// getChromePaths 根据操作系统返回可能的 Chrome 路径
func getChromePaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramFiles"), "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(os.Getenv("ProgramFiles(x86)"), "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(os.Getenv("LOCALAPPDATA"), "Google", "Chrome", "Application", "chrome.exe"),
		}
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			filepath.Join(os.Getenv("HOME"), "Applications", "Google Chrome.app", "Contents", "MacOS", "Google Chrome"),
		}
	case "linux":
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	default:
		return nil
	}
}

// pickPort 尝试使用指定端口，如果被占用则选择随机空闲端口
func pickPort(preferred int) (int, error) {
	// 先尝试首选端口
	if preferred > 0 {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", preferred))
		if err == nil {
			_ = l.Close()
			return preferred, nil
		}
	}

	// 首选端口不可用，选择随机空闲端口
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find free port: %w", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port, nil
}

// launchFlags 登录用的浏览器不需要后台服务和首次运行向导
var launchFlags = []string{
	"--no-first-run",
	"--no-default-browser-check",
	"--disable-background-networking",
	"--disable-default-apps",
	"--disable-sync",
	"--disable-translate",
	"--metrics-recording-only",
}

// buildLaunchArgs 构建浏览器启动参数
func buildLaunchArgs(port int, opts Options) ([]string, error) {
	args := append([]string{fmt.Sprintf("--remote-debugging-port=%d", port)}, launchFlags...)
	if runtime.GOOS == "linux" {
		args = append(args, "--disable-dev-shm-usage")
	}

	// 独立的用户数据目录，不影响日常使用的浏览器配置
	dir := opts.UserDataDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), fmt.Sprintf("cpolar-status-chrome-%d", time.Now().Unix()))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create user data dir: %w", err)
	}
	args = append(args, "--user-data-dir="+dir)
	args = append(args, opts.Args...)

	// 起始页必须放在最后
	if opts.StartURL != "" {
		args = append(args, opts.StartURL)
	}
	return args, nil
}

// waitDevToolsReady 轮询 /json/version 直到 DevTools 服务可用
func waitDevToolsReady(ctx context.Context, base string) error {
	dt := devtool.New(base)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := dt.Version(ctx); err == nil {
				return nil
			}
		}
	}
}
