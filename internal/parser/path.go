package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"cpolarstatus/pkg/domain"

	"golang.org/x/net/html"
)

// Step 路径中的一级子元素选择，Index 从 1 开始，0 表示任意位置
type Step struct {
	Tag   string
	Index int
}

// Path 从带 id 的锚点元素出发、逐级按子元素定位的结构路径
//
// 只支持 //*[@id="X"]/tag/tag[n]/... 这一种形式，足以描述仪表盘里的固定布局。
type Path struct {
	AnchorID string
	Steps    []Step
	raw      string
}

var (
	anchorRe = regexp.MustCompile(`^//\*\[@id=["']([^"']+)["']\]$`)
	stepRe   = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9]*)(?:\[([1-9][0-9]*)\])?$`)
)

// ParsePath 解析结构路径
func ParsePath(s string) (Path, error) {
	raw := strings.TrimSpace(s)
	if !strings.HasPrefix(raw, "//") {
		return Path{}, fmt.Errorf("%w: table path must start with //: %q", domain.ErrInvalidConfig, s)
	}

	parts := strings.Split(raw[2:], "/")
	m := anchorRe.FindStringSubmatch("//" + parts[0])
	if m == nil {
		return Path{}, fmt.Errorf("%w: table path anchor must be //*[@id=\"...\"]: %q", domain.ErrInvalidConfig, s)
	}

	p := Path{AnchorID: m[1], raw: raw}
	for _, part := range parts[1:] {
		sm := stepRe.FindStringSubmatch(part)
		if sm == nil {
			return Path{}, fmt.Errorf("%w: invalid table path step %q", domain.ErrInvalidConfig, part)
		}
		step := Step{Tag: strings.ToLower(sm[1])}
		if sm[2] != "" {
			step.Index, _ = strconv.Atoi(sm[2])
		}
		p.Steps = append(p.Steps, step)
	}
	if len(p.Steps) == 0 {
		return Path{}, fmt.Errorf("%w: table path has no steps: %q", domain.ErrInvalidConfig, s)
	}
	return p, nil
}

// MustParsePath 解析失败时 panic，只用于常量路径
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string { return p.raw }

// Find 按文档顺序返回第一个匹配的节点，没有时返回 nil
func (p Path) Find(root *html.Node) *html.Node {
	var found *html.Node
	walkElements(root, func(n *html.Node) bool {
		if attr(n, "id") != p.AnchorID {
			return true
		}
		found = descend(n, p.Steps)
		return found == nil
	})
	return found
}

// descend 逐级匹配子元素，同一层有多个候选时按顺序回溯
func descend(n *html.Node, steps []Step) *html.Node {
	if len(steps) == 0 {
		return n
	}
	step := steps[0]
	pos := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != step.Tag {
			continue
		}
		pos++
		if step.Index != 0 && pos != step.Index {
			continue
		}
		if found := descend(c, steps[1:]); found != nil {
			return found
		}
		if step.Index != 0 {
			return nil
		}
	}
	return nil
}

// walkElements 深度优先遍历元素节点，fn 返回 false 时停止
func walkElements(n *html.Node, fn func(*html.Node) bool) bool {
	if n.Type == html.ElementNode && !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walkElements(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
