// Package parser 从仪表盘状态页中提取隧道表格。
package parser

import (
	"bytes"
	"strings"

	"cpolarstatus/internal/logger"
	"cpolarstatus/pkg/domain"
	"cpolarstatus/pkg/errx"

	"golang.org/x/net/html"
)

// DashboardTablePath 仪表盘状态页中隧道表格的位置
const DashboardTablePath = `//*[@id="dashboard"]/div/div[2]/div[2]/table`

var dashboardPath = MustParsePath(DashboardTablePath)

// Parser 把状态页解析为隧道列表
type Parser interface {
	ParseTunnels(doc domain.RawDocument) (domain.TunnelList, error)
}

// column 表格列到隧道字段的映射
type column struct {
	name string
	set  func(r *domain.TunnelRecord, v string)
}

// tunnelColumns 按列下标排列，超出的列忽略，缺失的列保持空字符串
var tunnelColumns = [...]column{
	0: {"name", func(r *domain.TunnelRecord, v string) { r.Name = v }},
	1: {"url", func(r *domain.TunnelRecord, v string) { r.URL = v }},
	2: {"ip", func(r *domain.TunnelRecord, v string) { r.IP = v }},
	3: {"region", func(r *domain.TunnelRecord, v string) { r.Region = v }},
	4: {"createTime", func(r *domain.TunnelRecord, v string) { r.CreateTime = v }},
}

// TableParser 按固定结构路径定位表格，按列位置映射字段
type TableParser struct {
	path Path
	log  logger.Logger
}

// NewTableParser 创建解析器，tablePath 为空时使用 DashboardTablePath
func NewTableParser(tablePath string, l logger.Logger) (*TableParser, error) {
	p := dashboardPath
	if tablePath != "" {
		var err error
		if p, err = ParsePath(tablePath); err != nil {
			return nil, err
		}
	}
	if l == nil {
		l = logger.Nop()
	}
	return &TableParser{path: p, log: l}, nil
}

// ParseTunnels 解析状态页
func (p *TableParser) ParseTunnels(doc domain.RawDocument) (domain.TunnelList, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, errx.Wrap(errx.CodeTableNotFound, err, "parse status page")
	}

	table := p.path.Find(root)
	if table == nil {
		return nil, errx.New(errx.CodeTableNotFound, "tunnel table not found at "+p.path.String()+", please check whether the tunnel is established")
	}

	// 表头目前只用于日志，字段映射按列位置
	if header := headerCells(table); len(header) > 0 {
		p.log.Debug("隧道表头", "columns", strings.Join(header, ","))
	}

	list := make(domain.TunnelList, 0)
	tbody := firstChild(table, "tbody")
	if tbody == nil {
		p.log.Debug("隧道表格没有 tbody")
		return list, nil
	}
	for tr := tbody.FirstChild; tr != nil; tr = tr.NextSibling {
		if tr.Type != html.ElementNode || tr.Data != "tr" {
			continue
		}
		list = append(list, DecodeRow(rowCells(tr)))
	}
	p.log.Debug("隧道表格解析完成", "rows", len(list))
	return list, nil
}

// DecodeRow 按列位置把单元格文本映射为隧道记录
func DecodeRow(cells []string) domain.TunnelRecord {
	var rec domain.TunnelRecord
	for i, col := range tunnelColumns {
		if i >= len(cells) {
			break
		}
		col.set(&rec, cells[i])
	}
	return rec
}

// ColumnNames 返回字段映射表中的列名
func ColumnNames() []string {
	names := make([]string, len(tunnelColumns))
	for i, col := range tunnelColumns {
		names[i] = col.name
	}
	return names
}

// headerCells 读取 thead 第一行的 th 文本
func headerCells(table *html.Node) []string {
	thead := firstChild(table, "thead")
	if thead == nil {
		return nil
	}
	tr := firstChild(thead, "tr")
	if tr == nil {
		return nil
	}
	var out []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "th" {
			out = append(out, cellText(c))
		}
	}
	return out
}

// rowCells 按文档顺序取 td 和 th 的文本
func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, cellText(c))
		}
	}
	return cells
}

// cellText 拼接所有后代文本节点并去掉首尾空白
// html.Parse 已经解码了实体，&nbsp; 会变成 U+00A0，TrimSpace 会一并去掉。
func cellText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}

func firstChild(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}
