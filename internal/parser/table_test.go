package parser_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"cpolarstatus/internal/parser"
	"cpolarstatus/pkg/domain"
	"cpolarstatus/pkg/errx"
)

// dashboardPage 按仪表盘布局包装一段 table 内容
func dashboardPage(table string) domain.RawDocument {
	return domain.RawDocument(`<!DOCTYPE html>
<html><head><title>cpolar</title></head><body>
<div id="dashboard">
  <div>
    <div class="sidebar">menu</div>
    <div class="main">
      <div class="title">在线隧道列表</div>
      <div class="content">` + table + `</div>
    </div>
  </div>
</div>
</body></html>`)
}

const header = `<thead><tr><th>隧道名称</th><th>URL</th><th>来源IP</th><th>地区</th><th>创建时间</th></tr></thead>`

func newParser(t *testing.T) *parser.TableParser {
	t.Helper()
	p, err := parser.NewTableParser("", nil)
	if err != nil {
		t.Fatalf("创建解析器失败: %v", err)
	}
	return p
}

func TestParseTunnels_FullRows(t *testing.T) {
	doc := dashboardPage(`<table class="table">` + header + `<tbody>
<tr>
  <th scope="row"><b>demo</b></th>
  <td><a href="http://a.b" target="_blank">http://a.b</a></td>
  <td>1.2.3.4</td>
  <td>us</td>
  <td>&nbsp;2023-01-01&nbsp;</td>
</tr>
<tr><td> ssh </td><td>tcp://1.tcp.cpolar.top:20001</td><td>5.6.7.8</td><td>China VIP</td><td>2023-02-02 10:00:00</td></tr>
<tr><td>a &amp; b &lt;x&gt;</td><td>u</td><td>i</td><td>r</td><td>c</td></tr>
</tbody></table>`)

	got, err := newParser(t).ParseTunnels(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.TunnelList{
		{Name: "demo", URL: "http://a.b", IP: "1.2.3.4", Region: "us", CreateTime: "2023-01-01"},
		{Name: "ssh", URL: "tcp://1.tcp.cpolar.top:20001", IP: "5.6.7.8", Region: "China VIP", CreateTime: "2023-02-02 10:00:00"},
		{Name: "a & b <x>", URL: "u", IP: "i", Region: "r", CreateTime: "c"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %+v\nwant %+v", got, want)
	}
}

func TestParseTunnels_ShortAndLongRows(t *testing.T) {
	doc := dashboardPage(`<table>` + header + `<tbody>
<tr><td>only-name</td><td>http://x.y</td></tr>
<tr></tr>
<tr><td>1</td><td>2</td><td>3</td><td>4</td><td>5</td><td>extra</td><td>more</td></tr>
</tbody></table>`)

	got, err := newParser(t).ParseTunnels(doc)
	if err != nil {
		t.Fatalf("短行不应报错: %v", err)
	}

	want := domain.TunnelList{
		{Name: "only-name", URL: "http://x.y"},
		{},
		{Name: "1", URL: "2", IP: "3", Region: "4", CreateTime: "5"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %+v\nwant %+v", got, want)
	}
}

func TestParseTunnels_TableNotFound(t *testing.T) {
	tests := []struct {
		name string
		doc  domain.RawDocument
	}{
		{"空文档", domain.RawDocument("")},
		{"登录页", domain.RawDocument(`<html><body><form action="/login"></form></body></html>`)},
		{"表格不在固定位置", domain.RawDocument(`<div id="dashboard"><table><tbody><tr><td>x</td></tr></tbody></table></div>`)},
		{"布局中没有表格", dashboardPage(`<p>暂无隧道</p>`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newParser(t).ParseTunnels(tt.doc)
			if !errx.Is(err, errx.CodeTableNotFound) {
				t.Errorf("got %v, want TABLE_NOT_FOUND", err)
			}
		})
	}
}

func TestParseTunnels_NoBody(t *testing.T) {
	got, err := newParser(t).ParseTunnels(dashboardPage(`<table>` + header + `</table>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty list", got)
	}
}

func TestParseTunnels_BacktracksOverAnyStep(t *testing.T) {
	// 第一个 div 没有 div[2]，应继续尝试第二个 div
	doc := domain.RawDocument(`<html><body><div id="dashboard">
<div><div>only one</div></div>
<div><div>a</div><div><div>b</div><div><table><tbody><tr><td>found</td></tr></tbody></table></div></div></div>
</div></body></html>`)

	got, err := newParser(t).ParseTunnels(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "found" {
		t.Errorf("got %+v", got)
	}
}

func TestParseTunnels_CustomPath(t *testing.T) {
	p, err := parser.NewTableParser(`//*[@id="tunnels"]/table`, nil)
	if err != nil {
		t.Fatalf("创建解析器失败: %v", err)
	}

	doc := domain.RawDocument(`<section id="tunnels"><table><tr><td>n</td><td>u</td></tr></table></section>`)
	got, err := p.ParseTunnels(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// HTML 解析器会为裸 tr 补上 tbody
	if len(got) != 1 || got[0].Name != "n" || got[0].URL != "u" {
		t.Errorf("got %+v", got)
	}
}

func TestParsePath(t *testing.T) {
	p, err := parser.ParsePath(parser.DashboardTablePath)
	if err != nil {
		t.Fatalf("默认路径解析失败: %v", err)
	}
	want := []parser.Step{{Tag: "div"}, {Tag: "div", Index: 2}, {Tag: "div", Index: 2}, {Tag: "table"}}
	if p.AnchorID != "dashboard" || !reflect.DeepEqual(p.Steps, want) {
		t.Errorf("got %+v", p)
	}

	invalid := []string{
		"",
		"/div/table",
		`//div[@class="x"]/table`,
		`//*[@id="dashboard"]`,
		`//*[@id="dashboard"]/div[0]`,
		`//*[@id="dashboard"]/div[last()]`,
	}
	for _, s := range invalid {
		if _, err := parser.ParsePath(s); !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("ParsePath(%q) err = %v, want ErrInvalidConfig", s, err)
		}
	}
}

func TestDecodeRow(t *testing.T) {
	if got := parser.DecodeRow(nil); got != (domain.TunnelRecord{}) {
		t.Errorf("空行应得到零值记录，got %+v", got)
	}
	if got := strings.Join(parser.ColumnNames(), ","); got != "name,url,ip,region,createTime" {
		t.Errorf("列映射顺序 = %s", got)
	}
}
