// Package render 把隧道列表和抓取历史输出到终端。
package render

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"cpolarstatus/internal/codec"
	"cpolarstatus/pkg/domain"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// 输出格式
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// 颜色
const (
	ColorHeader = "12"
	ColorBorder = "240"
	ColorDim    = "8"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHeader)).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDim))
)

// tunnelHeaders 与 parser 的列映射顺序一致
var tunnelHeaders = []string{"隧道名称", "URL", "来源IP", "地区", "创建时间"}

// ValidFormat 是否为支持的输出格式
func ValidFormat(format string) bool {
	return format == FormatTable || format == FormatJSON
}

// Tunnels 输出隧道列表
func Tunnels(w io.Writer, list domain.TunnelList, format string) error {
	if format == FormatJSON {
		out, err := codec.EncodeTunnels(list)
		if err != nil {
			return err
		}
		return writeLine(w, out)
	}
	if len(list) == 0 {
		return writeLine(w, dimStyle.Render("当前没有在线隧道"))
	}

	rows := make([][]string, 0, len(list))
	for _, rec := range list {
		rows = append(rows, []string{rec.Name, rec.URL, rec.IP, rec.Region, rec.CreateTime})
	}
	return writeLine(w, newTable(tunnelHeaders, rows))
}

// Snapshots 输出快照列表
func Snapshots(w io.Writer, items []*domain.TunnelSnapshot, total int64, format string) error {
	if format == FormatJSON {
		out, err := codec.EncodeSnapshots(items, total)
		if err != nil {
			return err
		}
		return writeLine(w, out)
	}
	if len(items) == 0 {
		return writeLine(w, dimStyle.Render("暂无历史记录"))
	}

	rows := make([][]string, 0, len(items))
	for _, snap := range items {
		rows = append(rows, []string{snap.ID, strconv.Itoa(snap.Count), snap.CreatedAt.Local().Format(time.DateTime)})
	}
	if err := writeLine(w, newTable([]string{"快照ID", "隧道数", "抓取时间"}, rows)); err != nil {
		return err
	}
	return writeLine(w, dimStyle.Render(fmt.Sprintf("共 %d 条，显示 %d 条", total, len(items))))
}

// Snapshot 输出单个快照
func Snapshot(w io.Writer, snap *domain.TunnelSnapshot, format string) error {
	if format == FormatJSON {
		out, err := codec.EncodeSnapshot(snap)
		if err != nil {
			return err
		}
		return writeLine(w, out)
	}
	title := fmt.Sprintf("快照 %s  %s  %d 条", snap.ID, snap.CreatedAt.Local().Format(time.DateTime), snap.Count)
	if err := writeLine(w, headerStyle.Render(title)); err != nil {
		return err
	}
	return Tunnels(w, snap.Tunnels, FormatTable)
}

func newTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
