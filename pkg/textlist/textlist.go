// Package textlist 提供多行文本与字符串列表之间的纯函数转换。
package textlist

import (
	"strconv"
	"strings"
)

const (
	// CommentSymbol: 行内注释起始符，其后内容在 cut 模式下被丢弃。
	CommentSymbol = "#"
	newline       = "\n"
)

// StripComments 保留每行首个注释符之前的部分。
func StripComments(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if k := strings.Index(l, CommentSymbol); k >= 0 {
			l = l[:k]
		}
		out[i] = l
	}
	return out
}

// StripEmpty 丢弃 TrimSpace 后为空的行；非空行原样保留（不裁剪）。
func StripEmpty(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// Preprocess 按 "\n" 拆分文本，并按需去注释、去空行（先去注释）。
func Preprocess(text string, cutComments, ignoreEmpty bool) []string {
	lines := strings.Split(text, newline)
	if cutComments {
		lines = StripComments(lines)
	}
	if ignoreEmpty {
		lines = StripEmpty(lines)
	}
	return lines
}

// BoundIndex 将 idx 夹到 [0, n-1]；n==0 时返回 0。
func BoundIndex(idx, n int) int {
	if idx > n-1 {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// PickByIndex 返回夹紧后位置上的单元素切片；空列表返回空切片。
func PickByIndex(idx int, list []string) []string {
	if len(list) == 0 {
		return []string{}
	}
	i := BoundIndex(idx, len(list))
	return []string{list[i]}
}

// Product 以 a 为外层、b 为内层生成笛卡尔积，每项为 a[i]+sep+b[j]。
func Product(a, b []string, sep string) []string {
	out := make([]string, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			out = append(out, x+sep+y)
		}
	}
	return out
}

// Wrap 为每一项加前后缀。
func Wrap(list []string, prefix, suffix string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = prefix + s + suffix
	}
	return out
}

// Multiline 以换行拼接。
func Multiline(list []string) string { return strings.Join(list, newline) }

// Enumerated 生成 "#<i>\n<value>\n" 块并以换行拼接。
func Enumerated(list []string) string {
	blocks := make([]string, len(list))
	for i, v := range list {
		blocks[i] = CommentSymbol + strconv.Itoa(i) + newline + v + newline
	}
	return strings.Join(blocks, newline)
}

// Numbered 生成 "# <i>\n<value>" 块并以换行拼接。
func Numbered(list []string) string {
	blocks := make([]string, len(list))
	for i, v := range list {
		blocks[i] = CommentSymbol + " " + strconv.Itoa(i) + newline + v
	}
	return strings.Join(blocks, newline)
}

// Range 返回 0..n-1。
func Range(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// UnescapeSeparator 将字面量 `\n` 还原为换行（宿主输入框无法直接输入换行）。
func UnescapeSeparator(sep string) string {
	return strings.ReplaceAll(sep, `\n`, newline)
}

// Join 按顺序拼接非空白片段；nil 表示该槽位未连接。
// 分隔符中的字面量 `\n` 视为换行。
func Join(values []*string, sep string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil || strings.TrimSpace(*v) == "" {
			continue
		}
		parts = append(parts, *v)
	}
	return strings.Join(parts, UnescapeSeparator(sep))
}
