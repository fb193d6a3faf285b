package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// WrapText 将文本按像素宽度自动换行
// 逐字符测量（支持多字节字符），超宽时在当前位置断行；
// 单个字符就超宽时强制成行，保证总能推进
func WrapText(s string, face *text.GoTextFace, maxWidth float64) []string {
	if s == "" || face == nil || maxWidth <= 0 {
		return []string{s}
	}
	if text.Advance(s, face) <= maxWidth {
		return []string{s}
	}

	var lines []string
	current := ""
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		ch := string(r)

		if ch == "\n" {
			lines = append(lines, strings.TrimRight(current, " "))
			current = ""
			s = s[size:]
			continue
		}

		test := current + ch
		if text.Advance(test, face) > maxWidth {
			if current == "" {
				lines = append(lines, ch)
				s = s[size:]
				continue
			}
			lines = append(lines, strings.TrimRight(current, " "))
			current = ch
		} else {
			current = test
		}
		s = s[size:]
	}
	if current != "" {
		lines = append(lines, strings.TrimRight(current, " "))
	}
	return lines
}
