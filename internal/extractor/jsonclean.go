package extractor

import (
	"regexp"
	"strings"
)

// 推理服务返回的文本常被markdown代码栅栏包裹，或者前后夹杂说明文字。
// 解析前先剥离栅栏，再按括号配对定位第一个完整的JSON值。

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSONValue 从LLM响应中提取第一个完整的JSON对象或数组文本。
// 找不到时返回空字符串。
func ExtractJSONValue(text string) string {
	if matches := fencedJSONRe.FindStringSubmatch(text); len(matches) > 1 {
		text = matches[1]
	}

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	start := objStart
	open, close := byte('{'), byte('}')
	if start == -1 || (arrStart != -1 && arrStart < start) {
		start = arrStart
		open, close = '[', ']'
	}
	if start == -1 {
		return ""
	}

	// 按括号层级配对找到闭合位置。LLM输出里的JSON字符串内几乎不会
	// 出现未配对的括号，不值得为此实现完整的字符串状态机
	level := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case open:
			level++
		case close:
			level--
			if level == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}
