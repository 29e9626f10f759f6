package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"

	"resume-match-go/internal/logger"
)

// ErrNoExtractableText PDF结构有效但提取不到文本（常见于扫描件）
var ErrNoExtractableText = errors.New("pdf contains no extractable text")

// TextExtractor 从简历原件提取纯文本。摄入管道只依赖这个接口，
// 测试用桩实现替换。
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, uri string) (string, error)
}

// EinoPDFExtractor 使用 Eino PDF Parser 提取文本
type EinoPDFExtractor struct {
	parser *pdf.PDFParser
}

// NewEinoPDFExtractor 初始化 Eino PDF 文本提取器。
// 不按页面分割，获取整个文档的连续文本。
func NewEinoPDFExtractor(ctx context.Context) (*EinoPDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建Eino PDF解析器失败: %w", err)
	}
	return &EinoPDFExtractor{parser: p}, nil
}

// ExtractText 从PDF字节流提取完整文本。
// 解析失败或提取结果为空白时返回错误，调用方据此终止摄入。
func (e *EinoPDFExtractor) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(uri),
	)
	if err != nil {
		return "", fmt.Errorf("解析PDF %s 失败: %w", uri, err)
	}
	if len(docs) == 0 {
		return "", ErrNoExtractableText
	}

	// 合并所有文档的内容（以防万一返回了多个）
	var sb strings.Builder
	for i, doc := range docs {
		sb.WriteString(doc.Content)
		if i < len(docs)-1 {
			sb.WriteString("\n\n")
		}
	}
	text := sb.String()

	if strings.TrimSpace(text) == "" {
		return "", ErrNoExtractableText
	}

	logger.Debug().
		Str("uri", uri).
		Int("chars", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("PDF文本提取完成")
	return text, nil
}
