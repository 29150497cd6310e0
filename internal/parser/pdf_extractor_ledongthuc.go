package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LedongthucPDFTextExtractor 数字文本层抽取策略二：纯Go的ledongthuc/pdf。
// 与Eino解析器实现互为独立路径，一个失败另一个常常还能解出内容。
type LedongthucPDFTextExtractor struct{}

// NewLedongthucPDFTextExtractor 创建第二数字文本策略
func NewLedongthucPDFTextExtractor() *LedongthucPDFTextExtractor {
	return &LedongthucPDFTextExtractor{}
}

// Name 策略名，用于日志
func (e *LedongthucPDFTextExtractor) Name() string { return "ledongthuc-pdf" }

// ExtractText 逐页提取纯文本并以空行分隔
func (e *LedongthucPDFTextExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("PDF内容为空")
	}

	// 库内部遇到损坏的xref表可能panic，这里兜住转为错误
	var text strings.Builder
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("PDF解析panic: %v", r)
			}
		}()

		r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return fmt.Errorf("打开PDF失败: %w", err)
		}
		for i := 1; i <= r.NumPage(); i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			page := r.Page(i)
			if page.V.IsNull() {
				continue
			}
			pageText, err := page.GetPlainText(nil)
			if err != nil {
				continue
			}
			pageText = strings.TrimSpace(pageText)
			if pageText == "" {
				continue
			}
			if text.Len() > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString(pageText)
		}
		return nil
	}()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text.String()), nil
}
