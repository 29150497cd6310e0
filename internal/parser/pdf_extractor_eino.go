package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// EinoPDFTextExtractor 数字文本层抽取策略一：使用Eino PDF Parser。
// 对带文本层的PDF效果最好，扫描件会返回接近空的结果，由上层判长度后降级。
type EinoPDFTextExtractor struct {
	parser *pdf.PDFParser
	logger *log.Logger
}

// NewEinoPDFTextExtractor 初始化Eino PDF文本抽取器。
// ToPages为false：我们需要整份文档的连续文本而不是逐页切分。
func NewEinoPDFTextExtractor(ctx context.Context, logger *log.Logger) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建Eino PDF解析器失败: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &EinoPDFTextExtractor{parser: p, logger: logger}, nil
}

// Name 策略名，用于日志
func (e *EinoPDFTextExtractor) Name() string { return "eino-pdf" }

// ExtractText 从PDF字节流提取纯文本
func (e *EinoPDFTextExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI("resume.pdf"),
	)
	if err != nil {
		return "", fmt.Errorf("eino PDF解析失败: %w", err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("eino PDF解析无结果")
	}

	var b bytes.Buffer
	for i, doc := range docs {
		b.WriteString(doc.Content)
		if i < len(docs)-1 {
			b.WriteString("\n\n")
		}
	}

	e.logger.Printf("Eino提取完成: %d 个字符 (用时 %.2f秒)", b.Len(), time.Since(startTime).Seconds())
	return b.String(), nil
}
