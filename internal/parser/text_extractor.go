package parser

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"

	"resume-screener-go/internal/constants"
)

// PDFTextStrategy 单一数字文本层抽取策略
type PDFTextStrategy interface {
	// Name 策略名，用于日志
	Name() string
	// ExtractText 从PDF字节流提取纯文本
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// TextExtractor 尽力而为的文本抽取器：按顺序尝试多个数字文本策略，
// 结果过短时降级到OCR。所有失败都吞掉并返回已获得的最好结果，
// 文本是否足够由调用方判断。
type TextExtractor struct {
	pdfStrategies []PDFTextStrategy
	ocr           *OCRExtractor
	docx          *DOCXExtractor
	logger        *log.Logger
}

// NewTextExtractor 创建文本抽取器。ocr可为nil（禁用OCR降级）。
func NewTextExtractor(strategies []PDFTextStrategy, ocr *OCRExtractor, docx *DOCXExtractor, logger *log.Logger) *TextExtractor {
	if docx == nil {
		docx = NewDOCXExtractor(logger)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &TextExtractor{
		pdfStrategies: strategies,
		ocr:           ocr,
		docx:          docx,
		logger:        logger,
	}
}

// Extract 从文档字节流提取文本，可能为空串，绝不返回错误
func (e *TextExtractor) Extract(ctx context.Context, data []byte, kind string) string {
	switch kind {
	case constants.SourcePDF:
		return e.extractPDF(ctx, data)
	case constants.SourceDOCX:
		return e.docx.ExtractText(data)
	default:
		e.logger.Printf("不支持的文档类型: %s", kind)
		return ""
	}
}

// extractPDF 依次尝试数字文本策略，全部过短时OCR兜底
func (e *TextExtractor) extractPDF(ctx context.Context, data []byte) string {
	if !bytes.HasPrefix(data, []byte(constants.PDFSignature)) {
		e.logger.Printf("文件签名不是PDF，拒绝解析")
		return ""
	}

	var best string
	for _, strategy := range e.pdfStrategies {
		text, err := strategy.ExtractText(ctx, data)
		if err != nil {
			e.logger.Printf("策略 %s 失败: %v", strategy.Name(), err)
			continue
		}
		if len(strings.TrimSpace(text)) >= constants.MinTextLength {
			e.logger.Printf("策略 %s 提取到 %d 个字符", strategy.Name(), len(text))
			return text
		}
		if len(text) > len(best) {
			best = text
		}
	}

	// 数字文本层太薄，大概率是扫描件，走OCR
	if e.ocr != nil {
		e.logger.Printf("数字文本不足，降级到OCR")
		ocrText, err := e.ocr.ExtractText(ctx, data)
		if err != nil {
			e.logger.Printf("OCR失败: %v", err)
			return best
		}
		if len(strings.TrimSpace(ocrText)) > 20 {
			return ocrText
		}
	}
	return best
}
