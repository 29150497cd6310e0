package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"resume-screener-go/internal/parser"
)

// ConvertStrategy DOCX到PDF的一种转换路径。
// Convert把docxPath转换为outDir下的PDF并返回其路径。
type ConvertStrategy interface {
	Name() string
	Convert(ctx context.Context, docxPath, outDir string) (string, error)
}

// SofficeStrategy 用LibreOffice无头模式转换，保真度最高，首选
type SofficeStrategy struct {
	Binary string // 空则用"soffice"
	Runner parser.Runner
}

func (s SofficeStrategy) Name() string { return "soffice" }

func (s SofficeStrategy) Convert(ctx context.Context, docxPath, outDir string) (string, error) {
	bin := s.Binary
	if bin == "" {
		bin = "soffice"
	}
	runner := s.Runner
	if runner == nil {
		runner = parser.ExecRunner{}
	}

	_, errb, err := runner.Run(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, docxPath)
	if err != nil {
		return "", fmt.Errorf("soffice转换失败: %w (%s)", err, string(errb))
	}

	base := strings.TrimSuffix(filepath.Base(docxPath), filepath.Ext(docxPath))
	pdfPath := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("soffice未产出PDF: %w", err)
	}
	return pdfPath, nil
}

// Docx2PDFStrategy 调用外部docx2pdf类命令行工具
type Docx2PDFStrategy struct {
	Binary string
	Runner parser.Runner
}

func (s Docx2PDFStrategy) Name() string { return "docx2pdf" }

func (s Docx2PDFStrategy) Convert(ctx context.Context, docxPath, outDir string) (string, error) {
	if s.Binary == "" {
		return "", fmt.Errorf("未配置docx2pdf命令")
	}
	runner := s.Runner
	if runner == nil {
		runner = parser.ExecRunner{}
	}

	pdfPath := filepath.Join(outDir, "converted.pdf")
	_, errb, err := runner.Run(ctx, s.Binary, docxPath, pdfPath)
	if err != nil {
		return "", fmt.Errorf("docx2pdf转换失败: %w (%s)", err, string(errb))
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("docx2pdf未产出PDF: %w", err)
	}
	return pdfPath, nil
}

// SyntheticStrategy 最后兜底：抽取DOCX段落文本，重排为朴素PDF。
// 丢失版式但保住文字内容，让视觉层仍有页面可看。
type SyntheticStrategy struct {
	Extractor *parser.DOCXExtractor
	MaxParas  int // 限制重排段落数，防止超长文档膨胀，0表示不限
}

func (s SyntheticStrategy) Name() string { return "synthetic" }

func (s SyntheticStrategy) Convert(ctx context.Context, docxPath, outDir string) (string, error) {
	data, err := os.ReadFile(docxPath)
	if err != nil {
		return "", fmt.Errorf("读取DOCX失败: %w", err)
	}

	extractor := s.Extractor
	if extractor == nil {
		extractor = parser.NewDOCXExtractor(nil)
	}
	paras := extractor.ExtractParagraphs(data)
	if len(paras) == 0 {
		return "", fmt.Errorf("DOCX中无可重排段落")
	}
	if s.MaxParas > 0 && len(paras) > s.MaxParas {
		paras = paras[:s.MaxParas]
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 11)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")
	for _, p := range paras {
		doc.MultiCell(190, 5, tr(p), "", "L", false)
		doc.Ln(2)
	}

	pdfPath := filepath.Join(outDir, "synthetic.pdf")
	if err := doc.OutputFileAndClose(pdfPath); err != nil {
		return "", fmt.Errorf("写出合成PDF失败: %w", err)
	}
	return pdfPath, nil
}

// DefaultStrategies 按保真度降序组装默认转换链
func DefaultStrategies(soffice, docx2pdf string, maxParas int, runner parser.Runner) []ConvertStrategy {
	strategies := []ConvertStrategy{
		SofficeStrategy{Binary: soffice, Runner: runner},
	}
	if docx2pdf != "" {
		strategies = append(strategies, Docx2PDFStrategy{Binary: docx2pdf, Runner: runner})
	}
	strategies = append(strategies, SyntheticStrategy{MaxParas: maxParas})
	return strategies
}
