package parser

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OCRConfig OCR抽取配置
type OCRConfig struct {
	Pdftoppm  string // 二进制名或绝对路径，空则用"pdftoppm"
	Tesseract string // 空则用"tesseract"
	Language  string // 默认"eng"
	DPI       int    // 光栅化DPI，默认200
}

// OCRExtractor 扫描件最后手段：pdftoppm光栅化整份文档，
// 逐页交给tesseract识别后拼接。外部命令通过Runner执行以便测试替换。
type OCRExtractor struct {
	cfg    OCRConfig
	runner Runner
	logger *log.Logger
}

// NewOCRExtractor 创建OCR抽取器并填充默认值
func NewOCRExtractor(cfg OCRConfig, runner Runner, logger *log.Logger) *OCRExtractor {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[OCR] ", log.LstdFlags)
	}
	return &OCRExtractor{cfg: cfg, runner: runner, logger: logger}
}

// ExtractText 对PDF字节流做整份OCR，页间以\f分隔。
// 临时目录在所有退出路径上都会被删除。
func (e *OCRExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "rs-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return "", err
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", inPath, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm失败: %w (%s)", err, truncate(string(errb), 512))
	}

	// 收集生成的png（page-1.png, page-2.png, ...）
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm未产出任何页面图像")
	}

	var b strings.Builder
	for _, img := range matches {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			e.logger.Printf("页面OCR失败 %s: %v", filepath.Base(img), err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
	}
	return b.String(), nil
}

// tesseractOCR 识别单页图像
func (e *OCRExtractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.Language)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
