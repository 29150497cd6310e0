package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/parser"
)

// RasterPage 一页渲染出的光栅图像。由产生它的Render调用独占，
// 不持久化，交给视觉层消费后即丢弃。
type RasterPage struct {
	Index int    // 页序号，从1开始
	PNG   []byte // PNG编码的页面图像
}

// DataURL 返回视觉模型消息所需的base64数据URL
func (p RasterPage) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(p.PNG)
}

// Config 渲染器配置
type Config struct {
	Pdftoppm string // 二进制名或绝对路径，空则用"pdftoppm"
	DPI      int    // 光栅化DPI，默认200（约2.0倍标准放大）
	MaxPages int    // 默认最大页数
}

// Renderer 把PDF/DOCX字节流渲染成有界的页面图像序列。
// DOCX没有直接光栅化手段，先经转换策略链转成PDF再走PDF路径。
// 任何失败都返回空序列，绝不向上抛异常；所有临时文件在每条退出路径上清理。
type Renderer struct {
	cfg        Config
	runner     parser.Runner
	strategies []ConvertStrategy
	logger     *log.Logger
}

// NewRenderer 创建渲染器，strategies为DOCX→PDF转换策略链（按先后顺序）
func NewRenderer(cfg Config, runner parser.Runner, strategies []ConvertStrategy, logger *log.Logger) *Renderer {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = constants.DefaultRenderDPI
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = constants.DefaultMaxPages
	}
	if runner == nil {
		runner = parser.ExecRunner{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Renderer{cfg: cfg, runner: runner, strategies: strategies, logger: logger}
}

// RenderPages 渲染文档前若干页。maxPages/dpi传0用配置默认值。
func (r *Renderer) RenderPages(ctx context.Context, data []byte, kind string, maxPages, dpi int) []RasterPage {
	if maxPages <= 0 {
		maxPages = r.cfg.MaxPages
	}
	if dpi <= 0 {
		dpi = r.cfg.DPI
	}

	switch kind {
	case constants.SourcePDF:
		return r.renderPDF(ctx, data, maxPages, dpi)
	case constants.SourceDOCX:
		return r.renderDOCX(ctx, data, maxPages, dpi)
	default:
		r.logger.Printf("不支持的渲染类型: %s", kind)
		return nil
	}
}

// renderPDF 用pdftoppm把PDF前maxPages页光栅化为PNG
func (r *Renderer) renderPDF(ctx context.Context, data []byte, maxPages, dpi int) []RasterPage {
	if !bytes.HasPrefix(data, []byte(constants.PDFSignature)) {
		r.logger.Printf("文件签名不是PDF，放弃渲染")
		return nil
	}

	tmpDir, err := os.MkdirTemp("", "rs-render-*")
	if err != nil {
		r.logger.Printf("创建临时目录失败: %v", err)
		return nil
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		r.logger.Printf("写入临时PDF失败: %v", err)
		return nil
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f 1 -l <maxPages> -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm,
		"-f", "1", "-l", fmt.Sprintf("%d", maxPages),
		"-r", fmt.Sprintf("%d", dpi), "-png", inPath, prefix)
	if err != nil {
		r.logger.Printf("pdftoppm失败: %v (%s)", err, string(errb))
		return nil
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) > maxPages {
		matches = matches[:maxPages]
	}

	var pages []RasterPage
	for i, img := range matches {
		png, err := os.ReadFile(img)
		if err != nil {
			r.logger.Printf("读取页面图像失败 %s: %v", filepath.Base(img), err)
			continue
		}
		pages = append(pages, RasterPage{Index: i + 1, PNG: png})
	}
	return pages
}

// renderDOCX 按策略链把DOCX转成PDF后复用PDF渲染路径
func (r *Renderer) renderDOCX(ctx context.Context, data []byte, maxPages, dpi int) []RasterPage {
	if !bytes.HasPrefix(data, []byte(constants.ZIPSignature)) {
		r.logger.Printf("文件签名不是DOCX容器，放弃渲染")
		return nil
	}

	tmpDir, err := os.MkdirTemp("", "rs-convert-*")
	if err != nil {
		r.logger.Printf("创建临时目录失败: %v", err)
		return nil
	}
	defer os.RemoveAll(tmpDir)

	docxPath := filepath.Join(tmpDir, "input.docx")
	if err := os.WriteFile(docxPath, data, 0o600); err != nil {
		r.logger.Printf("写入临时DOCX失败: %v", err)
		return nil
	}

	for _, strategy := range r.strategies {
		pdfPath, err := strategy.Convert(ctx, docxPath, tmpDir)
		if err != nil {
			r.logger.Printf("转换策略 %s 失败: %v", strategy.Name(), err)
			continue
		}
		pdfData, err := os.ReadFile(pdfPath)
		if err != nil {
			r.logger.Printf("读取转换产物失败 (%s): %v", strategy.Name(), err)
			continue
		}
		r.logger.Printf("转换策略 %s 成功，产物 %d 字节", strategy.Name(), len(pdfData))
		return r.renderPDF(ctx, pdfData, maxPages, dpi)
	}

	r.logger.Printf("所有DOCX转换策略均失败")
	return nil
}
