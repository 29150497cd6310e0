// Package app 是组合根：按配置把解析、渲染、抽取、存储各组件装配起来，
// 供HTTP服务和批处理CLI两个入口共用。
package app

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"resume-screener-go/internal/config"
	"resume-screener-go/internal/extractor"
	appCoreLogger "resume-screener-go/internal/logger"
	"resume-screener-go/internal/parser"
	"resume-screener-go/internal/render"
	"resume-screener-go/internal/storage"
)

// ComponentLogger 按日志级别返回组件用的标准库logger。
// debug级别下写到stderr，否则丢弃，和抽取组件的注入约定保持一致。
func ComponentLogger(cfg *config.Config, prefix string) *log.Logger {
	if cfg.Logger.Level == "debug" {
		return log.New(os.Stderr, prefix, log.LstdFlags|log.Lshortfile)
	}
	return log.New(io.Discard, "", 0)
}

// BuildPipeline 组装渲染器、文本提取级联和两级模型抽取器。
// 未配置API密钥时模型层为空，级联退化为纯规则抽取。
func BuildPipeline(ctx context.Context, cfg *config.Config) (*extractor.Pipeline, error) {
	runner := parser.ExecRunner{}

	// PDF文本策略：eino解析器优先，纯Go解析器兜底
	einoExtractor, err := parser.NewEinoPDFTextExtractor(ctx, ComponentLogger(cfg, "[EinoPDF] "))
	if err != nil {
		return nil, err
	}
	pdfStrategies := []parser.PDFTextStrategy{
		einoExtractor,
		parser.NewLedongthucPDFTextExtractor(),
	}

	ocr := parser.NewOCRExtractor(parser.OCRConfig{
		Pdftoppm:  cfg.Render.Pdftoppm,
		Tesseract: cfg.OCR.Tesseract,
		Language:  cfg.OCR.Language,
		DPI:       cfg.OCR.DPI,
	}, runner, ComponentLogger(cfg, "[OCR] "))

	docx := parser.NewDOCXExtractor(ComponentLogger(cfg, "[DOCX] "))

	textExtractor := parser.NewTextExtractor(pdfStrategies, ocr, docx, ComponentLogger(cfg, "[TextExtract] "))

	renderer := render.NewRenderer(render.Config{
		Pdftoppm: cfg.Render.Pdftoppm,
		DPI:      cfg.Render.DPI,
		MaxPages: cfg.Render.MaxPages,
	}, runner, render.DefaultStrategies(cfg.Render.Soffice, cfg.Render.Docx2PDF, cfg.Render.MaxParas, runner),
		ComponentLogger(cfg, "[Render] "))

	var visionExtractor *extractor.VisionExtractor
	var llmExtractor *extractor.LLMExtractor
	if cfg.LLM.APIKey != "" {
		timeout := time.Duration(cfg.LLM.Timeout) * time.Second

		// 视觉调用带多页图像，超时给到文本调用的两倍
		visionModel, err := extractor.NewOpenAIChatModel(
			cfg.LLM.APIKey, cfg.LLM.VisionModel, cfg.LLM.BaseURL, cfg.LLM.Temperature, 2*timeout)
		if err != nil {
			return nil, err
		}
		visionExtractor = extractor.NewVisionExtractor(visionModel, ComponentLogger(cfg, "[Vision] "))

		textModel, err := extractor.NewOpenAIChatModel(
			cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, cfg.LLM.Temperature, timeout)
		if err != nil {
			return nil, err
		}
		llmExtractor = extractor.NewLLMExtractor(textModel, ComponentLogger(cfg, "[LLM] "),
			extractor.WithMaxRetries(cfg.LLM.MaxRetries),
			extractor.WithCallTimeout(timeout))
	}

	return extractor.NewPipeline(renderer, textExtractor, visionExtractor, llmExtractor,
		ComponentLogger(cfg, "[Pipeline] ")), nil
}

// BuildStore 按配置创建XLSX存储
func BuildStore(cfg *config.Config) *storage.ExcelStore {
	return storage.NewExcelStore(cfg.Store.Path, cfg.Store.Sheet, appCoreLogger.Logger)
}
