package extractor

import (
	"context"
	"io"
	"log"
	"strings"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/parser"
	"resume-screener-go/internal/render"
	"resume-screener-go/internal/types"
)

// 抽取层级标识，随结果返回供调用方记录
const (
	TierVision = "vision"
	TierLLM    = "llm"
	TierRules  = "rules"
)

// Pipeline 三层抽取级联：视觉模型优先，失败降级到文本模型，
// 文本模型再失败降级到规则抽取。只有一种情况终止降级：
// 视觉层失败且文档连50个字符的可用文本都提不出来，此时拒绝该文件。
type Pipeline struct {
	renderer      *render.Renderer
	textExtractor *parser.TextExtractor
	vision        *VisionExtractor
	llm           *LLMExtractor
	logger        *log.Logger
}

// NewPipeline 创建抽取管线。vision/llm允许为nil（未配置模型时直接走低层级）。
func NewPipeline(renderer *render.Renderer, textExtractor *parser.TextExtractor,
	vision *VisionExtractor, llm *LLMExtractor, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Pipeline{
		renderer:      renderer,
		textExtractor: textExtractor,
		vision:        vision,
		llm:           llm,
		logger:        logger,
	}
}

// Extract 对文档字节流执行级联抽取，返回原始字段映射和命中的层级。
// 返回的映射未经校验，调用方需再过一遍types.Validate。
func (p *Pipeline) Extract(ctx context.Context, data []byte, kind string) (types.RawFields, string, error) {
	if kind != constants.SourcePDF && kind != constants.SourceDOCX {
		return nil, "", &ExtractError{Op: "dispatch", BaseErr: ErrUnsupportedKind, Detail: kind}
	}

	// 第一层：视觉模型
	if p.vision != nil && p.renderer != nil {
		pages := p.renderer.RenderPages(ctx, data, kind, 0, 0)
		if len(pages) > 0 {
			data, err := p.vision.Extract(ctx, pages)
			if err == nil {
				p.logger.Printf("[Pipeline] 视觉层抽取成功 (%d 页)", len(pages))
				return data, TierVision, nil
			}
			p.logger.Printf("[Pipeline] 视觉层失败，降级到文本层: %v", err)
		} else {
			p.logger.Printf("[Pipeline] 页面渲染为空，跳过视觉层")
		}
	}

	// 文本提取是后两层的共同前提，不足50字符即拒绝该文件
	text := p.textExtractor.Extract(ctx, data, kind)
	if len(strings.TrimSpace(text)) < constants.MinTextLength {
		return nil, "", NewInsufficientTextError("",
			"可用文本不足50字符，无法继续抽取")
	}

	// 第二层：文本模型（内部已含规则回填）
	if p.llm != nil {
		data, err := p.llm.Extract(ctx, text)
		if err == nil {
			p.logger.Printf("[Pipeline] 文本层抽取成功")
			return data, TierLLM, nil
		}
		p.logger.Printf("[Pipeline] 文本层失败，降级到规则层: %v", err)
	}

	// 第三层：规则抽取，级联的地板，对任何文本都产出结果
	return ExtractWithRules(text), TierRules, nil
}
