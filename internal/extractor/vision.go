package extractor

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/render"
	"resume-screener-go/internal/types"
)

const visionSystemPromptTemplate = `You are an expert resume parser. You will receive one or more images of a resume. Extract accurate, structured JSON with these keys: [%s]. If not present, use 'Not Found'. For 'total_experience_years' return a number. Return only JSON.`

const visionUserPrompt = `Parse the attached resume images and return the JSON fields.`

// VisionExtractor 第一层：把渲染出的页面图像交给视觉模型做结构化抽取。
// 版式复杂或文字藏在图片里的简历，视觉层往往是唯一能读出内容的层。
type VisionExtractor struct {
	llmModel   model.ToolCallingChatModel
	logger     *log.Logger
	maxRetries int
	timeout    time.Duration
}

// NewVisionExtractor 创建视觉抽取器。视觉调用比文本慢，超时给得更宽。
func NewVisionExtractor(llmModel model.ToolCallingChatModel, logger *log.Logger) *VisionExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &VisionExtractor{
		llmModel:   llmModel,
		logger:     logger,
		maxRetries: 2,
		timeout:    120 * time.Second,
	}
}

// Extract 对页面图像序列做结构化抽取，返回19个抽取字段的完整映射
func (e *VisionExtractor) Extract(ctx context.Context, pages []render.RasterPage) (types.RawFields, error) {
	if len(pages) == 0 {
		return nil, NewVisionError("", "没有可用的页面图像")
	}

	// 用户消息：一段说明文字 + 每页一个image_url分片
	parts := make([]schema.ChatMessagePart, 0, len(pages)+1)
	parts = append(parts, schema.ChatMessagePart{
		Type: schema.ChatMessagePartTypeText,
		Text: visionUserPrompt,
	})
	for _, page := range pages {
		parts = append(parts, schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{URL: page.DataURL()},
		})
	}

	systemPrompt := fmt.Sprintf(visionSystemPromptTemplate,
		"'"+strings.Join(constants.ExtractionFields, "','")+"'")

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, MultiContent: parts},
	}

	e.logger.Printf("[VisionExtractor] 发送 %d 页图像给视觉模型", len(pages))

	response, err := callLLM(ctx, e.llmModel, messages, e.maxRetries, e.timeout, e.logger)
	if err != nil {
		return nil, NewVisionError("", err.Error())
	}

	data, err := parseFieldsResponse(response)
	if err != nil {
		e.logger.Printf("[VisionExtractor] 响应解析失败: %v", err)
		return nil, NewResponseError("", err.Error())
	}
	return data, nil
}
