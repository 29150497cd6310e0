package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/types"
)

const llmSystemPrompt = `You are a highly reliable resume parser. Return only the requested structured data as a single JSON object. If information is missing, use 'Not Found'. For experience years, return a number.`

const llmUserPromptTemplate = `Extract the following fields from the resume text below. Be precise and avoid hallucinations. Return only a JSON object with exactly these keys:
%s

String fields default to "Not Found" when absent; "total_experience_years" is a number, 0 when absent.

Resume Text:
%s`

var whitespaceRe = regexp.MustCompile(`\s+`)

// LLMExtractor 第二层：把简历纯文本交给文本模型做结构化抽取。
// 模型返回大面积默认值时用规则层逐字段回填，避免一次失手全表空洞。
type LLMExtractor struct {
	llmModel   model.ToolCallingChatModel
	logger     *log.Logger
	maxRetries int
	timeout    time.Duration
}

// LLMExtractorOption 定义配置选项函数类型
type LLMExtractorOption func(*LLMExtractor)

// WithMaxRetries 设置LLM调用的最大重试次数
func WithMaxRetries(n int) LLMExtractorOption {
	return func(e *LLMExtractor) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithCallTimeout 设置单次LLM调用超时
func WithCallTimeout(d time.Duration) LLMExtractorOption {
	return func(e *LLMExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewLLMExtractor 创建文本抽取器
func NewLLMExtractor(llmModel model.ToolCallingChatModel, logger *log.Logger, options ...LLMExtractorOption) *LLMExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	e := &LLMExtractor{
		llmModel:   llmModel,
		logger:     logger,
		maxRetries: 2,
		timeout:    60 * time.Second,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Extract 对简历文本做结构化抽取，返回19个抽取字段的完整映射
func (e *LLMExtractor) Extract(ctx context.Context, text string) (types.RawFields, error) {
	normalized := normalizeText(text)
	if len(normalized) > constants.MaxPromptChars {
		e.logger.Printf("[LLMExtractor] 简历文本超出预算，截断至 %d 字符", constants.MaxPromptChars)
		normalized = normalized[:constants.MaxPromptChars]
	}

	userPrompt := fmt.Sprintf(llmUserPromptTemplate,
		strings.Join(constants.ExtractionFields, ", "), normalized)

	messages := []*schema.Message{
		{Role: schema.System, Content: llmSystemPrompt},
		{Role: schema.User, Content: userPrompt},
	}

	response, err := callLLM(ctx, e.llmModel, messages, e.maxRetries, e.timeout, e.logger)
	if err != nil {
		return nil, NewLLMError("", err.Error())
	}

	data, err := parseFieldsResponse(response)
	if err != nil {
		e.logger.Printf("[LLMExtractor] 响应解析失败: %v", err)
		return nil, NewResponseError("", err.Error())
	}

	// 模型偶尔返回结构正确但内容全空的JSON，此时规则层仍可能救回部分字段
	if mostlyDefaults(data) {
		e.logger.Printf("[LLMExtractor] 模型结果大面积为默认值，用规则抽取回填")
		ruleData := ExtractWithRules(text)
		for key, v := range ruleData {
			if types.IsDefaultValue(data[key]) && !types.IsDefaultValue(v) {
				data[key] = v
			}
		}
	}

	return data, nil
}

// normalizeText 折叠连续空白为单个空格，去首尾空白
func normalizeText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// mostlyDefaults 判断抽取结果是否有九成以上字段仍为默认值
func mostlyDefaults(data types.RawFields) bool {
	defaults := 0
	for _, key := range constants.ExtractionFields {
		if types.IsDefaultValue(data[key]) {
			defaults++
		}
	}
	return float64(defaults) >= 0.9*float64(len(constants.ExtractionFields))
}

// parseFieldsResponse 从模型响应中提取JSON并投影到抽取字段集合上
func parseFieldsResponse(response string) (types.RawFields, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("无法从模型响应中提取有效的JSON")
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}

	// 只接收约定的字段键，模型多给的键直接丢弃
	data := types.DefaultFields()
	for _, key := range constants.ExtractionFields {
		if v, ok := parsed[key]; ok && v != nil {
			data[key] = v
		}
	}
	return data, nil
}

// callLLM 调用LLM处理提示词，带重试和退避
func callLLM(ctx context.Context, llmModel model.ToolCallingChatModel, messages []*schema.Message,
	maxRetries int, timeout time.Duration, logger *log.Logger) (string, error) {

	retryDelay := 2 * time.Second

	var response *schema.Message
	var err error

	// 重试逻辑
	for retry := 0; retry <= maxRetries; retry++ {
		// 如果是重试，则先检查上下文是否已取消
		if retry > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("上下文已取消: %w", ctx.Err())
			case <-time.After(retryDelay):
				// 增加退避时间
				retryDelay *= 2
				logger.Printf("重试LLM调用 (第%d次)", retry)
			}
		}

		// 创建带超时的上下文，继承上游的取消信号
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		response, err = llmModel.Generate(callCtx, messages)
		cancel()

		if err == nil {
			break
		}

		// 判断是否应该重试
		if !isRetryableError(err) || retry >= maxRetries {
			logger.Printf("LLM调用最终失败: %v", err)
			return "", fmt.Errorf("LLM Generate failed: %w", err)
		}
	}

	return response.Content, nil
}

// isRetryableError 判断错误是否应该重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// 检查常见的可重试错误
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host")
}

// 从文本中提取JSON
func extractJSON(text string) string {
	// 尝试使用正则表达式提取 ```json ... ``` 代码块中的内容
	re := regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	matches := re.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	// 如果正则没有匹配到，尝试寻找 JSON 的开始和结束位置作为回退
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	// 查找匹配的}
	level := 0
	for i := start; i < len(text); i++ {
		if text[i] == '{' {
			level++
		} else if text[i] == '}' {
			level--
			if level == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}
