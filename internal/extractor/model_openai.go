package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIChatModel 通过OpenAI兼容的chat/completions接口实现eino的聊天模型接口。
// 支持纯文本消息和带image_url分片的多模态消息，视觉层和文本层共用同一实现，
// 只是注入的模型名不同。
type OpenAIChatModel struct {
	apiKey      string
	modelName   string
	baseURL     string
	temperature float32
	httpClient  *http.Client
}

// NewOpenAIChatModel 创建一个OpenAI兼容的聊天模型实例
func NewOpenAIChatModel(apiKey, modelName, baseURL string, temperature float32, timeout time.Duration) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		return nil, fmt.Errorf("模型名不能为空")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIChatModel{
		apiKey:      apiKey,
		modelName:   modelName,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// --- OpenAI 兼容的请求/响应结构 ---

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float32         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // 字符串，或多模态分片数组
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type openAIChatResponse struct {
	Id      string             `json:"id"`
	Object  string             `json:"object"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
}

// toWireMessage 把eino消息转为OpenAI线格式。
// MultiContent非空时content必须是分片数组，否则是纯字符串。
func toWireMessage(msg *schema.Message) openAIMessage {
	if len(msg.MultiContent) == 0 {
		return openAIMessage{Role: string(msg.Role), Content: msg.Content}
	}

	parts := make([]openAIContentPart, 0, len(msg.MultiContent))
	for _, p := range msg.MultiContent {
		switch p.Type {
		case schema.ChatMessagePartTypeImageURL:
			if p.ImageURL != nil {
				parts = append(parts, openAIContentPart{
					Type:     "image_url",
					ImageURL: &openAIImageURL{URL: p.ImageURL.URL},
				})
			}
		default:
			parts = append(parts, openAIContentPart{Type: "text", Text: p.Text})
		}
	}
	return openAIMessage{Role: string(msg.Role), Content: parts}
}

// Generate 实现 model.ChatModel 接口
func (m *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	wireMessages := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		wireMessages = append(wireMessages, toWireMessage(msg))
	}

	reqPayload := openAIChatRequest{
		Model:       m.modelName,
		Messages:    wireMessages,
		Temperature: m.temperature,
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	url := m.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API 请求失败，状态 %s: %s", httpResp.Status, string(bodyBytes))
	}

	var apiResp openAIChatResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("从 API 收到空选项: %s", string(bodyBytes))
	}

	apiMessage := apiResp.Choices[0].Message
	content := ""
	if apiMessage.Content != nil {
		content = *apiMessage.Content
	}

	role := schema.RoleType(apiMessage.Role)
	if role == "" {
		role = schema.Assistant
	}
	return &schema.Message{Role: role, Content: content}, nil
}

// Stream 实现 model.ChatModel 接口。抽取链路只消费完整响应，不需要流式输出。
func (m *OpenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("OpenAIChatModel 的 Stream 方法未实现")
}

// WithTools 实现 model.ToolCallingChatModel 接口。抽取提示词不使用工具调用，原样返回。
func (m *OpenAIChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

var _ model.ToolCallingChatModel = (*OpenAIChatModel)(nil)
