package extractor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrInsufficientText = errors.New("简历文本不足以进行抽取")
	ErrVisionFailed     = errors.New("视觉模型抽取失败")
	ErrLLMFailed        = errors.New("文本模型抽取失败")
	ErrInvalidResponse  = errors.New("模型响应无法解析")
	ErrUnsupportedKind  = errors.New("不支持的文件类型")
)

// ExtractError 包含详细错误信息的自定义错误
type ExtractError struct {
	ResumeID string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *ExtractError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 简历:%s): %s", e.BaseErr, e.Op, e.ResumeID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 简历:%s)", e.BaseErr, e.Op, e.ResumeID)
}

func (e *ExtractError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ExtractError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewInsufficientTextError(resumeID, detail string) error {
	return &ExtractError{
		ResumeID: resumeID,
		Op:       "text_check",
		BaseErr:  ErrInsufficientText,
		Detail:   detail,
	}
}

func NewVisionError(resumeID, detail string) error {
	return &ExtractError{
		ResumeID: resumeID,
		Op:       "vision",
		BaseErr:  ErrVisionFailed,
		Detail:   detail,
	}
}

func NewLLMError(resumeID, detail string) error {
	return &ExtractError{
		ResumeID: resumeID,
		Op:       "llm",
		BaseErr:  ErrLLMFailed,
		Detail:   detail,
	}
}

func NewResponseError(resumeID, detail string) error {
	return &ExtractError{
		ResumeID: resumeID,
		Op:       "parse_response",
		BaseErr:  ErrInvalidResponse,
		Detail:   detail,
	}
}
