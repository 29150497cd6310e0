package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/extractor"
	"resume-screener-go/internal/logger"
	"resume-screener-go/internal/storage"
	"resume-screener-go/internal/types"
)

// ResumeHandler 简历处理器，负责协调上传、抽取、入库的完整流程
type ResumeHandler struct {
	pipeline *extractor.Pipeline
	store    *storage.ExcelStore
}

// NewResumeHandler 创建一个新的简历处理器
func NewResumeHandler(pipeline *extractor.Pipeline, store *storage.ExcelStore) *ResumeHandler {
	return &ResumeHandler{
		pipeline: pipeline,
		store:    store,
	}
}

// ResumeUploadResult 单个文件的处理结果
type ResumeUploadResult struct {
	ResumeID string `json:"resume_id,omitempty"`
	FileName string `json:"file_name"`
	Tier     string `json:"tier,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// HandleResumeUpload 处理单个简历文件：抽取、校验、合并入库。
// 返回的result总是非nil，err非nil时result携带失败详情。
func (h *ResumeHandler) HandleResumeUpload(ctx context.Context, reader io.Reader, filename string) (*ResumeUploadResult, error) {
	result := &ResumeUploadResult{FileName: filename, Status: "FAILED"}

	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		result.Error = "读取上传文件内容失败"
		return result, fmt.Errorf("读取上传文件内容失败: %w", err)
	}

	kind, err := detectKind(filename, fileBytes)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	// 生成UUIDv7作为resume_id，时间有序便于排查
	uuidV7, err := uuid.NewV7()
	if err != nil {
		result.Error = "生成UUIDv7失败"
		return result, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	resumeID := uuidV7.String()

	raw, tier, err := h.pipeline.Extract(ctx, fileBytes, kind)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("resume_id", resumeID).
			Str("filename", filename).
			Msg("简历抽取失败")
		result.Error = err.Error()
		return result, err
	}

	// 身份字段由服务端生成，抽取层无权覆盖
	raw[constants.FieldResumeID] = resumeID
	raw[constants.FieldFileName] = filename
	raw[constants.FieldUploadDate] = time.Now().Format("2006-01-02 15:04:05")

	record := types.Validate(raw)

	if _, err := h.store.Save([]types.CandidateRecord{record}, true, nil); err != nil {
		logger.Error().
			Err(err).
			Str("resume_id", resumeID).
			Msg("候选人记录入库失败")
		result.Error = err.Error()
		return result, err
	}

	logger.Info().
		Str("resume_id", resumeID).
		Str("filename", filename).
		Str("tier", tier).
		Msg("简历处理完成")

	result.ResumeID = resumeID
	result.Tier = tier
	result.Status = "OK"
	result.Error = ""
	return result, nil
}

// HandleBatchUpload 批量处理，单个文件失败不中断其余文件
func (h *ResumeHandler) HandleBatchUpload(ctx context.Context, files []NamedReader) []*ResumeUploadResult {
	results := make([]*ResumeUploadResult, 0, len(files))
	for _, f := range files {
		result, err := h.HandleResumeUpload(ctx, f.Reader, f.Name)
		if err != nil {
			logger.Warn().Err(err).Str("filename", f.Name).Msg("批量处理中单个文件失败，继续处理其余文件")
		}
		results = append(results, result)
	}
	return results
}

// NamedReader 带文件名的读取器
type NamedReader struct {
	Name   string
	Reader io.Reader
}

// ListFilter 列表查询条件
type ListFilter struct {
	Query         string  // 姓名/技能子串匹配，不区分大小写
	MinExperience float64 // 最低工作年限
}

// HandleList 查询已入库的候选人记录
func (h *ResumeHandler) HandleList(filter ListFilter) ([]map[string]any, error) {
	_, rows, err := h.store.Load()
	if err != nil {
		return nil, err
	}

	if filter.Query == "" && filter.MinExperience <= 0 {
		return rows, nil
	}

	q := strings.ToLower(filter.Query)
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if filter.MinExperience > 0 && rowExperience(row) < filter.MinExperience {
			continue
		}
		if q != "" && !rowMatches(row, q) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// HandleDelete 按resume_id删除记录，返回删除的行数
func (h *ResumeHandler) HandleDelete(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("未提供resume_id")
	}
	return h.store.Delete(ids)
}

// HandleExport 导出列子集的工作簿字节流
func (h *ResumeHandler) HandleExport(columns []string) ([]byte, error) {
	return h.store.ExportBytes(columns)
}

// detectKind 按扩展名加文件签名判断文档类型
func detectKind(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		if !bytes.HasPrefix(data, []byte(constants.PDFSignature)) {
			return "", fmt.Errorf("文件签名与.pdf扩展名不符: %s", filename)
		}
		return constants.SourcePDF, nil
	case ".docx", ".doc":
		if !bytes.HasPrefix(data, []byte(constants.ZIPSignature)) {
			return "", fmt.Errorf("文件签名与.docx扩展名不符: %s", filename)
		}
		return constants.SourceDOCX, nil
	default:
		return "", fmt.Errorf("不支持的文件格式: %s", filepath.Ext(filename))
	}
}

// rowExperience 读取行的工作年限，字符串形式也尽量解析
func rowExperience(row map[string]any) float64 {
	switch v := row[constants.FieldTotalExperienceYears].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// rowMatches 姓名或技能字段包含查询子串
func rowMatches(row map[string]any, q string) bool {
	for _, key := range []string{
		constants.FieldName,
		constants.FieldTechnicalSkills,
		constants.FieldProgrammingLanguages,
		constants.FieldFrameworksTools,
	} {
		if s, ok := row[key].(string); ok && strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}
