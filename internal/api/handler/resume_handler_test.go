package handler

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/extractor"
	"resume-screener-go/internal/parser"
	"resume-screener-go/internal/storage"
)

// 测试用PDF文本策略桩：返回固定文本
type stubPDFStrategy struct {
	text string
}

func (s *stubPDFStrategy) Name() string { return "stub" }

func (s *stubPDFStrategy) ExtractText(ctx context.Context, data []byte) (string, error) {
	return s.text, nil
}

const stubResumeText = `Alice Wong
alice.wong@example.com
Backend engineer with five years of experience in Go and Kafka.

Skills
Go, Kafka, PostgreSQL
`

// newTestHandler 规则层管线 + 临时工作簿存储
func newTestHandler(t *testing.T) (*ResumeHandler, *storage.ExcelStore) {
	t.Helper()

	textExtractor := parser.NewTextExtractor(
		[]parser.PDFTextStrategy{&stubPDFStrategy{text: stubResumeText}},
		nil, nil, nil)
	pipeline := extractor.NewPipeline(nil, textExtractor, nil, nil, nil)

	store := storage.NewExcelStore(
		filepath.Join(t.TempDir(), "resume_data.xlsx"), "Resumes", zerolog.Nop())

	return NewResumeHandler(pipeline, store), store
}

// TestHandleResumeUpload 单文件上传：抽取、校验、入库
func TestHandleResumeUpload(t *testing.T) {
	h, store := newTestHandler(t)

	result, err := h.HandleResumeUpload(context.Background(),
		bytes.NewReader([]byte("%PDF-1.7 body")), "alice.pdf")
	require.NoError(t, err)

	assert.Equal(t, "OK", result.Status)
	assert.Equal(t, extractor.TierRules, result.Tier)
	require.NotEmpty(t, result.ResumeID)

	_, rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, result.ResumeID, rows[0][constants.FieldResumeID])
	assert.Equal(t, "alice.pdf", rows[0][constants.FieldFileName])
	assert.Equal(t, "alice.wong@example.com", rows[0][constants.FieldEmail])
}

// TestHandleResumeUploadBadFile 扩展名或签名不符时拒绝
func TestHandleResumeUploadBadFile(t *testing.T) {
	h, _ := newTestHandler(t)

	// 不支持的扩展名
	result, err := h.HandleResumeUpload(context.Background(),
		bytes.NewReader([]byte("%PDF-1.7")), "resume.txt")
	require.Error(t, err)
	assert.Equal(t, "FAILED", result.Status)

	// 扩展名是pdf但签名不是
	result, err = h.HandleResumeUpload(context.Background(),
		bytes.NewReader([]byte("garbage bytes")), "resume.pdf")
	require.Error(t, err)
	assert.Equal(t, "FAILED", result.Status)
}

// TestHandleBatchUpload 单个文件失败不中断其余文件
func TestHandleBatchUpload(t *testing.T) {
	h, store := newTestHandler(t)

	results := h.HandleBatchUpload(context.Background(), []NamedReader{
		{Name: "good.pdf", Reader: bytes.NewReader([]byte("%PDF-1.7 first"))},
		{Name: "bad.txt", Reader: strings.NewReader("not supported")},
		{Name: "another.pdf", Reader: bytes.NewReader([]byte("%PDF-1.7 second"))},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "OK", results[0].Status)
	assert.Equal(t, "FAILED", results[1].Status)
	assert.Equal(t, "OK", results[2].Status)

	_, rows, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

// TestHandleListFilters 列表查询的子串和年限过滤
func TestHandleListFilters(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.HandleResumeUpload(context.Background(),
		bytes.NewReader([]byte("%PDF-1.7 body")), "alice.pdf")
	require.NoError(t, err)

	all, err := h.HandleList(ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	// 技能子串命中（大小写不敏感）
	hit, err := h.HandleList(ListFilter{Query: "kafka"})
	require.NoError(t, err)
	assert.Len(t, hit, 1)

	miss, err := h.HandleList(ListFilter{Query: "haskell"})
	require.NoError(t, err)
	assert.Empty(t, miss)

	// 规则层抽不出年限，年限过滤筛掉该行
	tooSenior, err := h.HandleList(ListFilter{MinExperience: 3})
	require.NoError(t, err)
	assert.Empty(t, tooSenior)
}

// TestHandleDelete 删除后列表为空
func TestHandleDelete(t *testing.T) {
	h, _ := newTestHandler(t)

	result, err := h.HandleResumeUpload(context.Background(),
		bytes.NewReader([]byte("%PDF-1.7 body")), "alice.pdf")
	require.NoError(t, err)

	removed, err := h.HandleDelete([]string{result.ResumeID})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	rows, err := h.HandleList(ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = h.HandleDelete(nil)
	require.Error(t, err)
}

// TestHandleExport 导出字节流非空且是ZIP容器(XLSX)
func TestHandleExport(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.HandleResumeUpload(context.Background(),
		bytes.NewReader([]byte("%PDF-1.7 body")), "alice.pdf")
	require.NoError(t, err)

	data, err := h.HandleExport([]string{constants.FieldName, constants.FieldEmail})
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte(constants.ZIPSignature)))
}
