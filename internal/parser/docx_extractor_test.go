package parser

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDOCX 构造测试用DOCX容器
func buildDOCX(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const docBodyXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Alice Wong</w:t></w:r></w:p>
    <w:p><w:r><w:t>Backend </w:t></w:r><w:r><w:t>Engineer</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Company</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Years</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Initech</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>2019</w:t></w:r></w:p><w:p><w:r><w:t>2023</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

// TestDOCXExtractText 正文段落和表格都被提取
func TestDOCXExtractText(t *testing.T) {
	data := buildDOCX(t, map[string]string{"word/document.xml": docBodyXML})
	e := NewDOCXExtractor(nil)

	text := e.ExtractText(data)
	require.NotEmpty(t, text)

	// 跨run的段落被拼成一行
	assert.Contains(t, text, "Backend Engineer")
	assert.Contains(t, text, "Alice Wong")
	// 表格单元格用" | "连接，单元格内多段落用空格连接
	assert.Contains(t, text, "Company | Years")
	assert.Contains(t, text, "Initech | 2019 2023")
}

// TestDOCXExtractTextHeaders 页眉页脚的段落也被收集
func TestDOCXExtractTextHeaders(t *testing.T) {
	headerXML := `<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:p><w:r><w:t>Confidential Resume</w:t></w:r></w:p>
</w:hdr>`
	data := buildDOCX(t, map[string]string{
		"word/document.xml": docBodyXML,
		"word/header1.xml":  headerXML,
	})

	text := NewDOCXExtractor(nil).ExtractText(data)
	assert.Contains(t, text, "Confidential Resume")
}

// TestDOCXExtractTextSweep 结构遍历漏掉的文本节点由裸扫描补回
func TestDOCXExtractTextSweep(t *testing.T) {
	// 文本框里的w:t不在w:p遍历路径上（这里模拟成body外的裸文本节点）
	xmlWithOrphan := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Visible paragraph</w:t></w:r></w:p>
  </w:body>
  <w:orphan><w:t>textbox content</w:t></w:orphan>
</w:document>`
	data := buildDOCX(t, map[string]string{"word/document.xml": xmlWithOrphan})

	text := NewDOCXExtractor(nil).ExtractText(data)
	assert.Contains(t, text, "Visible paragraph")
	assert.Contains(t, text, "textbox content")
}

// TestDOCXExtractTextCorrupt 损坏输入返回空串
func TestDOCXExtractTextCorrupt(t *testing.T) {
	e := NewDOCXExtractor(nil)

	assert.Equal(t, "", e.ExtractText(nil))
	assert.Equal(t, "", e.ExtractText([]byte("not a zip at all")))
	assert.Equal(t, "", e.ExtractText([]byte("PK\x03\x04 truncated garbage")))

	// 合法ZIP但缺少document.xml
	data := buildDOCX(t, map[string]string{"word/other.xml": "<x/>"})
	assert.Equal(t, "", e.ExtractText(data))
}

// TestDOCXExtractParagraphs 仅返回正文段落
func TestDOCXExtractParagraphs(t *testing.T) {
	data := buildDOCX(t, map[string]string{"word/document.xml": docBodyXML})

	paras := NewDOCXExtractor(nil).ExtractParagraphs(data)
	require.Len(t, paras, 2)
	assert.Equal(t, "Alice Wong", paras[0])
	assert.Equal(t, "Backend Engineer", paras[1])
}
