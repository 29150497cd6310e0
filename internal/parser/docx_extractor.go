package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"log"
	"strings"

	"resume-screener-go/internal/constants"
)

// DOCXExtractor 从DOCX(ZIP容器)中提取全部文本：
// 正文段落、页眉页脚段落、表格（单元格用" | "连接、行之间换行），
// 最后对document.xml做一次裸<w:t>扫描，补回结构遍历漏掉的内容（如文本框）。
// 任何失败都返回空串，绝不向上抛异常。
type DOCXExtractor struct {
	logger *log.Logger
}

// NewDOCXExtractor 创建DOCX文本抽取器
func NewDOCXExtractor(logger *log.Logger) *DOCXExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DOCXExtractor{logger: logger}
}

// ExtractText 提取DOCX全部文本，输入损坏或非ZIP容器时返回空串
func (e *DOCXExtractor) ExtractText(data []byte) string {
	if len(data) == 0 || !bytes.HasPrefix(data, []byte(constants.ZIPSignature)) {
		return ""
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Printf("打开DOCX容器失败: %v", err)
		return ""
	}

	docXML := readZipEntry(zr, "word/document.xml")
	if docXML == nil {
		return ""
	}

	paras, tableRows := walkBody(docXML)

	var text []string
	text = append(text, paras...)

	// 页眉页脚（header1.xml, footer1.xml, ...）
	for _, f := range zr.File {
		name := f.Name
		if !strings.HasPrefix(name, "word/header") && !strings.HasPrefix(name, "word/footer") {
			continue
		}
		if !strings.HasSuffix(name, ".xml") {
			continue
		}
		hfParas, _ := walkBody(readZipEntry(zr, name))
		text = append(text, hfParas...)
	}

	// 表格行放在段落之后，与结构遍历的顺序一致
	text = append(text, tableRows...)

	// 裸w:t扫描：把结构遍历没覆盖到的文本节点补进来（大小写不敏感的包含判断）
	existing := strings.ToLower(strings.Join(text, " "))
	for _, node := range sweepTextNodes(docXML) {
		node = strings.TrimSpace(node)
		if len(node) <= 1 {
			continue
		}
		if !strings.Contains(existing, strings.ToLower(node)) {
			text = append(text, node)
		}
	}

	return strings.Join(text, "\n")
}

// ExtractParagraphs 仅返回正文段落，供合成PDF兜底重排版使用
func (e *DOCXExtractor) ExtractParagraphs(data []byte) []string {
	if len(data) == 0 || !bytes.HasPrefix(data, []byte(constants.ZIPSignature)) {
		return nil
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil
	}
	paras, _ := walkBody(readZipEntry(zr, "word/document.xml"))
	return paras
}

func readZipEntry(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil
		}
		return data
	}
	return nil
}

// walkBody 流式遍历WordprocessingML：收集非表格段落与表格行。
// 表格单元格内的多个段落用空格连接，单元格之间用" | "，行之间由调用方换行连接。
func walkBody(xmlData []byte) (paras []string, tableRows []string) {
	if xmlData == nil {
		return nil, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(xmlData))
	var (
		tblDepth  int
		inPara    bool
		inText    bool
		para      strings.Builder
		cellParas []string
		rowCells  []string
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tr":
				if tblDepth == 1 {
					rowCells = nil
				}
			case "tc":
				if tblDepth == 1 {
					cellParas = nil
				}
			case "p":
				inPara = true
				para.Reset()
			case "t":
				inText = true
			}
		case xml.CharData:
			if inPara && inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if !inPara {
					break
				}
				inPara = false
				txt := strings.TrimSpace(para.String())
				if txt == "" {
					break
				}
				if tblDepth > 0 {
					cellParas = append(cellParas, txt)
				} else {
					paras = append(paras, txt)
				}
			case "tc":
				if tblDepth == 1 && len(cellParas) > 0 {
					rowCells = append(rowCells, strings.Join(cellParas, " "))
					cellParas = nil
				}
			case "tr":
				if tblDepth == 1 && len(rowCells) > 0 {
					tableRows = append(tableRows, strings.Join(rowCells, " | "))
					rowCells = nil
				}
			case "tbl":
				tblDepth--
			}
		}
	}
	return paras, tableRows
}

// sweepTextNodes 收集document.xml中所有<w:t>文本节点
func sweepTextNodes(xmlData []byte) []string {
	dec := xml.NewDecoder(bytes.NewReader(xmlData))
	var nodes []string
	var inText bool
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.CharData:
			if inText {
				nodes = append(nodes, string(t))
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		}
	}
	return nodes
}
