package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/types"
)

// ExcelStore 把候选人记录落到单个XLSX工作表里。
// 合并写入时的约定：列取新旧并集（按首见顺序），行按resume_id去重保留最新，
// 没有resume_id列时退化为(file_name, upload_date)组合键，缺失单元格填哨兵值。
// 文件级读改写全程持锁，并发上传不会互相覆盖。
type ExcelStore struct {
	mu     sync.Mutex
	path   string
	sheet  string
	logger zerolog.Logger
}

// NewExcelStore 创建XLSX存储，path为工作簿路径，sheet为工作表名
func NewExcelStore(path, sheet string, logger zerolog.Logger) *ExcelStore {
	if path == "" {
		path = filepath.Join("output", "resume_data.xlsx")
	}
	if sheet == "" {
		sheet = "Resumes"
	}
	return &ExcelStore{path: path, sheet: sheet, logger: logger}
}

// Path 返回工作簿路径
func (s *ExcelStore) Path() string { return s.path }

// Save 写入一批记录。merge为真时与既有数据合并去重，为假时整表覆盖。
// selectedColumns非空时只落选中的列（不存在的列名被忽略）。
// 返回实际写入的工作簿路径。
func (s *ExcelStore) Save(records []types.CandidateRecord, merge bool, selectedColumns []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newCols, newRows := recordsToRows(records, selectedColumns)

	cols := newCols
	rows := newRows
	if merge {
		existingCols, existingRows, err := s.loadLocked()
		if err != nil {
			s.logger.Warn().Err(err).Str("path", s.path).
				Msg("读取既有工作簿失败，按空表合并")
			existingCols, existingRows = nil, nil
		}

		// 列并集，按首见顺序：旧列在前，新列追加
		cols = unionColumns(existingCols, newCols)

		// 旧行在前新行在后，去重保留最后出现的行
		combined := make([]map[string]any, 0, len(existingRows)+len(newRows))
		combined = append(combined, existingRows...)
		combined = append(combined, newRows...)
		rows = dedupeRows(combined, cols)
	}

	if err := s.writeLocked(cols, rows); err != nil {
		return "", err
	}

	s.logger.Info().Str("path", s.path).Int("rows", len(rows)).
		Bool("merge", merge).Msg("工作簿已写入")
	return s.path, nil
}

// Load 读取全部记录。文件不存在时返回空结果而不报错。
func (s *ExcelStore) Load() ([]string, []map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Delete 按resume_id整行删除，返回删除的行数
func (s *ExcelStore) Delete(ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, rows, err := s.loadLocked()
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := rows[:0]
	removed := 0
	for _, row := range rows {
		id, _ := row[constants.FieldResumeID].(string)
		if drop[id] {
			removed++
			continue
		}
		kept = append(kept, row)
	}

	if removed == 0 {
		return 0, nil
	}
	if err := s.writeLocked(cols, kept); err != nil {
		return 0, err
	}

	s.logger.Info().Int("removed", removed).Msg("记录已删除")
	return removed, nil
}

// ExportBytes 生成列子集的工作簿字节流，供下载接口使用。
// selectedColumns为空时导出全部列。
func (s *ExcelStore) ExportBytes(selectedColumns []string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, rows, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	if len(selectedColumns) > 0 {
		existing := make(map[string]bool, len(cols))
		for _, c := range cols {
			existing[c] = true
		}
		subset := make([]string, 0, len(selectedColumns))
		for _, c := range selectedColumns {
			if existing[c] {
				subset = append(subset, c)
			}
		}
		cols = subset
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(s.sheet); err != nil {
		return nil, fmt.Errorf("创建工作表失败: %w", err)
	}
	if index, err := f.GetSheetIndex(s.sheet); err == nil {
		f.SetActiveSheet(index)
	}
	if s.sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(s.sheet, cell, col); err != nil {
			return nil, fmt.Errorf("写入表头失败: %w", err)
		}
	}
	for r, row := range rows {
		for c, col := range cols {
			v, ok := row[col]
			if !ok || v == nil || v == "" {
				if constants.IsNumericField(col) {
					v = 0.0
				} else {
					v = constants.NotFound
				}
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(s.sheet, cell, v); err != nil {
				return nil, fmt.Errorf("写入单元格失败: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("导出工作簿失败: %w", err)
	}
	return buf.Bytes(), nil
}

// loadLocked 读取工作簿，调用方必须持锁
func (s *ExcelStore) loadLocked() ([]string, []map[string]any, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, nil, nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("打开工作簿失败: %w", err)
	}
	defer f.Close()

	sheetRows, err := f.GetRows(s.sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(sheetRows) == 0 {
		return nil, nil, nil
	}

	cols := sheetRows[0]
	rows := make([]map[string]any, 0, len(sheetRows)-1)
	for _, raw := range sheetRows[1:] {
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if i < len(raw) {
				row[col] = raw[i]
			} else {
				// GetRows会裁掉行尾空单元格
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return cols, rows, nil
}

// writeLocked 把行集合写成工作簿，调用方必须持锁
func (s *ExcelStore) writeLocked(cols []string, rows []map[string]any) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(s.sheet); err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}
	if index, err := f.GetSheetIndex(s.sheet); err == nil {
		f.SetActiveSheet(index)
	}
	// 删掉excelize默认建的Sheet1
	if s.sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(s.sheet, cell, col); err != nil {
			return fmt.Errorf("写入表头失败: %w", err)
		}
	}

	for r, row := range rows {
		for c, col := range cols {
			v, ok := row[col]
			if !ok || v == nil || v == "" {
				// 数值列缺失填0，字符串列填哨兵值
				if constants.IsNumericField(col) {
					v = 0.0
				} else {
					v = constants.NotFound
				}
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(s.sheet, cell, v); err != nil {
				return fmt.Errorf("写入单元格失败: %w", err)
			}
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("保存工作簿失败: %w", err)
	}
	return nil
}

// recordsToRows 把记录转为行映射，列顺序按规范化字段序，可选列子集过滤
func recordsToRows(records []types.CandidateRecord, selectedColumns []string) ([]string, []map[string]any) {
	cols := constants.CanonicalFields
	if len(selectedColumns) > 0 {
		allowed := make(map[string]bool, len(cols))
		for _, c := range cols {
			allowed[c] = true
		}
		filtered := make([]string, 0, len(selectedColumns))
		for _, c := range selectedColumns {
			if allowed[c] {
				filtered = append(filtered, c)
			}
		}
		cols = filtered
	}

	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := make(map[string]any, len(cols))
		for _, col := range cols {
			row[col] = rec[col]
		}
		rows = append(rows, row)
	}
	return cols, rows
}

// unionColumns 取两组列名的并集，保持首见顺序
func unionColumns(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, col := range a {
		if !seen[col] {
			seen[col] = true
			out = append(out, col)
		}
	}
	for _, col := range b {
		if !seen[col] {
			seen[col] = true
			out = append(out, col)
		}
	}
	return out
}

// dedupeRows 去重保留最后一次出现的行。有resume_id列用它做键，
// 否则退化为(file_name, upload_date)组合键；两者都没有时不去重。
func dedupeRows(rows []map[string]any, cols []string) []map[string]any {
	hasCol := make(map[string]bool, len(cols))
	for _, c := range cols {
		hasCol[c] = true
	}

	keyOf := func(row map[string]any) string {
		if hasCol[constants.FieldResumeID] {
			if id := asString(row[constants.FieldResumeID]); id != "" {
				return "id:" + id
			}
		}
		if hasCol[constants.FieldFileName] && hasCol[constants.FieldUploadDate] {
			return "fd:" + asString(row[constants.FieldFileName]) + "\x00" + asString(row[constants.FieldUploadDate])
		}
		return ""
	}

	// 先记每个键最后出现的位置，再按原顺序过滤
	lastIndex := make(map[string]int, len(rows))
	for i, row := range rows {
		if k := keyOf(row); k != "" {
			lastIndex[k] = i
		}
	}

	out := make([]map[string]any, 0, len(rows))
	for i, row := range rows {
		k := keyOf(row)
		if k != "" && lastIndex[k] != i {
			continue
		}
		out = append(out, row)
	}
	return out
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
