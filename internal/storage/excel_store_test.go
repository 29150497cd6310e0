package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/types"
)

func newTestStore(t *testing.T) *ExcelStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out", "resume_data.xlsx")
	return NewExcelStore(path, "Resumes", zerolog.Nop())
}

func testRecord(id, name, email string) types.CandidateRecord {
	raw := types.DefaultFields()
	raw[constants.FieldResumeID] = id
	raw[constants.FieldFileName] = name + ".pdf"
	raw[constants.FieldUploadDate] = "2026-08-30 10:00:00"
	raw[constants.FieldName] = name
	raw[constants.FieldEmail] = email
	return types.Validate(raw)
}

// TestExcelStoreSaveAndLoad 基本写读回环
func TestExcelStoreSaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Save([]types.CandidateRecord{
		testRecord("id-1", "Alice", "alice@example.com"),
	}, true, nil)
	require.NoError(t, err)
	assert.Equal(t, store.Path(), path)

	cols, rows, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, constants.CanonicalFields, cols)
	require.Len(t, rows, 1)
	assert.Equal(t, "id-1", rows[0][constants.FieldResumeID])
	assert.Equal(t, "alice@example.com", rows[0][constants.FieldEmail])
}

// TestExcelStoreLoadMissing 文件不存在时返回空结果
func TestExcelStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)

	cols, rows, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cols)
	assert.Nil(t, rows)
}

// TestExcelStoreMergeDedup 合并写入按resume_id去重保留最新
func TestExcelStoreMergeDedup(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save([]types.CandidateRecord{
		testRecord("id-1", "Alice", "alice@example.com"),
		testRecord("id-2", "Bob", "bob@example.com"),
	}, true, nil)
	require.NoError(t, err)

	// 同一resume_id再次写入，新值覆盖旧值
	_, err = store.Save([]types.CandidateRecord{
		testRecord("id-2", "Bob", "bob.new@example.com"),
		testRecord("id-3", "Carol", "carol@example.com"),
	}, true, nil)
	require.NoError(t, err)

	_, rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byID := make(map[string]map[string]any)
	for _, row := range rows {
		byID[row[constants.FieldResumeID].(string)] = row
	}
	assert.Equal(t, "bob.new@example.com", byID["id-2"][constants.FieldEmail])
	assert.Equal(t, "alice@example.com", byID["id-1"][constants.FieldEmail])
}

// TestExcelStoreOverwrite 覆盖模式丢弃既有数据
func TestExcelStoreOverwrite(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save([]types.CandidateRecord{
		testRecord("id-1", "Alice", "alice@example.com"),
		testRecord("id-2", "Bob", "bob@example.com"),
	}, true, nil)
	require.NoError(t, err)

	_, err = store.Save([]types.CandidateRecord{
		testRecord("id-9", "Zoe", "zoe@example.com"),
	}, false, nil)
	require.NoError(t, err)

	_, rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "id-9", rows[0][constants.FieldResumeID])
}

// TestExcelStoreColumnSubset 选中列子集时只落这些列
func TestExcelStoreColumnSubset(t *testing.T) {
	store := newTestStore(t)

	subset := []string{constants.FieldResumeID, constants.FieldName, constants.FieldEmail, "nonexistent"}
	_, err := store.Save([]types.CandidateRecord{
		testRecord("id-1", "Alice", "alice@example.com"),
	}, false, subset)
	require.NoError(t, err)

	cols, rows, err := store.Load()
	require.NoError(t, err)
	// 不存在的列名被忽略
	assert.Equal(t, []string{constants.FieldResumeID, constants.FieldName, constants.FieldEmail}, cols)
	require.Len(t, rows, 1)
}

// TestExcelStoreMergeColumnUnion 新旧列集合不同时取并集，缺口填哨兵值
func TestExcelStoreMergeColumnUnion(t *testing.T) {
	store := newTestStore(t)

	// 旧数据只有三列
	_, err := store.Save([]types.CandidateRecord{
		testRecord("id-1", "Alice", "alice@example.com"),
	}, false, []string{constants.FieldResumeID, constants.FieldName, constants.FieldEmail})
	require.NoError(t, err)

	// 新数据是全量列，合并后旧行在新列上补哨兵值
	_, err = store.Save([]types.CandidateRecord{
		testRecord("id-2", "Bob", "bob@example.com"),
	}, true, nil)
	require.NoError(t, err)

	cols, rows, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, cols, len(constants.CanonicalFields))
	require.Len(t, rows, 2)

	for _, row := range rows {
		if row[constants.FieldResumeID] == "id-1" {
			assert.Equal(t, constants.NotFound, row[constants.FieldCollegeName])
		}
	}
}

// TestExcelStoreDelete 按resume_id整行删除
func TestExcelStoreDelete(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save([]types.CandidateRecord{
		testRecord("id-1", "Alice", "alice@example.com"),
		testRecord("id-2", "Bob", "bob@example.com"),
		testRecord("id-3", "Carol", "carol@example.com"),
	}, true, nil)
	require.NoError(t, err)

	removed, err := store.Delete([]string{"id-1", "id-3", "id-404"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "id-2", rows[0][constants.FieldResumeID])
}

// TestExcelStoreExportBytes 导出的字节流是可打开的工作簿
func TestExcelStoreExportBytes(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save([]types.CandidateRecord{
		testRecord("id-1", "Alice", "alice@example.com"),
	}, true, nil)
	require.NoError(t, err)

	data, err := store.ExportBytes([]string{constants.FieldName, constants.FieldEmail})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// 写回临时文件验证工作簿结构
	tmp := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, os.WriteFile(tmp, data, 0o600))

	f, err := excelize.OpenFile(tmp)
	require.NoError(t, err)
	defer f.Close()

	sheetRows, err := f.GetRows("Resumes")
	require.NoError(t, err)
	require.Len(t, sheetRows, 2)
	assert.Equal(t, []string{constants.FieldName, constants.FieldEmail}, sheetRows[0])
	assert.Equal(t, "Alice", sheetRows[1][0])
}
