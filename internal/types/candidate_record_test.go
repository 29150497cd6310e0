package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener-go/internal/constants"
)

// TestCoerceExperienceYears 测试工作年限的强制转换
func TestCoerceExperienceYears(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
	}{
		{"浮点数直接通过", 3.5, 3.5},
		{"整数转浮点", 7, 7.0},
		{"带单位的字符串取第一个数", "5 years 3 months", 5.0},
		{"小数字符串", "2.5", 2.5},
		{"无数字的字符串", "n/a", 0.0},
		{"空字符串", "", 0.0},
		{"负数钳到零", -1.5, 0.0},
		{"NaN钳到零", math.NaN(), 0.0},
		{"正无穷钳到零", math.Inf(1), 0.0},
		{"nil输入", nil, 0.0},
		{"布尔输入", true, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CoerceExperienceYears(tt.input))
		})
	}
}

// TestCoerceGraduationYear 测试毕业年份的提取
func TestCoerceGraduationYear(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"纯年份", "2019", "2019"},
		{"带上下文的句子", "Class of 2019, GPA 3.8", "2019"},
		{"上世纪年份", "1998", "1998"},
		{"浮点年份", 2021.0, "2021"},
		{"整数年份", 2020, "2020"},
		{"无年份", "unknown", ""},
		{"三位数不算年份", "985", ""},
		{"超范围的年份", "2150", ""},
		{"nil输入", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CoerceGraduationYear(tt.input))
		})
	}
}

// TestValidateTotality 任意输入都产出全字段记录
func TestValidateTotality(t *testing.T) {
	record := Validate(RawFields{})

	require.Len(t, record, len(constants.CanonicalFields))
	for _, key := range constants.CanonicalFields {
		_, ok := record[key]
		require.True(t, ok, "字段 %s 缺失", key)
	}

	assert.Equal(t, constants.NotFound, record[constants.FieldName])
	assert.Equal(t, 0.0, record[constants.FieldTotalExperienceYears])
	assert.Equal(t, "", record[constants.FieldGraduationYear])
}

// TestValidateIdempotence 校验函数是幂等的
func TestValidateIdempotence(t *testing.T) {
	raw := RawFields{
		constants.FieldName:                 "  Jane Doe ",
		constants.FieldEmail:                "jane@example.com",
		constants.FieldTotalExperienceYears: "5 years",
		constants.FieldGraduationYear:       "graduated 2017",
		"unexpected_key":                    "dropped",
	}

	once := Validate(raw)
	twice := Validate(RawFields(once))

	assert.Equal(t, once, twice)
	assert.Equal(t, "Jane Doe", once[constants.FieldName])
	assert.Equal(t, 5.0, once[constants.FieldTotalExperienceYears])
	assert.Equal(t, "2017", once[constants.FieldGraduationYear])

	// 非规范字段被丢弃
	_, ok := once["unexpected_key"]
	assert.False(t, ok)
}

// TestDefaultFields 默认映射覆盖全部抽取字段
func TestDefaultFields(t *testing.T) {
	data := DefaultFields()

	require.Len(t, data, len(constants.ExtractionFields))
	assert.Equal(t, constants.NotFound, data[constants.FieldEmail])
	assert.Equal(t, 0.0, data[constants.FieldTotalExperienceYears])

	for _, key := range constants.ExtractionFields {
		assert.True(t, IsDefaultValue(data[key]), "字段 %s 的默认值判定失败", key)
	}
}

// TestIsDefaultValue 默认值判定
func TestIsDefaultValue(t *testing.T) {
	assert.True(t, IsDefaultValue(nil))
	assert.True(t, IsDefaultValue(""))
	assert.True(t, IsDefaultValue("  "))
	assert.True(t, IsDefaultValue(constants.NotFound))
	assert.True(t, IsDefaultValue(0.0))

	assert.False(t, IsDefaultValue("Go"))
	assert.False(t, IsDefaultValue(3.5))
}
