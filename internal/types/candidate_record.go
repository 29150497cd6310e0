package types

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"resume-screener-go/internal/constants"
)

// RawFields 各抽取层返回的原始字段映射，键为规范化字段名，值尚未经过类型校验
type RawFields = map[string]any

// CandidateRecord 校验后的候选人记录：全部22个规范化字段齐备，
// 字符串字段缺失填哨兵值，工作年限恒为有限非负浮点数。
// 校验完成后记录即不可变，仅允许按resume_id整行删除。
type CandidateRecord map[string]any

var (
	floatPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
	yearPattern  = regexp.MustCompile(`(19|20)\d{2}`)
)

// Validate 将原始字段映射投影到规范化schema上，是一个全函数：
// 任何输入都产出合法记录，且满足 Validate(Validate(x)) == Validate(x)。
func Validate(raw RawFields) CandidateRecord {
	clean := make(CandidateRecord, len(constants.CanonicalFields))
	for _, key := range constants.CanonicalFields {
		v, ok := raw[key]
		if !ok || v == nil {
			v = constants.NotFound
		}

		switch key {
		case constants.FieldTotalExperienceYears:
			clean[key] = CoerceExperienceYears(v)
			continue
		case constants.FieldGraduationYear:
			// 年份约束在1900-2099，无法解析时存空串
			clean[key] = CoerceGraduationYear(v)
			continue
		}

		if s, isStr := v.(string); isStr {
			clean[key] = strings.TrimSpace(s)
		} else {
			clean[key] = v
		}
	}
	return clean
}

// CoerceExperienceYears 把任意输入强制转为有限非负浮点数。
// 数值直接转换；字符串取第一个浮点型子串；其余情况回退到0。
func CoerceExperienceYears(v any) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		m := floatPattern.FindString(val)
		if m == "" {
			return 0.0
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0.0
		}
		f = parsed
	default:
		return 0.0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0.0
	}
	return f
}

// CoerceGraduationYear 提取第一个19xx/20xx四位年份子串，解析失败返回空串
func CoerceGraduationYear(v any) string {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	default:
		return ""
	}
	return yearPattern.FindString(s)
}

// GetString 读取字符串字段，数值字段会被格式化
func (r CandidateRecord) GetString(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// ExperienceYears 读取工作年限字段
func (r CandidateRecord) ExperienceYears() float64 {
	if f, ok := r[constants.FieldTotalExperienceYears].(float64); ok {
		return f
	}
	return 0.0
}

// DefaultFields 返回19个抽取字段的默认值映射（规则层的起点）
func DefaultFields() RawFields {
	data := make(RawFields, len(constants.ExtractionFields))
	for _, key := range constants.ExtractionFields {
		if constants.IsNumericField(key) {
			data[key] = 0.0
		} else {
			data[key] = constants.NotFound
		}
	}
	return data
}

// IsDefaultValue 判断某字段值是否仍为默认值（未抽取到有效信息）
func IsDefaultValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		t := strings.TrimSpace(val)
		return t == "" || t == constants.NotFound
	case float64:
		return val == 0.0
	case float32:
		return val == 0.0
	case int:
		return val == 0
	}
	return false
}
