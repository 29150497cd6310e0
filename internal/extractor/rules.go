package extractor

import (
	"regexp"
	"sort"
	"strings"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/types"
)

// 规则层：不依赖任何外部服务的正则兜底抽取。
// 作为级联的地板，任何输入（包括空文本）都返回完整默认映射，绝不报错。

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?(?:\(\d{2,4}\)[\s.-]?)?\d{3,4}[\s.-]?\d{3,4}[\s.-]?\d{0,4}`)
	linkedinPattern = regexp.MustCompile(`(?i)linkedin\.com\S*`)
	githubPattern   = regexp.MustCompile(`(?i)github\.com\S*`)
	gradYearPattern = regexp.MustCompile(`(19|20)\d{2}`)
	nameRejectRe    = regexp.MustCompile(`(?i)@|linkedin|github|\d`)
	skillsHeadRe    = regexp.MustCompile(`(?i)^skills\b`)
	skillSplitRe    = regexp.MustCompile(`[,\|\n;]`)
)

// 学位关键词按优先级排列，命中即停
var degreeKeywords = []struct {
	key   string
	level string
}{
	{"phd", "PhD"}, {"doctor", "PhD"},
	{"masters", "Masters"}, {"m.tech", "Masters"}, {"mtech", "Masters"},
	{"m.s", "Masters"}, {"ms", "Masters"},
	{"bachelors", "Bachelors"}, {"b.tech", "Bachelors"}, {"btech", "Bachelors"},
	{"b.s", "Bachelors"}, {"bs", "Bachelors"},
}

var sectionHeaders = map[string]bool{
	"objective":  true,
	"summary":    true,
	"experience": true,
	"education":  true,
	"skills":     true,
}

// ExtractWithRules 对简历文本做规则抽取，返回19个抽取字段的完整映射
func ExtractWithRules(text string) types.RawFields {
	data := types.DefaultFields()
	if strings.TrimSpace(text) == "" {
		return data
	}

	if m := emailPattern.FindString(text); m != "" {
		data[constants.FieldEmail] = m
	}

	// 电话号码：去掉分隔符后至少10位才认为有效
	if m := phonePattern.FindString(text); m != "" && len(strings.TrimSpace(m)) >= 10 {
		data[constants.FieldPhone] = strings.TrimSpace(m)
	}

	if m := linkedinPattern.FindString(text); m != "" {
		data[constants.FieldLinkedIn] = m
	}
	if m := githubPattern.FindString(text); m != "" {
		data[constants.FieldGitHub] = m
	}

	lines := nonEmptyLines(text)

	// 姓名启发式：前10行里第一条不超过6个词、
	// 不是小节标题且不含邮箱/链接/数字的行
	limit := len(lines)
	if limit > 10 {
		limit = 10
	}
	for _, ln := range lines[:limit] {
		if len(strings.Fields(ln)) <= 6 &&
			!sectionHeaders[strings.ToLower(ln)] &&
			!nameRejectRe.MatchString(ln) {
			data[constants.FieldName] = ln
			break
		}
	}

	lowered := strings.ToLower(text)
	for _, d := range degreeKeywords {
		if strings.Contains(lowered, d.key) {
			data[constants.FieldHighestDegree] = d.level
			break
		}
	}

	if m := gradYearPattern.FindString(text); m != "" {
		data[constants.FieldGraduationYear] = m
	}

	// 技能小节：从"Skills"标题行起取10行上下文，按分隔符切分去重
	for i, ln := range lines {
		if !skillsHeadRe.MatchString(ln) {
			continue
		}
		end := i + 10
		if end > len(lines) {
			end = len(lines)
		}
		section := strings.Join(lines[i:end], " ")
		tokens := splitSkills(section)
		if len(tokens) > 0 {
			data[constants.FieldTechnicalSkills] = strings.Join(tokens, ", ")
		}
		break
	}

	return data
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

func splitSkills(section string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, part := range skillSplitRe.Split(section, -1) {
		t := strings.TrimSpace(part)
		if len(t) < 2 || seen[t] {
			continue
		}
		seen[t] = true
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}
