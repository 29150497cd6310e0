package constants

// 规范化字段集合：每条通过校验的候选人记录必须包含全部字段。
// 顺序即落表时的默认列顺序。

const (
	// 身份字段（入库时由调用方生成，不参与抽取）
	FieldResumeID   = "resume_id"
	FieldFileName   = "file_name"
	FieldUploadDate = "upload_date"

	// 联系方式
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldLinkedIn = "linkedin"
	FieldGitHub   = "github"

	// 教育背景
	FieldHighestDegree  = "highest_degree"
	FieldCollegeName    = "college_name"
	FieldGraduationYear = "graduation_year"
	FieldMajor          = "major"
	FieldCGPA           = "cgpa"

	// 工作经历
	FieldTotalExperienceYears = "total_experience_years"
	FieldCurrentCompany       = "current_company"
	FieldCurrentDesignation   = "current_designation"
	FieldPreviousCompanies    = "previous_companies"

	// 技能
	FieldTechnicalSkills      = "technical_skills"
	FieldProgrammingLanguages = "programming_languages"
	FieldFrameworksTools      = "frameworks_tools"
	FieldSoftSkills           = "soft_skills"
	FieldCertifications       = "certifications"
)

const (
	// NotFound 字符串字段缺失时的哨兵值
	NotFound = "Not Found"

	// MinTextLength 文本抽取的最低可用长度，低于该值视为内容不足
	MinTextLength = 50

	// MaxPromptChars 发送给文本模型的简历文本最大字符预算
	MaxPromptChars = 12000

	// DefaultMaxPages 视觉层渲染的默认最大页数
	DefaultMaxPages = 3

	// DefaultRenderDPI 渲染光栅页的默认DPI，约等于2.0倍标准放大
	DefaultRenderDPI = 200
)

// 文件签名
const (
	// PDFSignature PDF文件头
	PDFSignature = "%PDF"
	// ZIPSignature DOCX是ZIP容器，以PK开头
	ZIPSignature = "PK"
)

// 文档来源类型
const (
	SourcePDF  = "pdf"
	SourceDOCX = "docx"
)

// CanonicalFields 全部22个规范化字段，按落表顺序排列
var CanonicalFields = []string{
	FieldResumeID, FieldFileName, FieldUploadDate,
	FieldName, FieldEmail, FieldPhone, FieldLinkedIn, FieldGitHub,
	FieldHighestDegree, FieldCollegeName, FieldGraduationYear, FieldMajor, FieldCGPA,
	FieldTotalExperienceYears, FieldCurrentCompany, FieldCurrentDesignation, FieldPreviousCompanies,
	FieldTechnicalSkills, FieldProgrammingLanguages, FieldFrameworksTools, FieldSoftSkills, FieldCertifications,
}

// ExtractionFields 19个参与模型抽取的字段（不含身份字段），提示词按此集合约定JSON输出
var ExtractionFields = []string{
	FieldName, FieldEmail, FieldPhone, FieldLinkedIn, FieldGitHub,
	FieldHighestDegree, FieldCollegeName, FieldGraduationYear, FieldMajor, FieldCGPA,
	FieldTotalExperienceYears, FieldCurrentCompany, FieldCurrentDesignation, FieldPreviousCompanies,
	FieldTechnicalSkills, FieldProgrammingLanguages, FieldFrameworksTools, FieldSoftSkills, FieldCertifications,
}

// IsNumericField 判断字段是否为数值字段（目前仅工作年限）
func IsNumericField(key string) bool {
	return key == FieldTotalExperienceYears
}
