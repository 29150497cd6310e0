package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/logger"
)

// Config 应用程序配置
type Config struct {
	// LLM 模型服务配置（文本模型与视觉模型共用同一服务端）
	LLM LLMConfig `yaml:"llm"`

	// Render 页面渲染与DOCX转换配置
	Render RenderConfig `yaml:"render"`

	// OCR 扫描件文字识别配置
	OCR OCRConfig `yaml:"ocr"`

	// Store 落表存储配置
	Store StoreConfig `yaml:"store"`

	// Server HTTP服务配置
	Server ServerConfig `yaml:"server"`

	// Logger 日志配置
	Logger logger.Config `yaml:"logger"`
}

// LLMConfig 模型服务配置
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`         // 服务凭证，环境变量优先
	BaseURL     string  `yaml:"base_url"`        // OpenAI兼容服务地址
	Model       string  `yaml:"model"`           // 文本模型名
	VisionModel string  `yaml:"vision_model"`    // 视觉模型名
	Temperature float32 `yaml:"temperature"`     // 采样温度
	Timeout     int     `yaml:"timeout_seconds"` // 单次调用超时(秒)
	MaxRetries  int     `yaml:"max_retries"`     // 可重试错误的最大重试次数
}

// RenderConfig 渲染配置
type RenderConfig struct {
	Pdftoppm  string `yaml:"pdftoppm"`  // pdftoppm二进制，空则用PATH上的
	Soffice   string `yaml:"soffice"`   // LibreOffice headless二进制
	Docx2PDF  string `yaml:"docx2pdf"`  // 平台原生DOCX转换器二进制
	DPI       int    `yaml:"dpi"`       // 光栅化DPI
	MaxPages  int    `yaml:"max_pages"` // 最大渲染页数
	MaxParas  int    `yaml:"max_paras"` // 合成PDF兜底时的最大段落数
}

// OCRConfig 文字识别配置
type OCRConfig struct {
	Tesseract string `yaml:"tesseract"` // tesseract二进制
	Language  string `yaml:"language"`  // 识别语言，默认eng
	DPI       int    `yaml:"dpi"`       // OCR光栅化DPI
}

// StoreConfig 存储配置
type StoreConfig struct {
	Path  string `yaml:"path"`  // xlsx表文件路径
	Sheet string `yaml:"sheet"` // 工作表名
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Address string `yaml:"address"` // 监听地址，如 :8888
}

// LoadConfig 从YAML文件加载配置并应用环境变量覆盖。
// 路径为空时依次尝试常见位置，全部缺失则返回默认配置。
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		candidates := []string{
			"config.yaml",
			"internal/config/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".resume-screener", "config.yaml"),
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	config := createDefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败 %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides 环境变量优先于文件配置，避免凭证落盘
func applyEnvOverrides(config *Config) {
	if envKey := os.Getenv("LLM_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	} else if envKey := os.Getenv("OPENAI_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	}
	if envURL := os.Getenv("LLM_BASE_URL"); envURL != "" {
		config.LLM.BaseURL = envURL
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		config.LLM.Model = envModel
	}
}

// createDefaultConfig 创建默认配置，也用于测试环境
func createDefaultConfig() *Config {
	config := &Config{}

	config.LLM.BaseURL = "https://api.openai.com/v1"
	config.LLM.Model = "gpt-4o-mini"
	config.LLM.VisionModel = "gpt-4o"
	config.LLM.Temperature = 0.0
	config.LLM.Timeout = 60
	config.LLM.MaxRetries = 2

	config.Render.Pdftoppm = "pdftoppm"
	config.Render.Soffice = "soffice"
	config.Render.Docx2PDF = "docx2pdf"
	config.Render.DPI = constants.DefaultRenderDPI
	config.Render.MaxPages = constants.DefaultMaxPages
	config.Render.MaxParas = 50

	config.OCR.Tesseract = "tesseract"
	config.OCR.Language = "eng"
	config.OCR.DPI = constants.DefaultRenderDPI

	config.Store.Path = filepath.Join("output", "resume_data.xlsx")
	config.Store.Sheet = "Resumes"

	config.Server.Address = ":8888"

	config.Logger.Level = "info"
	config.Logger.Format = "json"

	return config
}
