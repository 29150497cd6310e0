// 批处理入口：扫描目录里的简历文件，逐个抽取后一次性落表。
// 单个文件失败只计数不中断，适合离线批量导入。
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	appbuild "resume-screener-go/internal/app"
	"resume-screener-go/internal/config"
	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/extractor"
	appCoreLogger "resume-screener-go/internal/logger"
	"resume-screener-go/internal/types"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath string
		inputDir   string
		outPath    string
		columns    string
		overwrite  bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.StringVarP(&inputDir, "dir", "d", ".", "Directory containing resume files")
	pflag.StringVarP(&outPath, "out", "o", "", "Output workbook path (overrides config)")
	pflag.StringVar(&columns, "columns", "", "Comma-separated column subset to save")
	pflag.BoolVar(&overwrite, "overwrite", false, "Overwrite the workbook instead of merging")
	pflag.Parse()

	initLogger()
	logger := appCoreLogger.Logger

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	if outPath != "" {
		cfg.Store.Path = outPath
	}

	ctx := context.Background()

	pipeline, err := appbuild.BuildPipeline(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化抽取管线失败")
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn().Msg("未配置LLM API密钥，抽取将退化为纯规则层")
	}
	store := appbuild.BuildStore(cfg)

	files, err := collectResumeFiles(inputDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", inputDir).Msg("扫描目录失败")
	}
	if len(files) == 0 {
		logger.Fatal().Str("dir", inputDir).Msg("目录中没有.pdf/.docx文件")
	}
	logger.Info().Int("count", len(files)).Str("dir", inputDir).Msg("开始批量处理")

	var records []types.CandidateRecord
	failed := 0
	for _, path := range files {
		record, err := processFile(ctx, pipeline, path)
		if err != nil {
			logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("文件处理失败，跳过")
			failed++
			continue
		}
		records = append(records, record)
		logger.Info().
			Str("file", filepath.Base(path)).
			Str("resume_id", record.GetString(constants.FieldResumeID)).
			Msg("文件处理完成")
	}

	if len(records) == 0 {
		logger.Fatal().Int("failed", failed).Msg("没有任何文件处理成功")
	}

	var selectedColumns []string
	if columns != "" {
		for _, col := range strings.Split(columns, ",") {
			if col = strings.TrimSpace(col); col != "" {
				selectedColumns = append(selectedColumns, col)
			}
		}
	}

	savedPath, err := store.Save(records, !overwrite, selectedColumns)
	if err != nil {
		logger.Fatal().Err(err).Msg("落表失败")
	}

	logger.Info().
		Int("saved", len(records)).
		Int("failed", failed).
		Str("path", savedPath).
		Msg("批量处理完成")
}

// processFile 处理单个简历文件：抽取、补身份字段、校验
func processFile(ctx context.Context, pipeline *extractor.Pipeline, path string) (types.CandidateRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}

	var kind string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		kind = constants.SourcePDF
	case ".docx", ".doc":
		kind = constants.SourceDOCX
	default:
		return nil, fmt.Errorf("不支持的文件格式: %s", filepath.Ext(path))
	}

	raw, _, err := pipeline.Extract(ctx, data, kind)
	if err != nil {
		return nil, err
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	raw[constants.FieldResumeID] = uuidV7.String()
	raw[constants.FieldFileName] = filepath.Base(path)
	raw[constants.FieldUploadDate] = time.Now().Format("2006-01-02 15:04:05")

	return types.Validate(raw), nil
}

// collectResumeFiles 收集目录下的简历文件，不递归子目录
func collectResumeFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf", ".docx", ".doc":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func initLogger() {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()
	appCoreLogger.Logger = logger
	zlog.Logger = logger
}
