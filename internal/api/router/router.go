package router

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-screener-go/internal/api/handler"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler) {
	api := h.Group("/api/v1")

	// 上传一个或多个简历文件，表单字段名为file，可重复
	api.POST("/resume/upload", func(c context.Context, ctx *app.RequestContext) {
		form, err := ctx.MultipartForm()
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "解析multipart表单失败"})
			return
		}

		fileHeaders := form.File["file"]
		if len(fileHeaders) == 0 {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		files := make([]handler.NamedReader, 0, len(fileHeaders))
		var closers []interface{ Close() error }
		for _, fh := range fileHeaders {
			f, err := fh.Open()
			if err != nil {
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
				return
			}
			closers = append(closers, f)
			files = append(files, handler.NamedReader{Name: fh.Filename, Reader: f})
		}
		defer func() {
			for _, c := range closers {
				_ = c.Close()
			}
		}()

		results := resumeHandler.HandleBatchUpload(c, files)

		// 全部失败返回422，部分成功仍返回200
		allFailed := true
		for _, r := range results {
			if r.Status == "OK" {
				allFailed = false
				break
			}
		}
		status := consts.StatusOK
		if allFailed {
			status = consts.StatusUnprocessableEntity
		}
		ctx.JSON(status, utils.H{"results": results})
	})

	// 查询已入库的候选人记录
	api.GET("/resumes", func(c context.Context, ctx *app.RequestContext) {
		filter := handler.ListFilter{
			Query: string(ctx.Query("q")),
		}
		if raw := string(ctx.Query("min_experience")); raw != "" {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				ctx.JSON(consts.StatusBadRequest, utils.H{"error": "min_experience必须是数字"})
				return
			}
			filter.MinExperience = f
		}

		rows, err := resumeHandler.HandleList(filter)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"total": len(rows), "resumes": rows})
	})

	// 按resume_id删除记录，ids为逗号分隔
	api.DELETE("/resumes", func(c context.Context, ctx *app.RequestContext) {
		raw := string(ctx.Query("ids"))
		if raw == "" {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "未提供ids参数"})
			return
		}
		var ids []string
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}

		removed, err := resumeHandler.HandleDelete(ids)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"removed": removed})
	})

	// 导出工作簿，columns为可选的逗号分隔列子集
	api.GET("/resumes/export", func(c context.Context, ctx *app.RequestContext) {
		var columns []string
		if raw := string(ctx.Query("columns")); raw != "" {
			for _, col := range strings.Split(raw, ",") {
				if col = strings.TrimSpace(col); col != "" {
					columns = append(columns, col)
				}
			}
		}

		data, err := resumeHandler.HandleExport(columns)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		filename := "resume_data_" + time.Now().Format("20060102_150405") + ".xlsx"
		ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		ctx.Data(consts.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	})

	// 添加健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
