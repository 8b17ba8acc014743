package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/config"
	"github.com/theAAcoderr/agrimodelbackend/internal/api/handler"
	"github.com/theAAcoderr/agrimodelbackend/internal/api/middleware"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/jwt"
	"github.com/theAAcoderr/agrimodelbackend/pkg/metrics"
)

// 角色组合
var (
	superOnly = []string{model.RoleSuperAdmin}
	admins    = []string{model.RoleSuperAdmin, model.RoleCollegeAdmin}
	reviewers = []string{model.RoleSuperAdmin, model.RoleCollegeAdmin, model.RoleProfessor}
	staff     = []string{model.RoleSuperAdmin, model.RoleCollegeAdmin, model.RoleProfessor, model.RoleDataScientist}
)

// Deps 路由依赖
type Deps struct {
	JWT     *jwt.Manager
	Users   middleware.UserLoader
	Limiter middleware.RateLimiter // nil 时不限流
	Metrics *metrics.Metrics       // nil 时不暴露 /metrics
	Logger  *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CaptureServerErrors())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)
	r.GET("/health/ready", h.Health.Ready)
	r.GET("/health/live", h.Health.Live)

	limiter := deps.Limiter
	if !cfg.RateLimit.Enabled {
		limiter = nil
	}
	limit := func(group string, lc config.LimitConfig) gin.HandlerFunc {
		return middleware.RateLimit(limiter, group, lc, deps.Metrics, deps.Logger)
	}

	jsonLimit := middleware.BodyLimit(cfg.Server.MaxBodyBytes)
	fileLimit := middleware.BodyLimit(cfg.Storage.MaxFileSize*service.MaxFilesPerUpload + 1<<20)

	authenticate := middleware.Authenticate(deps.JWT, deps.Users)
	approved := middleware.RequireApproved()

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(limit("api", cfg.RateLimit.API))
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth", jsonLimit)
		{
			auth.POST("/login", limit("auth", cfg.RateLimit.Auth), h.Auth.Login)
			auth.POST("/register", limit("register", cfg.RateLimit.Reg), h.Auth.Register)
			auth.POST("/register/college-admin", limit("register", cfg.RateLimit.Reg), h.Auth.RegisterCollegeAdmin)
			auth.POST("/register/super-admin", limit("register", cfg.RateLimit.Reg), h.Auth.RegisterSuperAdmin)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/forgot-password", limit("auth", cfg.RateLimit.Auth), h.Auth.ForgotPassword)
			auth.POST("/reset-password", limit("auth", cfg.RateLimit.Auth), h.Auth.ResetPassword)

			// 只要求登录，不要求审核通过
			auth.GET("/me", authenticate, h.Auth.Me)
			auth.PUT("/change-password", authenticate, h.Auth.ChangePassword)
			auth.POST("/logout", authenticate, h.Auth.Logout)
		}

		// 注册页使用的学院列表
		v1.GET("/colleges/public/approved", h.College.ListPublic)

		// 需要认证且审核通过的路由
		authorized := v1.Group("")
		authorized.Use(authenticate, approved)

		// 用户模块
		users := authorized.Group("/users", jsonLimit)
		{
			users.GET("", middleware.RoleAuth(superOnly...), h.User.ListUsers)
			users.GET("/pending", middleware.RoleAuth(admins...), h.User.ListPending)
			users.GET("/college/:id", h.User.ListCollegeMembers)
			users.GET("/by-college/:id", middleware.RoleAuth(admins...), h.User.ListByCollege)
			users.GET("/by-department/:department", middleware.RoleAuth(reviewers...), h.User.ListByDepartment)
			users.GET("/:id", h.User.GetUser)
			users.PATCH("/:id", h.User.UpdateUser) // 本人或管理员（Service 层鉴权）
			users.POST("/:id/approve", middleware.RoleAuth(admins...), h.User.ApproveUser)
			users.POST("/:id/reject", middleware.RoleAuth(admins...), h.User.RejectUser)
			users.DELETE("/:id", middleware.RoleAuth(admins...), h.User.DeleteUser)
		}

		// 学院模块
		colleges := authorized.Group("/colleges", jsonLimit)
		{
			colleges.GET("", middleware.RoleAuth(superOnly...), h.College.ListColleges)
			colleges.GET("/approved", middleware.RoleAuth(superOnly...), h.College.ListApproved)
			colleges.GET("/pending", middleware.RoleAuth(superOnly...), h.College.ListPending)
			colleges.GET("/:id", h.College.GetCollege)
			colleges.POST("", middleware.RoleAuth(superOnly...), h.College.CreateCollege)
			colleges.PATCH("/:id", middleware.RoleAuth(admins...), h.College.UpdateCollege)
			colleges.POST("/:id/approve", middleware.RoleAuth(superOnly...), h.College.ApproveCollege)
			colleges.POST("/:id/reject", middleware.RoleAuth(superOnly...), h.College.RejectCollege)
			colleges.DELETE("/:id", middleware.RoleAuth(superOnly...), h.College.DeleteCollege)
		}

		// 项目模块
		projects := authorized.Group("/projects", jsonLimit)
		{
			projects.GET("", h.Project.ListProjects)
			projects.GET("/:id", h.Project.GetProject)
			projects.POST("", middleware.RoleAuth(staff...), h.Project.CreateProject)
			projects.PATCH("/:id", h.Project.UpdateProject)
			projects.DELETE("/:id", h.Project.DeleteProject)
		}

		// 数据提交模块
		submissions := authorized.Group("/data-submissions", jsonLimit)
		{
			submissions.POST("/draft", h.Submission.SaveDraft)
			submissions.GET("", h.Submission.ListSubmissions)
			submissions.GET("/stats/summary", h.Submission.Stats)
			submissions.GET("/student/:id", h.Submission.ListByStudent)
			submissions.GET("/project/:id", h.Submission.ListByProject)
			submissions.GET("/:id", h.Submission.GetSubmission)
			submissions.POST("", h.Submission.CreateSubmission)
			submissions.POST("/:id/submit", h.Submission.SubmitDraft)
			submissions.PATCH("/:id", h.Submission.UpdateSubmission)
			submissions.DELETE("/:id", h.Submission.DeleteSubmission)
			submissions.PATCH("/:id/approve", middleware.RoleAuth(reviewers...), h.Submission.ApproveSubmission)
			submissions.PATCH("/:id/reject", middleware.RoleAuth(reviewers...), h.Submission.RejectSubmission)
		}

		// 传感器模块
		sensors := authorized.Group("/sensors", jsonLimit)
		{
			sensors.GET("", h.Sensor.ListSensors)
			sensors.POST("", middleware.RoleAuth(staff...), h.Sensor.CreateSensor)
			sensors.GET("/:id", h.Sensor.GetSensor)
			sensors.PATCH("/:id", h.Sensor.UpdateSensor)
			sensors.DELETE("/:id", h.Sensor.DeleteSensor)
			sensors.GET("/:id/readings", h.Sensor.ListSensorReadings)
			sensors.POST("/:id/readings", h.Sensor.CreateSensorReading)
		}

		readings := authorized.Group("/sensor-readings", jsonLimit)
		{
			readings.GET("", h.Sensor.ListReadings)
			readings.GET("/recent", h.Sensor.RecentReadings)
			readings.GET("/stats/:sensorId", h.Sensor.ReadingStats)
			readings.GET("/:id", h.Sensor.GetReading)
			readings.POST("", h.Sensor.CreateReading)
			readings.PATCH("/:id", h.Sensor.UpdateReading)
			readings.DELETE("/:id", h.Sensor.DeleteReading)
		}

		// 报告模块
		reports := authorized.Group("/reports", jsonLimit)
		{
			reports.GET("", h.Report.ListReports)
			reports.GET("/stats/summary", h.Report.Stats)
			reports.GET("/:id", h.Report.GetReport)
			reports.POST("", h.Report.CreateReport)
			reports.PATCH("/:id", h.Report.UpdateReport)
			reports.DELETE("/:id", h.Report.DeleteReport)
			reports.PATCH("/:id/publish", h.Report.PublishReport)
		}

		// 通知模块
		notifications := authorized.Group("/notifications", jsonLimit)
		{
			notifications.GET("", h.Notification.ListNotifications)
			notifications.GET("/unread-count", h.Notification.UnreadCount)
			notifications.PATCH("/mark-all-read", h.Notification.MarkAllRead)
			notifications.DELETE("/read/all", h.Notification.DeleteRead)
			notifications.GET("/:id", h.Notification.GetNotification)
			notifications.PATCH("/:id/read", h.Notification.MarkRead)
			notifications.DELETE("/:id", h.Notification.DeleteNotification)
			notifications.POST("", middleware.RoleAuth(reviewers...), h.Notification.CreateNotification)
		}

		// 交流模块
		comm := authorized.Group("/communication", jsonLimit)
		{
			comm.GET("/announcements", h.Communication.ListAnnouncements)
			comm.POST("/announcements", middleware.RoleAuth(reviewers...), h.Communication.CreateAnnouncement)
			comm.GET("/discussions", h.Communication.ListDiscussions)
			comm.POST("/discussions", h.Communication.CreateDiscussion)
			comm.DELETE("/discussions/:id", h.Communication.DeleteDiscussion)
			comm.GET("/discussions/:id/replies", h.Communication.ListReplies)
			comm.POST("/discussions/:id/replies", h.Communication.CreateReply)
			comm.GET("/conversations", h.Communication.ListConversations)
			comm.POST("/conversations", h.Communication.CreateConversation)
			comm.GET("/conversations/:id/messages", h.Communication.ListMessages)
			comm.POST("/conversations/:id/messages", h.Communication.SendMessage)
		}

		// 模型登记
		models := authorized.Group("/ml-models", jsonLimit)
		{
			models.GET("", h.Model.ListModels)
			models.GET("/:id", h.Model.GetModel)
			models.POST("", middleware.RoleAuth(staff...), h.Model.CreateModel)
			models.PATCH("/:id", h.Model.UpdateModel)
			models.DELETE("/:id", h.Model.DeleteModel)
		}

		// 科研数据条目
		research := authorized.Group("/research-data", jsonLimit)
		{
			research.GET("", h.ResearchData.ListResearchData)
			research.POST("", h.ResearchData.CreateResearchData)
			research.DELETE("/:id", h.ResearchData.DeleteResearchData)
		}

		// 搜索
		authorized.GET("/search", h.Search.Search)

		// 文件上传
		uploads := authorized.Group("/uploads", fileLimit, limit("upload", cfg.RateLimit.Upload))
		{
			uploads.POST("/single", h.Upload.UploadSingle)
			uploads.POST("/multiple", h.Upload.UploadMultiple)
			uploads.DELETE("/delete/*key", h.Upload.DeleteFile)
			uploads.GET("/info/*key", h.Upload.FileInfo)
			uploads.GET("/list/*folder", h.Upload.ListFiles)
		}

		// 统计分析
		analytics := authorized.Group("/analytics", middleware.RoleAuth(admins...))
		{
			analytics.GET("/dashboard", h.Analytics.Dashboard)
			analytics.GET("/users/by-role", h.Analytics.UsersByRole)
			analytics.GET("/projects/by-status", h.Analytics.ProjectsByStatus)
			analytics.GET("/activity/recent", h.Analytics.RecentActivity)
			analytics.GET("/growth/monthly", h.Analytics.MonthlyGrowth)
		}

		// 批量导入导出
		batch := authorized.Group("/batch")
		{
			batch.POST("/import/data", fileLimit, middleware.RoleAuth(reviewers...), h.Batch.ImportData)
			batch.GET("/export/data/:projectId", middleware.RoleAuth(staff...), h.Batch.ExportData)
		}
	}

	return r
}
