package app

import (
	"lms_client/internal/middleware"
	"lms_client/internal/model"
	"lms_client/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	view := router.Group("/view")

	// 1. 公共页面
	a.registerPublicRoutes(view, c)

	// 2. 登录后可用
	authed := view.Group("")
	authed.Use(middleware.RequireAuth(a.Session))
	{
		a.registerStudentRoutes(authed, c)
	}

	// 3. 教师与管理员
	a.registerTeacherRoutes(view, c)
	a.registerAdminRoutes(view, c)
}

func (a *App) registerPublicRoutes(view *gin.RouterGroup, c *controllers) {
	view.GET("/health", c.health.HealthCheck)

	view.POST("/auth/login", c.auth.Login)
	view.POST("/auth/register", c.auth.Register)
	view.POST("/auth/logout", c.auth.Logout)
	view.GET("/auth/me", c.auth.Me)

	view.GET("/theme", c.theme.Get)
	view.PUT("/theme", c.theme.Set)

	view.GET("/categories", c.course.ListCategories)
	view.GET("/courses", c.course.List)
	// 详情页游客可看，选课状态只在登录后检查
	view.GET("/courses/:id", c.course.Detail)
}

func (a *App) registerStudentRoutes(authed *gin.RouterGroup, c *controllers) {
	authed.POST("/courses/:id/enroll", c.course.Enroll)
	authed.POST("/courses/:id/reviews", c.course.Review)
	authed.POST("/courses/:id/reviews/:reviewId/helpful", c.course.Helpful)

	authed.GET("/batches", c.batch.List)
	authed.GET("/batches/:id", c.batch.Detail)

	authed.GET("/wishlist", c.wishlist.Get)
	authed.POST("/wishlist/:courseId", c.wishlist.Add)
	authed.DELETE("/wishlist/:courseId", c.wishlist.Remove)

	student := authed.Group("/dashboard/student")
	student.Use(middleware.RequireAuth(a.Session, model.Student))
	{
		student.GET("", c.dashboard.StudentDashboard)
	}
}

func (a *App) registerTeacherRoutes(view *gin.RouterGroup, c *controllers) {
	teacher := view.Group("")
	teacher.Use(middleware.RequireAuth(a.Session, model.Teacher, model.Admin))
	{
		teacher.GET("/dashboard/teacher", c.dashboard.TeacherDashboard)

		// 归属校验在页面里做：只有课程作者或管理员可以改
		teacher.PATCH("/courses/:id/publish", c.course.Publish)
		teacher.PATCH("/courses/:id/unpublish", c.course.Unpublish)
		teacher.POST("/courses/:id/lessons", c.course.CreateLesson)
		teacher.PATCH("/courses/:id/lessons/:lessonId", c.course.UpdateLesson)
		teacher.DELETE("/courses/:id/lessons/:lessonId", c.course.DeleteLesson)

		teacher.POST("/batches/:id/modules", c.batch.AddModule)
		teacher.PATCH("/batches/:id/modules/:moduleId", c.batch.UpdateModule)
		teacher.DELETE("/batches/:id/modules/:moduleId", c.batch.DeleteModule)
		teacher.POST("/batches/:id/enroll", c.batch.Enroll)
	}
}

func (a *App) registerAdminRoutes(view *gin.RouterGroup, c *controllers) {
	admin := view.Group("")
	admin.Use(middleware.RequireAuth(a.Session, model.Admin))
	{
		admin.GET("/dashboard/admin", c.dashboard.AdminDashboard)
		admin.GET("/admin/users/export", c.dashboard.ExportUsers)
		admin.PATCH("/admin/users/:id", c.dashboard.UpdateUser)
		admin.DELETE("/admin/users/:id", c.dashboard.DeleteUser)
	}
}
