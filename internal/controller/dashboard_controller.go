package controller

import (
	"bytes"
	"fmt"
	"net/http"

	"lms_client/internal/middleware"
	"lms_client/internal/model"
	"lms_client/internal/page"
	"lms_client/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	Student page.StudentServices
	Teacher page.TeacherServices
	Admin   page.AdminServices
}

func NewDashboardController(student page.StudentServices, teacher page.TeacherServices, admin page.AdminServices) *DashboardController {
	return &DashboardController{Student: student, Teacher: teacher, Admin: admin}
}

// @Summary 学生仪表盘
// @Router /view/dashboard/student [get]
func (c *DashboardController) StudentDashboard(ctx *gin.Context) {
	p := page.NewStudentDashboardPage(ctx.Request.Context(), c.Student)
	defer p.Close()

	_ = p.Load(ctx.Request.Context())
	v := p.View()
	renderView(ctx, v, v.Error)
}

// @Summary 教师仪表盘
// @Router /view/dashboard/teacher [get]
func (c *DashboardController) TeacherDashboard(ctx *gin.Context) {
	p := page.NewTeacherDashboardPage(ctx.Request.Context(), c.Teacher)
	defer p.Close()

	_ = p.Load(ctx.Request.Context())
	v := p.View()
	renderView(ctx, v, v.Error)
}

// @Summary 管理员仪表盘
// @Router /view/dashboard/admin [get]
func (c *DashboardController) AdminDashboard(ctx *gin.Context) {
	p := page.NewAdminDashboardPage(ctx.Request.Context(), c.Admin)
	defer p.Close()

	_ = p.Load(ctx.Request.Context())
	v := p.View(middleware.CurrentUser(ctx))
	renderView(ctx, v, v.Error)
}

type userUpdateBody struct {
	Role     model.UserRole `json:"role"`
	IsActive *bool          `json:"isActive"`
}

// @Summary 修改用户角色或启用状态
// @Router /view/admin/users/{id} [patch]
func (c *DashboardController) UpdateUser(ctx *gin.Context) {
	var body userUpdateBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	p := page.NewAdminDashboardPage(ctx.Request.Context(), c.Admin)
	defer p.Close()
	if err := p.Load(ctx.Request.Context()); err != nil {
		v := p.View(middleware.CurrentUser(ctx))
		renderView(ctx, v, v.Error)
		return
	}

	id := ctx.Param("id")
	var err error
	if body.Role != "" {
		err = p.ChangeRole(ctx.Request.Context(), id, body.Role)
	}
	if err == nil && body.IsActive != nil {
		err = p.SetActive(ctx.Request.Context(), id, *body.IsActive)
	}
	if err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Success(ctx, p.View(middleware.CurrentUser(ctx)))
}

// @Summary 删除用户
// @Router /view/admin/users/{id} [delete]
func (c *DashboardController) DeleteUser(ctx *gin.Context) {
	if self := middleware.CurrentUser(ctx); self != nil && self.ID == ctx.Param("id") {
		util.BadRequest(ctx, "you cannot delete your own account")
		return
	}
	p := page.NewAdminDashboardPage(ctx.Request.Context(), c.Admin)
	defer p.Close()
	if err := p.Load(ctx.Request.Context()); err != nil {
		v := p.View(middleware.CurrentUser(ctx))
		renderView(ctx, v, v.Error)
		return
	}
	if err := p.DeleteUser(ctx.Request.Context(), ctx.Param("id")); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Success(ctx, p.View(middleware.CurrentUser(ctx)))
}

// @Summary 导出用户为 xlsx
// @Router /view/admin/users/export [get]
func (c *DashboardController) ExportUsers(ctx *gin.Context) {
	var buf bytes.Buffer
	n, err := c.Admin.Admin.ExportUsers(ctx.Request.Context(), model.UserFilter{
		Role:   model.UserRole(ctx.Query("role")),
		Search: ctx.Query("search"),
	}, &buf)
	if err != nil {
		util.APIError(ctx, err, util.ContextLoad)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="users-%s.xlsx"`, timeNow().Format(util.DateFormat)))
	ctx.Header("X-Total-Count", fmt.Sprint(n))
	ctx.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
