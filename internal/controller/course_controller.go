package controller

import (
	"lms_client/internal/model"
	"lms_client/internal/page"
	"lms_client/internal/service"
	"lms_client/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	Services   page.CourseServices
	Categories *service.CategoryService
}

func NewCourseController(svc page.CourseServices, categories *service.CategoryService) *CourseController {
	return &CourseController{Services: svc, Categories: categories}
}

// @Summary 课程列表
// @Router /view/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	list, err := c.Services.Courses.List(ctx.Request.Context(), model.CourseFilter{
		Search:   ctx.Query("search"),
		Category: ctx.Query("category"),
		Level:    model.CourseLevel(ctx.Query("level")),
		Sort:     ctx.Query("sort"),
		Page:     queryInt(ctx, "page"),
		Limit:    queryInt(ctx, "limit"),
	})
	if err != nil {
		util.APIError(ctx, err, util.ContextLoad)
		return
	}
	util.Success(ctx, list)
}

// @Summary 课程分类
// @Router /view/categories [get]
func (c *CourseController) ListCategories(ctx *gin.Context) {
	cats, err := c.Categories.List(ctx.Request.Context())
	if err != nil {
		util.APIError(ctx, err, util.ContextLoad)
		return
	}
	util.Success(ctx, cats)
}

// openPage 每个请求一个页面实例，请求结束即销毁
func (c *CourseController) openPage(ctx *gin.Context) (*page.CourseDetailPage, bool) {
	p := page.NewCourseDetailPage(ctx.Request.Context(), c.Services, ctx.Param("id"))
	if err := p.Load(ctx.Request.Context()); err != nil {
		renderView(ctx, p.View(), p.View().Error)
		p.Close()
		return nil, false
	}
	_, _ = p.CheckEnrollment(ctx.Request.Context())
	return p, true
}

// @Summary 课程详情，合并课程、课时、评价与选课状态
// @Router /view/courses/{id} [get]
func (c *CourseController) Detail(ctx *gin.Context) {
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()
	util.Success(ctx, p.View())
}

// @Summary 选课
// @Router /view/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	if _, err := p.Enroll(ctx.Request.Context()); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Created(ctx, p.View())
}

// @Summary 提交评价
// @Router /view/courses/{id}/reviews [post]
func (c *CourseController) Review(ctx *gin.Context) {
	var in model.ReviewInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	if _, err := p.SubmitReview(ctx.Request.Context(), in); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Created(ctx, p.View())
}

// @Summary 标记评价有用
// @Router /view/courses/{id}/reviews/{reviewId}/helpful [post]
func (c *CourseController) Helpful(ctx *gin.Context) {
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	if err := p.MarkHelpful(ctx.Request.Context(), ctx.Param("reviewId")); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Success(ctx, p.View())
}

// @Summary 发布课程
// @Router /view/courses/{id}/publish [patch]
func (c *CourseController) Publish(ctx *gin.Context) {
	c.togglePublish(ctx, true)
}

// @Summary 取消发布
// @Router /view/courses/{id}/unpublish [patch]
func (c *CourseController) Unpublish(ctx *gin.Context) {
	c.togglePublish(ctx, false)
}

func (c *CourseController) togglePublish(ctx *gin.Context, publish bool) {
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	var err error
	if publish {
		err = p.Publish(ctx.Request.Context())
	} else {
		err = p.Unpublish(ctx.Request.Context())
	}
	if err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Success(ctx, p.View())
}

// @Summary 新建课时
// @Router /view/courses/{id}/lessons [post]
func (c *CourseController) CreateLesson(ctx *gin.Context) {
	var in model.LessonInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	if _, err := p.CreateLesson(ctx.Request.Context(), in); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Created(ctx, p.View())
}

// @Summary 修改课时
// @Router /view/courses/{id}/lessons/{lessonId} [patch]
func (c *CourseController) UpdateLesson(ctx *gin.Context) {
	var in model.LessonInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	if _, err := p.UpdateLesson(ctx.Request.Context(), ctx.Param("lessonId"), in); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Success(ctx, p.View())
}

// @Summary 删除课时
// @Router /view/courses/{id}/lessons/{lessonId} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	if err := p.DeleteLesson(ctx.Request.Context(), ctx.Param("lessonId")); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Success(ctx, p.View())
}
