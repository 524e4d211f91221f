package controller

import (
	"lms_client/internal/model"
	"lms_client/internal/page"
	"lms_client/internal/service"
	"lms_client/internal/util"

	"github.com/gin-gonic/gin"
)

type BatchController struct {
	Batches *service.BatchService
}

func NewBatchController(batches *service.BatchService) *BatchController {
	return &BatchController{Batches: batches}
}

// @Summary 批次列表，可按 status、course 过滤
// @Router /view/batches [get]
func (c *BatchController) List(ctx *gin.Context) {
	p := page.NewBatchListPage(ctx.Request.Context(), c.Batches)
	defer p.Close()

	_ = p.SetFilters(ctx.Request.Context(), model.BatchFilter{
		Status: model.BatchStatus(ctx.Query("status")),
		Course: ctx.Query("course"),
	})
	v := p.View()
	renderView(ctx, v, v.Error)
}

func (c *BatchController) openPage(ctx *gin.Context) (*page.BatchDetailPage, bool) {
	p := page.NewBatchDetailPage(ctx.Request.Context(), c.Batches, ctx.Param("id"))
	if err := p.Load(ctx.Request.Context()); err != nil {
		v := p.View()
		renderView(ctx, v, v.Error)
		p.Close()
		return nil, false
	}
	return p, true
}

// @Summary 批次详情
// @Router /view/batches/{id} [get]
func (c *BatchController) Detail(ctx *gin.Context) {
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()
	util.Success(ctx, p.View())
}

// @Summary 新增模块
// @Router /view/batches/{id}/modules [post]
func (c *BatchController) AddModule(ctx *gin.Context) {
	var in model.BatchModuleInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	if _, err := p.AddModule(ctx.Request.Context(), in); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Created(ctx, p.View())
}

// @Summary 修改模块
// @Router /view/batches/{id}/modules/{moduleId} [patch]
func (c *BatchController) UpdateModule(ctx *gin.Context) {
	var in model.BatchModuleInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	if _, err := p.UpdateModule(ctx.Request.Context(), ctx.Param("moduleId"), in); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Success(ctx, p.View())
}

// @Summary 删除模块
// @Router /view/batches/{id}/modules/{moduleId} [delete]
func (c *BatchController) DeleteModule(ctx *gin.Context) {
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	if err := p.DeleteModule(ctx.Request.Context(), ctx.Param("moduleId")); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Success(ctx, p.View())
}

type enrollBody struct {
	Students []string `json:"students" binding:"required"`
}

// @Summary 批量加入学员
// @Router /view/batches/{id}/enroll [post]
func (c *BatchController) Enroll(ctx *gin.Context) {
	var body enrollBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	p, ok := c.openPage(ctx)
	if !ok {
		return
	}
	defer p.Close()

	if err := p.EnrollStudents(ctx.Request.Context(), body.Students); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Success(ctx, p.View())
}
