package controller

import (
	"lms_client/internal/page"
	"lms_client/internal/service"
	"lms_client/internal/util"

	"github.com/gin-gonic/gin"
)

type WishlistController struct {
	Wishlist *service.WishlistService
}

func NewWishlistController(wishlist *service.WishlistService) *WishlistController {
	return &WishlistController{Wishlist: wishlist}
}

// @Summary 收藏夹，空列表时返回空状态与“去逛逛”操作
// @Router /view/wishlist [get]
func (c *WishlistController) Get(ctx *gin.Context) {
	p := page.NewWishlistPage(ctx.Request.Context(), c.Wishlist)
	defer p.Close()

	_ = p.Load(ctx.Request.Context())
	v := p.View()
	renderView(ctx, v, v.Error)
}

// @Summary 加入收藏
// @Router /view/wishlist/{courseId} [post]
func (c *WishlistController) Add(ctx *gin.Context) {
	if err := c.Wishlist.Add(ctx.Request.Context(), ctx.Param("courseId")); err != nil {
		util.APIError(ctx, err, util.ContextMutation)
		return
	}
	util.Created(ctx, gin.H{"courseId": ctx.Param("courseId")})
}

// @Summary 移出收藏
// @Router /view/wishlist/{courseId} [delete]
func (c *WishlistController) Remove(ctx *gin.Context) {
	p := page.NewWishlistPage(ctx.Request.Context(), c.Wishlist)
	defer p.Close()

	if err := p.Load(ctx.Request.Context()); err != nil {
		v := p.View()
		renderView(ctx, v, v.Error)
		return
	}
	if err := p.Remove(ctx.Request.Context(), ctx.Param("courseId")); err != nil {
		renderAlert(ctx, err)
		return
	}
	util.Success(ctx, p.View())
}
