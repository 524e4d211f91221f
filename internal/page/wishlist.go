package page

import (
	"context"

	"lms_client/internal/loader"
	"lms_client/internal/model"
	"lms_client/internal/service"
	"lms_client/internal/util"
)

const EmptyWishlistMessage = "your wishlist is empty"

type WishlistPage struct {
	base
	wishlist *service.WishlistService
	items    *loader.Resource[[]model.WishlistItem]
}

func NewWishlistPage(parent context.Context, svc *service.WishlistService) *WishlistPage {
	return &WishlistPage{
		base:     newBase(parent, "wishlist"),
		wishlist: svc,
		items: loader.NewResource("wishlist",
			loader.WithDefault(emptySlice[model.WishlistItem](), isNilSlice[model.WishlistItem])),
	}
}

// Load 只发一次请求，空列表直接进入空状态
func (p *WishlistPage) Load(ctx context.Context) error {
	_, err := p.items.Load(ctx, p.scope, func(ctx context.Context) ([]model.WishlistItem, error) {
		w, err := p.wishlist.Get(ctx)
		if err != nil {
			return nil, err
		}
		return w.Items, nil
	})
	if err != nil {
		p.fail(err, util.ContextLoad)
	}
	return err
}

func (p *WishlistPage) Remove(ctx context.Context, courseID string) error {
	p.clearAlert()
	if err := p.wishlist.Remove(p.scope.Context(ctx), courseID); err != nil {
		return p.mutationFailed(err)
	}
	return p.apply(func() {
		_ = p.items.Update(func(items []model.WishlistItem) []model.WishlistItem {
			out := make([]model.WishlistItem, 0, len(items))
			for _, it := range items {
				if it.Course.ID != courseID {
					out = append(out, it)
				}
			}
			return out
		})
	})
}

type WishlistView struct {
	State        string               `json:"state"`
	Items        []model.WishlistItem `json:"items"`
	Empty        bool                 `json:"empty"`
	EmptyMessage string               `json:"emptyMessage,omitempty"`
	Actions      []string             `json:"actions,omitempty"`
	Error        *ViewError           `json:"error,omitempty"`
	Alert        string               `json:"alert,omitempty"`
}

func (p *WishlistPage) View() WishlistView {
	v := WishlistView{
		Items: append([]model.WishlistItem{}, p.items.Value()...),
		Error: p.viewError(),
		Alert: p.alertMessage(),
	}
	v.State = statusLabel(v.Error, p.items.State())
	if p.items.State() == loader.Loaded && len(v.Items) == 0 {
		v.Empty = true
		v.EmptyMessage = EmptyWishlistMessage
		v.Actions = []string{util.ActionBrowse}
	}
	return v
}
