package service

import (
	"context"
	"net/url"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
)

type WishlistService struct {
	API *apiclient.Client
}

func NewWishlistService(api *apiclient.Client) *WishlistService {
	return &WishlistService{API: api}
}

func (s *WishlistService) Get(ctx context.Context) (*model.Wishlist, error) {
	var w model.Wishlist
	if err := getKeyed(ctx, s.API, "/wishlist", "wishlist", &w); err != nil {
		return nil, err
	}
	w.Normalize()
	return &w, nil
}

func (s *WishlistService) Add(ctx context.Context, courseID string) error {
	return s.API.Post(ctx, "/wishlist/"+url.PathEscape(courseID), nil, nil)
}

func (s *WishlistService) Remove(ctx context.Context, courseID string) error {
	return s.API.Delete(ctx, "/wishlist/"+url.PathEscape(courseID), nil)
}
