package model

import "time"

type WishlistItem struct {
	Course  Course    `json:"course"`
	AddedAt time.Time `json:"addedAt,omitempty"`
}

type Wishlist struct {
	Items []WishlistItem `json:"items"`
}

func (w *Wishlist) Normalize() {
	if w.Items == nil {
		w.Items = []WishlistItem{}
	}
	for i := range w.Items {
		w.Items[i].Course.Normalize()
	}
}
