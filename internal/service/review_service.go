package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
	"lms_client/internal/util"
)

type ReviewService struct {
	API *apiclient.Client
}

func NewReviewService(api *apiclient.Client) *ReviewService {
	return &ReviewService{API: api}
}

func (s *ReviewService) List(ctx context.Context, courseID string, page int) (*model.ReviewList, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	var list model.ReviewList
	if err := s.API.Get(ctx, coursePath(courseID)+"/reviews", q, &list); err != nil {
		return nil, err
	}
	list.Normalize()
	return &list, nil
}

// Create 校验不通过时不发请求
func (s *ReviewService) Create(ctx context.Context, courseID string, in model.ReviewInput) (*model.Review, error) {
	if errs := util.ValidateReview(in.Rating, in.Comment); len(errs) > 0 {
		msg := util.ErrCommentTooShort.Error()
		if _, ok := errs["comment"]; !ok {
			msg = util.ErrRatingOutOfRange.Error()
		}
		return nil, apiclient.Invalid(msg, util.FieldMessages(errs))
	}
	in.Comment = strings.TrimSpace(in.Comment)

	var r model.Review
	if err := sendKeyed(ctx, s.API, http.MethodPost, coursePath(courseID)+"/reviews", in, "review", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReviewService) MarkHelpful(ctx context.Context, courseID, reviewID string) (*model.Review, error) {
	var r model.Review
	path := coursePath(courseID) + "/reviews/" + url.PathEscape(reviewID) + "/helpful"
	if err := sendKeyed(ctx, s.API, http.MethodPost, path, nil, "review", &r); err != nil {
		return nil, err
	}
	return &r, nil
}
