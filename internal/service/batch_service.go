package service

import (
	"context"
	"net/http"
	"net/url"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
	"lms_client/internal/util"
)

type BatchService struct {
	API *apiclient.Client
}

func NewBatchService(api *apiclient.Client) *BatchService {
	return &BatchService{API: api}
}

func batchPath(id string) string {
	return "/batches/" + url.PathEscape(id)
}

func (s *BatchService) List(ctx context.Context, f model.BatchFilter) ([]model.Batch, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apiclient.Invalid(util.ErrInvalidBatchState.Error(), map[string]string{"status": string(f.Status)})
	}
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Course != "" {
		q.Set("course", f.Course)
	}

	var batches []model.Batch
	if err := getKeyedQuery(ctx, s.API, "/batches", q, "batches", &batches); err != nil {
		return nil, err
	}
	if batches == nil {
		batches = []model.Batch{}
	}
	for i := range batches {
		batches[i].Normalize()
	}
	return batches, nil
}

func (s *BatchService) Get(ctx context.Context, id string) (*model.Batch, error) {
	var b model.Batch
	if err := getKeyed(ctx, s.API, batchPath(id), "batch", &b); err != nil {
		return nil, err
	}
	b.Normalize()
	return &b, nil
}

func (s *BatchService) Create(ctx context.Context, in model.BatchInput) (*model.Batch, error) {
	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.Course == "" {
		fields["course"] = "required"
	}
	if in.Capacity != nil && *in.Capacity < 0 {
		fields["capacity"] = "must not be negative"
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		fields["endDate"] = "must be after start date"
	}
	if len(fields) > 0 {
		return nil, apiclient.Invalid("please fix the highlighted fields", fields)
	}

	var b model.Batch
	if err := sendKeyed(ctx, s.API, http.MethodPost, "/batches", in, "batch", &b); err != nil {
		return nil, err
	}
	b.Normalize()
	return &b, nil
}

func (s *BatchService) Update(ctx context.Context, id string, in model.BatchInput) (*model.Batch, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, apiclient.Invalid(util.ErrInvalidBatchState.Error(), map[string]string{"status": string(in.Status)})
	}
	var b model.Batch
	if err := sendKeyed(ctx, s.API, http.MethodPatch, batchPath(id), in, "batch", &b); err != nil {
		return nil, err
	}
	b.Normalize()
	return &b, nil
}

func (s *BatchService) Delete(ctx context.Context, id string) error {
	return s.API.Delete(ctx, batchPath(id), nil)
}

func (s *BatchService) AddModule(ctx context.Context, batchID string, in model.BatchModuleInput) (*model.BatchModule, error) {
	if in.Title == "" {
		return nil, apiclient.Invalid("module title is required", map[string]string{"title": "required"})
	}
	var m model.BatchModule
	if err := sendKeyed(ctx, s.API, http.MethodPost, batchPath(batchID)+"/modules", in, "module", &m); err != nil {
		return nil, err
	}
	if m.Lessons == nil {
		m.Lessons = []model.Ref{}
	}
	return &m, nil
}

func (s *BatchService) UpdateModule(ctx context.Context, batchID, moduleID string, in model.BatchModuleInput) (*model.BatchModule, error) {
	var m model.BatchModule
	path := batchPath(batchID) + "/modules/" + url.PathEscape(moduleID)
	if err := sendKeyed(ctx, s.API, http.MethodPatch, path, in, "module", &m); err != nil {
		return nil, err
	}
	if m.Lessons == nil {
		m.Lessons = []model.Ref{}
	}
	return &m, nil
}

func (s *BatchService) DeleteModule(ctx context.Context, batchID, moduleID string) error {
	return s.API.Delete(ctx, batchPath(batchID)+"/modules/"+url.PathEscape(moduleID), nil)
}

func (s *BatchService) Enroll(ctx context.Context, batchID string, studentIDs []string) error {
	body := map[string][]string{"students": studentIDs}
	return s.API.Post(ctx, batchPath(batchID)+"/enroll", body, nil)
}

func (s *BatchService) Students(ctx context.Context, batchID string) ([]model.User, error) {
	var users []model.User
	if err := getKeyed(ctx, s.API, batchPath(batchID)+"/students", "students", &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, nil
}

// FilterByStatus 后端过滤不可靠时在本地再过滤一次
func FilterByStatus(batches []model.Batch, status model.BatchStatus) []model.Batch {
	if status == "" {
		return batches
	}
	out := make([]model.Batch, 0, len(batches))
	for _, b := range batches {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}
