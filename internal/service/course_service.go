package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
)

type CourseService struct {
	API *apiclient.Client
}

func NewCourseService(api *apiclient.Client) *CourseService {
	return &CourseService{API: api}
}

func coursePath(id string) string {
	return "/courses/" + url.PathEscape(id)
}

func (s *CourseService) List(ctx context.Context, f model.CourseFilter) (*model.CourseList, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Level != "" {
		q.Set("level", string(f.Level))
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var list model.CourseList
	if err := s.API.Get(ctx, "/courses", q, &list); err != nil {
		return nil, err
	}
	list.Normalize()
	return &list, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course
	if err := getKeyed(ctx, s.API, coursePath(id), "course", &c); err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, &apiclient.Error{Kind: apiclient.KindNotFound, Status: http.StatusNotFound, Message: "course not found"}
	}
	c.Normalize()
	return &c, nil
}

// MyCourses 教师自己创建的课程
func (s *CourseService) MyCourses(ctx context.Context) ([]model.Course, error) {
	var list model.CourseList
	if err := s.API.Get(ctx, "/courses/my-courses", nil, &list); err != nil {
		return nil, err
	}
	list.Normalize()
	return list.Courses, nil
}

func (s *CourseService) Create(ctx context.Context, in model.CourseInput) (*model.Course, error) {
	if in.Title == "" {
		return nil, apiclient.Invalid("title is required", map[string]string{"title": "required"})
	}
	var c model.Course
	if err := sendKeyed(ctx, s.API, http.MethodPost, "/courses", in, "course", &c); err != nil {
		return nil, err
	}
	c.Normalize()
	return &c, nil
}

func (s *CourseService) Update(ctx context.Context, id string, in model.CourseInput) (*model.Course, error) {
	var c model.Course
	if err := sendKeyed(ctx, s.API, http.MethodPatch, coursePath(id), in, "course", &c); err != nil {
		return nil, err
	}
	c.Normalize()
	return &c, nil
}

func (s *CourseService) Delete(ctx context.Context, id string) error {
	return s.API.Delete(ctx, coursePath(id), nil)
}

func (s *CourseService) Publish(ctx context.Context, id string) (*model.Course, error) {
	return s.setPublished(ctx, id, "/publish")
}

func (s *CourseService) Unpublish(ctx context.Context, id string) (*model.Course, error) {
	return s.setPublished(ctx, id, "/unpublish")
}

func (s *CourseService) setPublished(ctx context.Context, id, action string) (*model.Course, error) {
	var c model.Course
	if err := sendKeyed(ctx, s.API, http.MethodPatch, coursePath(id)+action, nil, "course", &c); err != nil {
		return nil, err
	}
	c.Normalize()
	return &c, nil
}

type CategoryService struct {
	API *apiclient.Client
}

func NewCategoryService(api *apiclient.Client) *CategoryService {
	return &CategoryService{API: api}
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	if err := getKeyed(ctx, s.API, "/categories", "categories", &cats); err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return cats, nil
}
