package service

import (
	"context"
	"net/http"
	"net/url"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
)

type LessonService struct {
	API *apiclient.Client
}

func NewLessonService(api *apiclient.Client) *LessonService {
	return &LessonService{API: api}
}

func lessonsPath(courseID string) string {
	return coursePath(courseID) + "/lessons"
}

func lessonPath(courseID, lessonID string) string {
	return lessonsPath(courseID) + "/" + url.PathEscape(lessonID)
}

// List 返回按 order 排好序的课时
func (s *LessonService) List(ctx context.Context, courseID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	if err := getKeyed(ctx, s.API, lessonsPath(courseID), "lessons", &lessons); err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []model.Lesson{}
	}
	for i := range lessons {
		lessons[i].Normalize()
	}
	model.SortLessons(lessons)
	return lessons, nil
}

func (s *LessonService) Get(ctx context.Context, courseID, lessonID string) (*model.Lesson, error) {
	var l model.Lesson
	if err := getKeyed(ctx, s.API, lessonPath(courseID, lessonID), "lesson", &l); err != nil {
		return nil, err
	}
	l.Normalize()
	return &l, nil
}

func (s *LessonService) Create(ctx context.Context, courseID string, in model.LessonInput) (*model.Lesson, error) {
	if in.Title == "" {
		return nil, apiclient.Invalid("lesson title is required", map[string]string{"title": "required"})
	}
	var l model.Lesson
	if err := sendKeyed(ctx, s.API, http.MethodPost, lessonsPath(courseID), in, "lesson", &l); err != nil {
		return nil, err
	}
	l.Normalize()
	return &l, nil
}

func (s *LessonService) Update(ctx context.Context, courseID, lessonID string, in model.LessonInput) (*model.Lesson, error) {
	var l model.Lesson
	if err := sendKeyed(ctx, s.API, http.MethodPatch, lessonPath(courseID, lessonID), in, "lesson", &l); err != nil {
		return nil, err
	}
	l.Normalize()
	return &l, nil
}

func (s *LessonService) Delete(ctx context.Context, courseID, lessonID string) error {
	return s.API.Delete(ctx, lessonPath(courseID, lessonID), nil)
}

// Reorder 按给定 id 顺序重排
func (s *LessonService) Reorder(ctx context.Context, courseID string, lessonIDs []string) error {
	body := map[string][]string{"lessonIds": lessonIDs}
	return s.API.Patch(ctx, lessonsPath(courseID)+"/reorder", body, nil)
}

// MarkComplete 标记课时完成，进度记在选课记录上
func (s *LessonService) MarkComplete(ctx context.Context, enrollmentID, lessonID string) (*model.Enrollment, error) {
	var e model.Enrollment
	path := "/enrollments/" + url.PathEscape(enrollmentID) + "/progress"
	in := model.ProgressInput{LessonID: lessonID, Completed: true}
	if err := sendKeyed(ctx, s.API, http.MethodPatch, path, in, "enrollment", &e); err != nil {
		return nil, err
	}
	e.Normalize()
	return &e, nil
}
