package service

import (
	"context"
	"net/http"
	"net/url"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
)

type EnrollmentService struct {
	API *apiclient.Client
}

func NewEnrollmentService(api *apiclient.Client) *EnrollmentService {
	return &EnrollmentService{API: api}
}

func (s *EnrollmentService) Enroll(ctx context.Context, courseID string) (*model.Enrollment, error) {
	var e model.Enrollment
	path := "/enrollments/" + url.PathEscape(courseID) + "/enroll"
	if err := sendKeyed(ctx, s.API, http.MethodPost, path, nil, "enrollment", &e); err != nil {
		return nil, err
	}
	if e.Course.ID == "" {
		e.Course.ID = courseID
	}
	e.Normalize()
	return &e, nil
}

func (s *EnrollmentService) MyEnrollments(ctx context.Context) ([]model.Enrollment, error) {
	var list []model.Enrollment
	if err := getKeyed(ctx, s.API, "/enrollments/my-enrollments", "enrollments", &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Enrollment{}
	}
	for i := range list {
		list[i].Normalize()
	}
	return list, nil
}

func (s *EnrollmentService) UpdateProgress(ctx context.Context, enrollmentID string, in model.ProgressInput) (*model.Enrollment, error) {
	var e model.Enrollment
	path := "/enrollments/" + url.PathEscape(enrollmentID) + "/progress"
	if err := sendKeyed(ctx, s.API, http.MethodPatch, path, in, "enrollment", &e); err != nil {
		return nil, err
	}
	e.Normalize()
	return &e, nil
}

func (s *EnrollmentService) Drop(ctx context.Context, enrollmentID string) error {
	return s.API.Delete(ctx, "/enrollments/"+url.PathEscape(enrollmentID), nil)
}

// IsEnrolled 纯函数：列表中是否有该课程
func IsEnrolled(enrollments []model.Enrollment, courseID string) bool {
	return FindEnrollment(enrollments, courseID) != nil
}

func FindEnrollment(enrollments []model.Enrollment, courseID string) *model.Enrollment {
	if courseID == "" {
		return nil
	}
	for i := range enrollments {
		if enrollments[i].Course.ID == courseID {
			return &enrollments[i]
		}
	}
	return nil
}
