package service

import (
	"context"
	"net/url"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
)

type AnalyticsService struct {
	API *apiclient.Client
}

func NewAnalyticsService(api *apiclient.Client) *AnalyticsService {
	return &AnalyticsService{API: api}
}

func (s *AnalyticsService) TeacherStats(ctx context.Context) (*model.TeacherStats, error) {
	var st model.TeacherStats
	if err := getKeyed(ctx, s.API, "/analytics/teacher", "stats", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *AnalyticsService) StudentStats(ctx context.Context) (*model.StudentStats, error) {
	var st model.StudentStats
	if err := getKeyed(ctx, s.API, "/analytics/student", "stats", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *AnalyticsService) CourseStats(ctx context.Context, courseID string) (*model.CourseStats, error) {
	var st model.CourseStats
	if err := getKeyed(ctx, s.API, "/analytics/courses/"+url.PathEscape(courseID), "stats", &st); err != nil {
		return nil, err
	}
	if st.CourseID == "" {
		st.CourseID = courseID
	}
	return &st, nil
}
