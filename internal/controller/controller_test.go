package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
	"lms_client/internal/page"
	"lms_client/internal/service"
	"lms_client/internal/session"
	"lms_client/internal/theme"
	"lms_client/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func courseBackend(t *testing.T, courseStatus int) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/courses/c1":
			w.WriteHeader(courseStatus)
			if courseStatus == http.StatusOK {
				w.Write([]byte(`{"course":{"id":"c1","title":"Go","teacher":{"id":"t1"},"studentsEnrolled":3}}`))
				return
			}
			w.Write([]byte(`{"message":"Course not found"}`))
		case "/courses/c1/lessons":
			w.Write([]byte(`{"lessons":[{"id":"l2","order":2},{"id":"l1","order":1}]}`))
		case "/courses/c1/reviews":
			w.Write([]byte(`{"reviews":[]}`))
		case "/enrollments/my-enrollments":
			w.Write([]byte(`{"enrollments":[]}`))
		case "/enrollments/c1/enroll":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"enrollment":{"id":"e1","course":"c1"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newCourseController(t *testing.T, srv *httptest.Server, user *model.User) *CourseController {
	sess := session.NewManager(&session.MemoryStore{})
	if user != nil {
		require.NoError(t, sess.SetSession(context.Background(), user, "tok"))
	}
	api := apiclient.New(srv.URL, apiclient.WithTokenSource(sess))
	return NewCourseController(page.CourseServices{
		Courses:     service.NewCourseService(api),
		Lessons:     service.NewLessonService(api),
		Reviews:     service.NewReviewService(api),
		Enrollments: service.NewEnrollmentService(api),
		Session:     sess,
	}, service.NewCategoryService(api))
}

func serve(h gin.HandlerFunc, method, route, target, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, h)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCourseDetailRendersView(t *testing.T) {
	c := newCourseController(t, courseBackend(t, http.StatusOK), nil)

	w := serve(c.Detail, http.MethodGet, "/view/courses/:id", "/view/courses/c1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view struct {
		Course     model.Course   `json:"course"`
		Lessons    []model.Lesson `json:"lessons"`
		IsEnrolled bool           `json:"isEnrolled"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, "Go", view.Course.Title)
	require.Len(t, view.Lessons, 2)
	assert.Equal(t, "l1", view.Lessons[0].ID)
	assert.False(t, view.IsEnrolled)
}

func TestCourseDetailNotFound(t *testing.T) {
	c := newCourseController(t, courseBackend(t, http.StatusNotFound), nil)

	w := serve(c.Detail, http.MethodGet, "/view/courses/:id", "/view/courses/c1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, util.MsgNotFound, decode(t, w).Message)
}

func TestCourseEnrollRequiresLogin(t *testing.T) {
	c := newCourseController(t, courseBackend(t, http.StatusOK), nil)

	w := serve(c.Enroll, http.MethodPost, "/view/courses/:id/enroll", "/view/courses/c1/enroll", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCourseEnrollCreated(t *testing.T) {
	student := &model.User{BaseModel: model.BaseModel{ID: "s1"}, Role: model.Student}
	c := newCourseController(t, courseBackend(t, http.StatusOK), student)

	w := serve(c.Enroll, http.MethodPost, "/view/courses/:id/enroll", "/view/courses/c1/enroll", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var view struct {
		Course     model.Course `json:"course"`
		IsEnrolled bool         `json:"isEnrolled"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.True(t, view.IsEnrolled)
	assert.Equal(t, 4, view.Course.StudentsEnrolled)
}

func TestTeacherOnlyLessonCreate(t *testing.T) {
	other := &model.User{BaseModel: model.BaseModel{ID: "t2"}, Role: model.Teacher}
	c := newCourseController(t, courseBackend(t, http.StatusOK), other)

	w := serve(c.CreateLesson, http.MethodPost, "/view/courses/:id/lessons", "/view/courses/c1/lessons", `{"title":"Intro"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestThemeController(t *testing.T) {
	dir := t.TempDir()
	p := theme.NewProvider(filepath.Join(dir, "theme"), theme.NewStaticSystemSource(theme.Light))
	defer p.Close()
	c := NewThemeController(p)

	w := serve(c.Set, http.MethodPut, "/view/theme", "/view/theme", `{"preference":"neon"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(c.Set, http.MethodPut, "/view/theme", "/view/theme", `{"preference":"dark"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, "dark", got["preference"])
	assert.Equal(t, "dark", got["resolved"])
}

func TestAlertStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, alertStatus(util.ErrNotLoggedIn))
	assert.Equal(t, http.StatusForbidden, alertStatus(util.ErrPermissionDenied))
	assert.Equal(t, http.StatusConflict, alertStatus(util.ErrAlreadyEnrolled))
	assert.Equal(t, http.StatusTooManyRequests, alertStatus(&apiclient.Error{Kind: apiclient.KindRateLimited, Status: 429}))
}
