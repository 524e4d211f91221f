package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lms_client/internal/apiclient"
	"lms_client/internal/loader"
	"lms_client/internal/model"
	"lms_client/internal/service"
	"lms_client/internal/session"
	"lms_client/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend 记录每个路径的请求次数
type backend struct {
	t      *testing.T
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
	srv    *httptest.Server
}

func newBackend(t *testing.T) *backend {
	b := &backend{t: t, routes: map[string]http.HandlerFunc{}, hits: map[string]int{}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.hits[key]++
		h, ok := b.routes[key]
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"no route"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

func (b *backend) json(method, path string, status int, body string) {
	b.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

func (b *backend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

func (b *backend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.hits {
		n += v
	}
	return n
}

func newSession(t *testing.T, u *model.User) *session.Manager {
	m := session.NewManager(&session.MemoryStore{})
	if u != nil {
		require.NoError(t, m.SetSession(context.Background(), u, "tok"))
	}
	return m
}

func courseServices(b *backend, sess *session.Manager) CourseServices {
	api := apiclient.New(b.srv.URL, apiclient.WithTokenSource(sess))
	return CourseServices{
		Courses:     service.NewCourseService(api),
		Lessons:     service.NewLessonService(api),
		Reviews:     service.NewReviewService(api),
		Enrollments: service.NewEnrollmentService(api),
		Session:     sess,
	}
}

var teacher = &model.User{BaseModel: model.BaseModel{ID: "t1"}, Name: "Tess", Role: model.Teacher}
var student = &model.User{BaseModel: model.BaseModel{ID: "s1"}, Name: "Sam", Role: model.Student}

func seedCourse(b *backend) {
	b.json(http.MethodGet, "/courses/c1", 200,
		`{"success":true,"data":{"course":{"id":"c1","title":"Go","teacher":{"_id":"t1","name":"Tess"},"rating":4,"totalReviews":1,"totalLessons":2}}}`)
	b.json(http.MethodGet, "/courses/c1/lessons", 200,
		`{"lessons":[{"id":"l2","title":"Two","order":2},{"id":"l1","title":"One","order":1}]}`)
	b.json(http.MethodGet, "/courses/c1/reviews", 200,
		`{"reviews":[{"id":"r1","rating":4,"comment":"nice course indeed","helpfulCount":0}],"pagination":{"total":1}}`)
}

func TestCourseDetailLoadsOnce(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, teacher)), "c1")
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Load(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, b.count(http.MethodGet, "/courses/c1"))
	assert.Equal(t, 1, b.count(http.MethodGet, "/courses/c1/lessons"))
	assert.Equal(t, 1, b.count(http.MethodGet, "/courses/c1/reviews"))

	v := p.View()
	assert.Equal(t, "loaded", v.State)
	assert.True(t, v.IsOwner)
	require.Len(t, v.Lessons, 2)
	assert.Equal(t, "l1", v.Lessons[0].ID)
	assert.Len(t, v.Reviews, 1)
	assert.Nil(t, v.Error)
}

func TestCourseDetailStatusBranches(t *testing.T) {
	cases := []struct {
		status  int
		message string
		action  string
	}{
		{http.StatusNotFound, util.MsgNotFound, util.ActionBrowse},
		{http.StatusUnauthorized, util.MsgAuthRequired, util.ActionLogin},
		{http.StatusTooManyRequests, util.MsgRateLimited, util.ActionRetry},
		{http.StatusInternalServerError, "database exploded", util.ActionRetry},
	}
	for _, tc := range cases {
		b := newBackend(t)
		seedCourse(b)
		b.json(http.MethodGet, "/courses/c1", tc.status, `{"success":false,"message":"database exploded"}`)

		p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, nil)), "c1")
		err := p.Load(context.Background())
		require.Error(t, err)

		v := p.View()
		assert.Equal(t, "failed", v.State)
		require.NotNil(t, v.Error)
		assert.Equal(t, tc.message, v.Error.Message, "status %d", tc.status)
		assert.Contains(t, v.Error.Actions, tc.action)
		assert.Equal(t, tc.status == http.StatusNotFound, v.NotFound())
		// 其他资源照常加载
		assert.Len(t, v.Lessons, 2)
		p.Close()
	}
}

func TestCheckEnrollmentOnce(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	b.json(http.MethodGet, "/enrollments/my-enrollments", 200,
		`{"enrollments":[{"id":"e1","course":{"_id":"c9"}},{"id":"e2","course":"c1","progress":40}]}`)

	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, student)), "c1")
	defer p.Close()

	for i := 0; i < 3; i++ {
		ok, err := p.CheckEnrollment(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, b.count(http.MethodGet, "/enrollments/my-enrollments"))
	assert.Equal(t, "e2", p.View().Enrollment.ID)
}

func TestCheckEnrollmentSignedOutMakesNoCall(t *testing.T) {
	b := newBackend(t)
	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, nil)), "c1")
	defer p.Close()

	ok, err := p.CheckEnrollment(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, b.total())
}

func TestEnrollSplicesState(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	b.json(http.MethodPost, "/enrollments/c1/enroll", 201, `{"enrollment":{"id":"e5","course":"c1"}}`)

	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, student)), "c1")
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	e, err := p.Enroll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "e5", e.ID)

	v := p.View()
	assert.True(t, v.IsEnrolled)
	assert.Equal(t, 1, v.Course.StudentsEnrolled)

	// 已选课时本地拦截
	_, err = p.Enroll(context.Background())
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)
	assert.Equal(t, 1, b.count(http.MethodPost, "/enrollments/c1/enroll"))
	assert.Equal(t, 1, b.count(http.MethodGet, "/courses/c1"))
}

func TestEnrollAfterFailedCheck(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	b.json(http.MethodGet, "/enrollments/my-enrollments", 500, `{"message":"db down"}`)
	b.json(http.MethodPost, "/enrollments/c1/enroll", 201, `{"enrollment":{"id":"e7","course":"c1"}}`)

	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, student)), "c1")
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	_, err := p.CheckEnrollment(context.Background())
	require.Error(t, err)

	_, err = p.Enroll(context.Background())
	require.NoError(t, err)

	v := p.View()
	assert.True(t, v.IsEnrolled)
	require.NotNil(t, v.Enrollment)
	assert.Equal(t, "e7", v.Enrollment.ID)
	assert.Equal(t, 1, v.Course.StudentsEnrolled)

	enrolled, err := p.CheckEnrollment(context.Background())
	require.NoError(t, err)
	assert.True(t, enrolled)

	_, err = p.Enroll(context.Background())
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)
	assert.Equal(t, 1, b.count(http.MethodPost, "/enrollments/c1/enroll"))
	assert.Equal(t, 1, b.count(http.MethodGet, "/enrollments/my-enrollments"))
}

func TestMutationRateLimitedAlert(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	b.json(http.MethodPost, "/enrollments/c1/enroll", 429, `{"message":"slow down"}`)

	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, student)), "c1")
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	_, err := p.Enroll(context.Background())
	require.Error(t, err)
	assert.Equal(t, util.MsgTooMany, AlertMessage(err))
	assert.Equal(t, util.MsgTooMany, p.View().Alert)
	assert.False(t, p.View().IsEnrolled)
}

func TestSubmitReviewValidationSkipsNetwork(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, student)), "c1")
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	_, err := p.SubmitReview(context.Background(), model.ReviewInput{Rating: 5, Comment: "   short    "})
	require.Error(t, err)
	assert.Equal(t, util.ErrCommentTooShort.Error(), AlertMessage(err))
	assert.Equal(t, 0, b.count(http.MethodPost, "/courses/c1/reviews"))
}

func TestSubmitReviewPrepends(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	b.json(http.MethodPost, "/courses/c1/reviews", 201, `{"review":{"id":"r2","rating":2,"comment":"could be better"}}`)

	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, student)), "c1")
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	_, err := p.SubmitReview(context.Background(), model.ReviewInput{Rating: 2, Comment: "could be better"})
	require.NoError(t, err)

	v := p.View()
	require.Len(t, v.Reviews, 2)
	assert.Equal(t, "r2", v.Reviews[0].ID)
	assert.Equal(t, "s1", v.Reviews[0].User.ID)
	assert.Equal(t, 2, v.Course.TotalReviews)
	assert.InDelta(t, 3.0, v.Course.Rating, 0.001)
	assert.Equal(t, 1, b.count(http.MethodGet, "/courses/c1/reviews"))
}

func TestMarkHelpful(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	b.json(http.MethodPost, "/courses/c1/reviews/r1/helpful", 200, `{}`)

	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, student)), "c1")
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	require.NoError(t, p.MarkHelpful(context.Background(), "r1"))
	assert.Equal(t, 1, p.View().Reviews[0].HelpfulCount)
}

func TestLessonMutationsRequireOwner(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, student)), "c1")
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	_, err := p.CreateLesson(context.Background(), model.LessonInput{Title: "Three"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	assert.Equal(t, util.MsgAccessDenied, AlertMessage(err))
	assert.ErrorIs(t, p.Publish(context.Background()), util.ErrPermissionDenied)
	assert.Equal(t, 0, b.count(http.MethodPost, "/courses/c1/lessons"))
}

func TestLessonMutationsSplice(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	b.json(http.MethodPost, "/courses/c1/lessons", 201, `{"lesson":{"id":"l0","title":"Zero","order":0}}`)
	b.json(http.MethodPatch, "/courses/c1/lessons/l1", 200, `{"lesson":{"id":"l1","title":"One","order":9}}`)
	b.json(http.MethodDelete, "/courses/c1/lessons/l2", 204, ``)
	b.json(http.MethodPatch, "/courses/c1/publish", 200, `{"success":true,"data":{}}`)

	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, teacher)), "c1")
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	_, err := p.CreateLesson(context.Background(), model.LessonInput{Title: "Zero"})
	require.NoError(t, err)
	ids := func() []string {
		var out []string
		for _, l := range p.View().Lessons {
			out = append(out, l.ID)
		}
		return out
	}
	assert.Equal(t, []string{"l0", "l1", "l2"}, ids())

	_, err = p.UpdateLesson(context.Background(), "l1", model.LessonInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"l0", "l2", "l1"}, ids())

	require.NoError(t, p.DeleteLesson(context.Background(), "l2"))
	assert.Equal(t, []string{"l0", "l1"}, ids())
	assert.Equal(t, 2, p.View().Course.TotalLessons)

	require.NoError(t, p.Publish(context.Background()))
	assert.True(t, p.View().Course.IsPublished)

	assert.Equal(t, 1, b.count(http.MethodGet, "/courses/c1/lessons"))
}

func TestCloseDiscardsLateCourse(t *testing.T) {
	b := newBackend(t)
	seedCourse(b)
	release := make(chan struct{})
	b.handle(http.MethodGet, "/courses/c1", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.Write([]byte(`{"id":"c1","title":"late"}`))
	})

	p := NewCourseDetailPage(context.Background(), courseServices(b, newSession(t, nil)), "c1")
	done := make(chan error)
	go func() { done <- p.Load(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	p.Close()
	close(release)
	<-done

	v := p.View()
	assert.Nil(t, v.Course)
	assert.Nil(t, v.Error)
	assert.NotEqual(t, loader.Loaded, v.Resources["course"])
}

func TestWishlistEmptyState(t *testing.T) {
	b := newBackend(t)
	b.json(http.MethodGet, "/wishlist", 200, `{"items":[]}`)

	api := apiclient.New(b.srv.URL)
	p := NewWishlistPage(context.Background(), service.NewWishlistService(api))
	defer p.Close()

	require.NoError(t, p.Load(context.Background()))
	require.NoError(t, p.Load(context.Background()))
	v := p.View()

	assert.True(t, v.Empty)
	assert.Equal(t, []string{util.ActionBrowse}, v.Actions)
	assert.Empty(t, v.Items)
	assert.Equal(t, 1, b.total())
}

func TestWishlistRemove(t *testing.T) {
	b := newBackend(t)
	b.json(http.MethodGet, "/wishlist", 200, `{"wishlist":{"items":[{"course":{"id":"c1"}},{"course":{"id":"c2"}}]}}`)
	b.json(http.MethodDelete, "/wishlist/c1", 200, `{}`)

	p := NewWishlistPage(context.Background(), service.NewWishlistService(apiclient.New(b.srv.URL)))
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))
	require.NoError(t, p.Remove(context.Background(), "c1"))

	v := p.View()
	require.Len(t, v.Items, 1)
	assert.Equal(t, "c2", v.Items[0].Course.ID)
	assert.False(t, v.Empty)
}

func TestBatchListFilter(t *testing.T) {
	b := newBackend(t)
	var queries []string
	var mu sync.Mutex
	b.handle(http.MethodGet, "/batches", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("status"))
		mu.Unlock()
		// 后端忽略了过滤条件
		w.Write([]byte(`{"batches":[{"id":"b1","status":"active"},{"id":"b2","status":"upcoming"},{"id":"b3","status":"active"}]}`))
	})

	p := NewBatchListPage(context.Background(), service.NewBatchService(apiclient.New(b.srv.URL)))
	defer p.Close()

	require.NoError(t, p.Load(context.Background(), model.BatchActive))
	v := p.View()
	require.Len(t, v.Batches, 2)
	for _, batch := range v.Batches {
		assert.Equal(t, model.BatchActive, batch.Status)
	}
	assert.Equal(t, 1, b.total())

	require.NoError(t, p.SetFilter(context.Background(), model.BatchActive))
	assert.Equal(t, 1, b.total())

	require.NoError(t, p.SetFilter(context.Background(), model.BatchUpcoming))
	assert.Equal(t, 2, b.total())
	assert.Equal(t, []string{"active", "upcoming"}, queries)
	assert.Len(t, p.View().Batches, 1)

	require.NoError(t, p.SetFilter(context.Background(), ""))
	assert.Equal(t, 3, b.total())
	assert.Len(t, p.View().Batches, 3)
}

func TestBatchListCourseAndStatusInOneCall(t *testing.T) {
	b := newBackend(t)
	var queries []string
	var mu sync.Mutex
	b.handle(http.MethodGet, "/batches", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		w.Write([]byte(`{"batches":[{"id":"b1","status":"active","course":"c1"}]}`))
	})

	p := NewBatchListPage(context.Background(), service.NewBatchService(apiclient.New(b.srv.URL)))
	defer p.Close()

	f := model.BatchFilter{Status: model.BatchActive, Course: "c1"}
	require.NoError(t, p.SetFilters(context.Background(), f))
	require.NoError(t, p.SetFilters(context.Background(), f))
	assert.Equal(t, 1, b.count(http.MethodGet, "/batches"))
	assert.Equal(t, []string{"course=c1&status=active"}, queries)

	v := p.View()
	assert.Equal(t, "c1", v.Course)
	assert.Equal(t, "active", v.Status)

	// 只改课程条件仍是一次请求
	require.NoError(t, p.SetCourse(context.Background(), "c2"))
	assert.Equal(t, 2, b.count(http.MethodGet, "/batches"))
	assert.Equal(t, 2, p.Fetches())
}

func TestBatchListRetryAfterFailure(t *testing.T) {
	b := newBackend(t)
	var fail atomic.Bool
	fail.Store(true)
	b.handle(http.MethodGet, "/batches", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"batches":[{"id":"b1","status":"active"}]}`))
	})

	p := NewBatchListPage(context.Background(), service.NewBatchService(apiclient.New(b.srv.URL)))
	defer p.Close()

	require.Error(t, p.Load(context.Background(), model.BatchActive))
	require.NotNil(t, p.View().Error)
	assert.Contains(t, p.View().Error.Actions, util.ActionRetry)

	fail.Store(false)
	require.NoError(t, p.Load(context.Background(), model.BatchActive))
	v := p.View()
	assert.Nil(t, v.Error)
	assert.Len(t, v.Batches, 1)
	assert.Equal(t, 2, b.count(http.MethodGet, "/batches"))
}

func TestBatchListInvalidStatus(t *testing.T) {
	b := newBackend(t)
	p := NewBatchListPage(context.Background(), service.NewBatchService(apiclient.New(b.srv.URL)))
	defer p.Close()

	err := p.SetFilter(context.Background(), "paused")
	require.Error(t, err)
	assert.Equal(t, 0, b.total())
	assert.Equal(t, "failed", p.View().State)
}

func TestBatchDetailModules(t *testing.T) {
	b := newBackend(t)
	b.json(http.MethodGet, "/batches/b1", 200,
		`{"batch":{"id":"b1","status":"active","capacity":3,"enrolledStudents":2,"modules":[{"id":"m2","order":2},{"id":"m1","order":1}]}}`)
	b.json(http.MethodGet, "/batches/b1/students", 200, `{"students":[{"id":"s1","role":"student"}]}`)
	b.json(http.MethodPost, "/batches/b1/modules", 201, `{"module":{"id":"m0","title":"Intro","order":0}}`)
	b.json(http.MethodDelete, "/batches/b1/modules/m2", 204, ``)

	p := NewBatchDetailPage(context.Background(), service.NewBatchService(apiclient.New(b.srv.URL)), "b1")
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	v := p.View()
	assert.Equal(t, "m1", v.Batch.Modules[0].ID)
	assert.Equal(t, 1, v.SeatsLeft)
	assert.Len(t, v.Students, 1)

	_, err := p.AddModule(context.Background(), model.BatchModuleInput{Title: "Intro"})
	require.NoError(t, err)
	require.NoError(t, p.DeleteModule(context.Background(), "m2"))

	var ids []string
	for _, m := range p.View().Batch.Modules {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m0", "m1"}, ids)

	err = p.EnrollStudents(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, strings.Contains(AlertMessage(err), "seats"))
	assert.Equal(t, 0, b.count(http.MethodPost, "/batches/b1/enroll"))
}

func TestStudentDashboard(t *testing.T) {
	b := newBackend(t)
	b.json(http.MethodGet, "/enrollments/my-enrollments", 200,
		`[{"id":"e1","course":"c1","progress":30},{"id":"e2","course":"c2","status":"completed","progress":100},{"id":"e3","course":"c3","status":"dropped"}]`)
	b.json(http.MethodGet, "/certificates/my-certificates", 200, `{"certificates":[{"id":"x1","certificateNumber":"CERT-1"}]}`)
	b.json(http.MethodGet, "/wishlist", 200, `{"items":[]}`)
	b.json(http.MethodGet, "/analytics/student", 500, `{"message":"boom"}`)

	api := apiclient.New(b.srv.URL)
	p := NewStudentDashboardPage(context.Background(), StudentServices{
		Enrollments:  service.NewEnrollmentService(api),
		Certificates: service.NewCertificateService(api, nil),
		Wishlist:     service.NewWishlistService(api),
		Analytics:    service.NewAnalyticsService(api),
	})
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	v := p.View()
	assert.Equal(t, "loaded", v.State)
	assert.Len(t, v.InProgress, 1)
	assert.Len(t, v.Completed, 1)
	assert.Len(t, v.Certificates, 1)
	assert.Equal(t, 2, v.Stats.EnrolledCourses)
	assert.Equal(t, loader.Failed, v.Resources["stats"])
}

func TestTeacherDashboardTotals(t *testing.T) {
	b := newBackend(t)
	b.json(http.MethodGet, "/courses/my-courses", 200,
		`{"courses":[{"id":"c1","price":10,"studentsEnrolled":3,"rating":4,"totalReviews":2,"isPublished":true},{"id":"c2","price":0,"studentsEnrolled":1}]}`)
	b.json(http.MethodGet, "/analytics/teacher", 404, `{}`)
	b.json(http.MethodPatch, "/courses/c2/publish", 200, `{}`)

	api := apiclient.New(b.srv.URL)
	p := NewTeacherDashboardPage(context.Background(), TeacherServices{
		Courses:   service.NewCourseService(api),
		Analytics: service.NewAnalyticsService(api),
	})
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	v := p.View()
	assert.Equal(t, 4, v.Totals.Students)
	assert.InDelta(t, 30.0, v.Totals.Revenue, 0.001)
	assert.InDelta(t, 4.0, v.Totals.AverageRating, 0.001)
	assert.Equal(t, 1, v.Totals.Published)

	require.NoError(t, p.TogglePublish(context.Background(), "c2"))
	assert.Equal(t, 2, p.View().Totals.Published)
}

func TestAdminDashboard(t *testing.T) {
	b := newBackend(t)
	var deletes int32
	b.json(http.MethodGet, "/admin/stats", 200, `{"stats":{"totalUsers":2}}`)
	b.json(http.MethodGet, "/admin/users", 200, `{"users":[{"id":"a1","role":"admin"},{"id":"u2","role":"student"}]}`)
	b.json(http.MethodGet, "/admin/courses", 200, `{"courses":[]}`)
	b.json(http.MethodPatch, "/admin/users/u2", 200, `{"user":{"id":"u2","role":"teacher"}}`)
	b.handle(http.MethodDelete, "/admin/users/u2", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&deletes, 1)
		w.WriteHeader(http.StatusNoContent)
	})

	p := NewAdminDashboardPage(context.Background(), AdminServices{Admin: service.NewAdminService(apiclient.New(b.srv.URL))})
	defer p.Close()
	require.NoError(t, p.Load(context.Background()))

	self := &model.User{BaseModel: model.BaseModel{ID: "a1"}, Role: model.Admin}
	v := p.View(self)
	require.Len(t, v.Users, 2)
	assert.Empty(t, v.Users[0].Actions)
	assert.Contains(t, v.Users[1].Actions, "delete")

	require.NoError(t, p.ChangeRole(context.Background(), "u2", model.Teacher))
	assert.Equal(t, model.Teacher, p.View(self).Users[1].Role)

	require.NoError(t, p.DeleteUser(context.Background(), "u2"))
	v = p.View(self)
	assert.Len(t, v.Users, 1)
	assert.Equal(t, 1, v.Stats.TotalUsers)
	assert.Equal(t, int32(1), atomic.LoadInt32(&deletes))
}

func TestAdminDashboardForbidden(t *testing.T) {
	b := newBackend(t)
	b.json(http.MethodGet, "/admin/stats", 403, `{}`)
	b.json(http.MethodGet, "/admin/users", 403, `{}`)
	b.json(http.MethodGet, "/admin/courses", 403, `{}`)

	p := NewAdminDashboardPage(context.Background(), AdminServices{Admin: service.NewAdminService(apiclient.New(b.srv.URL))})
	defer p.Close()
	require.Error(t, p.Load(context.Background()))

	v := p.View(nil)
	assert.True(t, v.IsForbidden())
	assert.Equal(t, util.MsgAccessDenied, v.Error.Message)
}
