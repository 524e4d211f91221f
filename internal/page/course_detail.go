package page

import (
	"context"
	"strings"

	"lms_client/internal/loader"
	"lms_client/internal/model"
	"lms_client/internal/service"
	"lms_client/internal/session"
	"lms_client/internal/util"

	"golang.org/x/sync/errgroup"
)

type CourseServices struct {
	Courses     *service.CourseService
	Lessons     *service.LessonService
	Reviews     *service.ReviewService
	Enrollments *service.EnrollmentService
	Session     *session.Manager
}

// CourseDetailPage 课程详情：课程、课时、评价并发加载，选课状态在身份确定后单独检查
type CourseDetailPage struct {
	base
	svc      CourseServices
	courseID string

	course     *loader.Resource[*model.Course]
	lessons    *loader.Resource[[]model.Lesson]
	reviews    *loader.Resource[*model.ReviewList]
	enrollment *loader.Resource[*model.Enrollment]

	isOwner bool
	// enrolled 本页选课成功的记录，检查失败时同样有效
	enrolled *model.Enrollment
}

func NewCourseDetailPage(parent context.Context, svc CourseServices, courseID string) *CourseDetailPage {
	return &CourseDetailPage{
		base:     newBase(parent, "course-detail"),
		svc:      svc,
		courseID: courseID,
		course:   loader.NewResource[*model.Course]("course"),
		lessons: loader.NewResource("lessons",
			loader.WithDefault(emptySlice[model.Lesson](), isNilSlice[model.Lesson])),
		reviews: loader.NewResource("reviews",
			loader.WithDefault(func() *model.ReviewList { return &model.ReviewList{Reviews: []model.Review{}} },
				func(v *model.ReviewList) bool { return v == nil })),
		enrollment: loader.NewResource[*model.Enrollment]("enrollment"),
	}
}

// Load 三个资源互不阻塞；任一失败页面进入错误态，已成功的部分照常保留
func (p *CourseDetailPage) Load(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		c, err := p.course.Load(ctx, p.scope, func(ctx context.Context) (*model.Course, error) {
			return p.svc.Courses.Get(ctx, p.courseID)
		})
		if err != nil {
			return err
		}
		owner := canManage(p.svc.Session.User(), c)
		return p.apply(func() {
			p.mu.Lock()
			p.isOwner = owner
			p.mu.Unlock()
		})
	})
	g.Go(func() error {
		_, err := p.lessons.Load(ctx, p.scope, func(ctx context.Context) ([]model.Lesson, error) {
			return p.svc.Lessons.List(ctx, p.courseID)
		})
		return err
	})
	g.Go(func() error {
		_, err := p.reviews.Load(ctx, p.scope, func(ctx context.Context) (*model.ReviewList, error) {
			return p.svc.Reviews.List(ctx, p.courseID, 0)
		})
		return err
	})
	_ = g.Wait()

	// 课程本身的错误优先决定页面文案
	for _, err := range []error{p.course.Err(), p.lessons.Err(), p.reviews.Err()} {
		if err != nil {
			p.fail(err, util.ContextLoad)
			return err
		}
	}
	return nil
}

// CheckEnrollment 第二轮检查，未登录时不发请求，登录后整个页面生命周期只查一次
func (p *CourseDetailPage) CheckEnrollment(ctx context.Context) (bool, error) {
	if !p.svc.Session.IsAuthenticated() {
		return false, nil
	}
	if p.currentEnrollment() != nil {
		return true, nil
	}
	e, err := p.enrollment.Load(ctx, p.scope, func(ctx context.Context) (*model.Enrollment, error) {
		list, err := p.svc.Enrollments.MyEnrollments(ctx)
		if err != nil {
			return nil, err
		}
		return service.FindEnrollment(list, p.courseID), nil
	})
	if err != nil {
		return false, err
	}
	return e != nil, nil
}

func canManage(u *model.User, c *model.Course) bool {
	if u == nil || c == nil {
		return false
	}
	return u.Role == model.Admin || (u.ID != "" && u.ID == c.Teacher.ID)
}

func (p *CourseDetailPage) IsOwner() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isOwner
}

func (p *CourseDetailPage) requireOwner() error {
	if !p.svc.Session.IsAuthenticated() {
		return localAlert(util.MsgAuthRequired, util.ErrNotLoggedIn)
	}
	if !p.IsOwner() {
		return localAlert(util.MsgAccessDenied, util.ErrPermissionDenied)
	}
	return nil
}

// Enroll 选课成功后直接写入本地状态
func (p *CourseDetailPage) Enroll(ctx context.Context) (*model.Enrollment, error) {
	p.clearAlert()
	if !p.svc.Session.IsAuthenticated() {
		return nil, p.mutationFailed(localAlert(util.MsgAuthRequired, util.ErrNotLoggedIn))
	}
	if p.currentEnrollment() != nil {
		return nil, p.mutationFailed(localAlert(util.ErrAlreadyEnrolled.Error(), util.ErrAlreadyEnrolled))
	}

	e, err := p.svc.Enrollments.Enroll(p.scope.Context(ctx), p.courseID)
	if err != nil {
		return nil, p.mutationFailed(err)
	}
	err = p.apply(func() {
		p.setEnrollment(e)
		_ = p.course.Update(func(c *model.Course) *model.Course {
			cp := *c
			cp.StudentsEnrolled++
			return &cp
		})
	})
	return e, err
}

func (p *CourseDetailPage) setEnrollment(e *model.Enrollment) {
	p.mu.Lock()
	p.enrolled = e
	p.mu.Unlock()
	// 检查已完成时同步资源里的值；检查失败或未发起时以 enrolled 为准
	if p.enrollment.State() == loader.Loaded {
		_ = p.enrollment.Update(func(*model.Enrollment) *model.Enrollment { return e })
	}
}

// currentEnrollment 本页选课记录优先，其次是检查结果
func (p *CourseDetailPage) currentEnrollment() *model.Enrollment {
	p.mu.Lock()
	e := p.enrolled
	p.mu.Unlock()
	if e != nil {
		return e
	}
	if p.enrollment.State() != loader.Loaded {
		return nil
	}
	e, _ = p.enrollment.Result()
	return e
}

// SubmitReview 本地校验失败时不发请求
func (p *CourseDetailPage) SubmitReview(ctx context.Context, in model.ReviewInput) (*model.Review, error) {
	p.clearAlert()
	if !p.svc.Session.IsAuthenticated() {
		return nil, p.mutationFailed(localAlert(util.MsgAuthRequired, util.ErrNotLoggedIn))
	}

	r, err := p.svc.Reviews.Create(p.scope.Context(ctx), p.courseID, in)
	if err != nil {
		return nil, p.mutationFailed(err)
	}
	if r.User.ID == "" {
		if u := p.svc.Session.User(); u != nil {
			r.User = model.Ref{ID: u.ID, Name: u.Name}
		}
	}
	if r.Rating == 0 {
		r.Rating = in.Rating
	}

	err = p.apply(func() {
		_ = p.reviews.Update(func(l *model.ReviewList) *model.ReviewList {
			cp := *l
			cp.Reviews = append([]model.Review{*r}, l.Reviews...)
			cp.Pagination.Total++
			return &cp
		})
		_ = p.course.Update(func(c *model.Course) *model.Course {
			cp := *c
			total := float64(cp.Rating) * float64(cp.TotalReviews)
			cp.TotalReviews++
			cp.Rating = (total + float64(r.Rating)) / float64(cp.TotalReviews)
			return &cp
		})
	})
	return r, err
}

func (p *CourseDetailPage) MarkHelpful(ctx context.Context, reviewID string) error {
	p.clearAlert()
	if !p.svc.Session.IsAuthenticated() {
		return p.mutationFailed(localAlert(util.MsgAuthRequired, util.ErrNotLoggedIn))
	}
	updated, err := p.svc.Reviews.MarkHelpful(p.scope.Context(ctx), p.courseID, reviewID)
	if err != nil {
		return p.mutationFailed(err)
	}
	return p.apply(func() {
		_ = p.reviews.Update(func(l *model.ReviewList) *model.ReviewList {
			cp := *l
			cp.Reviews = make([]model.Review, len(l.Reviews))
			copy(cp.Reviews, l.Reviews)
			for i := range cp.Reviews {
				if cp.Reviews[i].ID != reviewID {
					continue
				}
				if updated != nil && updated.ID == reviewID {
					cp.Reviews[i] = *updated
				} else {
					cp.Reviews[i].HelpfulCount++
				}
			}
			return &cp
		})
	})
}

func (p *CourseDetailPage) CreateLesson(ctx context.Context, in model.LessonInput) (*model.Lesson, error) {
	p.clearAlert()
	if err := p.requireOwner(); err != nil {
		return nil, p.mutationFailed(err)
	}
	l, err := p.svc.Lessons.Create(p.scope.Context(ctx), p.courseID, in)
	if err != nil {
		return nil, p.mutationFailed(err)
	}
	err = p.apply(func() {
		_ = p.lessons.Update(func(ls []model.Lesson) []model.Lesson {
			out := append(append([]model.Lesson(nil), ls...), *l)
			model.SortLessons(out)
			return out
		})
		_ = p.course.Update(func(c *model.Course) *model.Course {
			cp := *c
			cp.TotalLessons++
			return &cp
		})
	})
	return l, err
}

func (p *CourseDetailPage) UpdateLesson(ctx context.Context, lessonID string, in model.LessonInput) (*model.Lesson, error) {
	p.clearAlert()
	if err := p.requireOwner(); err != nil {
		return nil, p.mutationFailed(err)
	}
	l, err := p.svc.Lessons.Update(p.scope.Context(ctx), p.courseID, lessonID, in)
	if err != nil {
		return nil, p.mutationFailed(err)
	}
	if l.ID == "" {
		l.ID = lessonID
	}
	err = p.apply(func() {
		_ = p.lessons.Update(func(ls []model.Lesson) []model.Lesson {
			out := append([]model.Lesson(nil), ls...)
			for i := range out {
				if out[i].ID == lessonID {
					out[i] = *l
				}
			}
			model.SortLessons(out)
			return out
		})
	})
	return l, err
}

func (p *CourseDetailPage) DeleteLesson(ctx context.Context, lessonID string) error {
	p.clearAlert()
	if err := p.requireOwner(); err != nil {
		return p.mutationFailed(err)
	}
	if err := p.svc.Lessons.Delete(p.scope.Context(ctx), p.courseID, lessonID); err != nil {
		return p.mutationFailed(err)
	}
	return p.apply(func() {
		removed := false
		_ = p.lessons.Update(func(ls []model.Lesson) []model.Lesson {
			out := make([]model.Lesson, 0, len(ls))
			for _, l := range ls {
				if l.ID == lessonID {
					removed = true
					continue
				}
				out = append(out, l)
			}
			return out
		})
		if removed {
			_ = p.course.Update(func(c *model.Course) *model.Course {
				cp := *c
				if cp.TotalLessons > 0 {
					cp.TotalLessons--
				}
				return &cp
			})
		}
	})
}

func (p *CourseDetailPage) Publish(ctx context.Context) error {
	return p.setPublished(ctx, true)
}

func (p *CourseDetailPage) Unpublish(ctx context.Context) error {
	return p.setPublished(ctx, false)
}

func (p *CourseDetailPage) setPublished(ctx context.Context, published bool) error {
	p.clearAlert()
	if err := p.requireOwner(); err != nil {
		return p.mutationFailed(err)
	}
	var (
		updated *model.Course
		err     error
	)
	if published {
		updated, err = p.svc.Courses.Publish(p.scope.Context(ctx), p.courseID)
	} else {
		updated, err = p.svc.Courses.Unpublish(p.scope.Context(ctx), p.courseID)
	}
	if err != nil {
		return p.mutationFailed(err)
	}
	return p.apply(func() {
		_ = p.course.Update(func(c *model.Course) *model.Course {
			if updated != nil && updated.ID == c.ID {
				return updated
			}
			cp := *c
			cp.IsPublished = published
			return &cp
		})
	})
}

type CourseDetailView struct {
	State      string                  `json:"state"`
	Course     *model.Course           `json:"course,omitempty"`
	Lessons    []model.Lesson          `json:"lessons"`
	Reviews    []model.Review          `json:"reviews"`
	ReviewPage model.Page              `json:"reviewPagination"`
	IsOwner    bool                    `json:"isOwner"`
	IsEnrolled bool                    `json:"isEnrolled"`
	Enrollment *model.Enrollment       `json:"enrollment,omitempty"`
	Resources  map[string]loader.State `json:"resources"`
	Error      *ViewError              `json:"error,omitempty"`
	Alert      string                  `json:"alert,omitempty"`
}

// View 当前页面状态的快照
func (p *CourseDetailPage) View() CourseDetailView {
	v := CourseDetailView{
		Lessons:   append([]model.Lesson{}, p.lessons.Value()...),
		IsOwner:   p.IsOwner(),
		Error:     p.viewError(),
		Alert:     p.alertMessage(),
		Resources: map[string]loader.State{},
	}
	if c, _ := p.course.Result(); c != nil {
		cp := *c
		v.Course = &cp
	}
	if rl := p.reviews.Value(); rl != nil {
		v.Reviews = append([]model.Review{}, rl.Reviews...)
		v.ReviewPage = rl.Pagination
	}
	if e := p.currentEnrollment(); e != nil {
		cp := *e
		v.Enrollment = &cp
		v.IsEnrolled = true
	}
	for _, r := range []interface {
		Name() string
		State() loader.State
	}{p.course, p.lessons, p.reviews, p.enrollment} {
		v.Resources[r.Name()] = r.State()
	}
	v.State = statusLabel(v.Error, p.course.State(), p.lessons.State(), p.reviews.State())
	return v
}

// NotFound 课程不存在的分支
func (v CourseDetailView) NotFound() bool {
	return v.Error != nil && strings.EqualFold(v.Error.Message, util.MsgNotFound)
}
