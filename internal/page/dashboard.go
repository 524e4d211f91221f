package page

import (
	"context"
	"net/http"

	"lms_client/internal/loader"
	"lms_client/internal/model"
	"lms_client/internal/service"
	"lms_client/internal/util"

	"golang.org/x/sync/errgroup"
)

type StudentServices struct {
	Enrollments  *service.EnrollmentService
	Certificates *service.CertificateService
	Wishlist     *service.WishlistService
	Analytics    *service.AnalyticsService
}

type StudentDashboardPage struct {
	base
	svc StudentServices

	enrollments  *loader.Resource[[]model.Enrollment]
	certificates *loader.Resource[[]model.Certificate]
	wishlist     *loader.Resource[*model.Wishlist]
	stats        *loader.Resource[*model.StudentStats]
}

func NewStudentDashboardPage(parent context.Context, svc StudentServices) *StudentDashboardPage {
	return &StudentDashboardPage{
		base: newBase(parent, "student-dashboard"),
		svc:  svc,
		enrollments: loader.NewResource("enrollments",
			loader.WithDefault(emptySlice[model.Enrollment](), isNilSlice[model.Enrollment])),
		certificates: loader.NewResource("certificates",
			loader.WithDefault(emptySlice[model.Certificate](), isNilSlice[model.Certificate])),
		wishlist: loader.NewResource("wishlist",
			loader.WithDefault(func() *model.Wishlist { return &model.Wishlist{Items: []model.WishlistItem{}} },
				func(v *model.Wishlist) bool { return v == nil })),
		stats: loader.NewResource("stats",
			loader.WithDefault(func() *model.StudentStats { return &model.StudentStats{} },
				func(v *model.StudentStats) bool { return v == nil })),
	}
}

// Load 选课记录失败时整页报错，其余板块失败只影响自己
func (p *StudentDashboardPage) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := p.enrollments.Load(ctx, p.scope, p.svc.Enrollments.MyEnrollments)
		return err
	})
	g.Go(func() error {
		_, err := p.certificates.Load(ctx, p.scope, p.svc.Certificates.Mine)
		return err
	})
	g.Go(func() error {
		_, err := p.wishlist.Load(ctx, p.scope, p.svc.Wishlist.Get)
		return err
	})
	g.Go(func() error {
		_, err := p.stats.Load(ctx, p.scope, p.svc.Analytics.StudentStats)
		return err
	})
	_ = g.Wait()

	if err := p.enrollments.Err(); err != nil {
		p.fail(err, util.ContextLoad)
		return err
	}
	return nil
}

type StudentDashboardView struct {
	State        string                  `json:"state"`
	InProgress   []model.Enrollment      `json:"inProgress"`
	Completed    []model.Enrollment      `json:"completed"`
	Certificates []model.Certificate     `json:"certificates"`
	Wishlist     []model.WishlistItem    `json:"wishlist"`
	Stats        model.StudentStats      `json:"stats"`
	Resources    map[string]loader.State `json:"resources"`
	Error        *ViewError              `json:"error,omitempty"`
}

func (p *StudentDashboardPage) View() StudentDashboardView {
	v := StudentDashboardView{
		InProgress:   []model.Enrollment{},
		Completed:    []model.Enrollment{},
		Certificates: append([]model.Certificate{}, p.certificates.Value()...),
		Wishlist:     append([]model.WishlistItem{}, p.wishlist.Value().Items...),
		Stats:        *p.stats.Value(),
		Error:        p.viewError(),
		Resources: map[string]loader.State{
			"enrollments":  p.enrollments.State(),
			"certificates": p.certificates.State(),
			"wishlist":     p.wishlist.State(),
			"stats":        p.stats.State(),
		},
	}
	v.InProgress, v.Completed = SplitEnrollments(p.enrollments.Value())

	// 后端统计缺失时用本地数据补齐
	if p.stats.State() != loader.Loaded {
		v.Stats.EnrolledCourses = len(v.InProgress) + len(v.Completed)
		v.Stats.CompletedCourses = len(v.Completed)
		v.Stats.Certificates = len(v.Certificates)
	}
	v.State = statusLabel(v.Error, p.enrollments.State())
	return v
}

// SplitEnrollments 按完成情况拆分
func SplitEnrollments(list []model.Enrollment) (inProgress, completed []model.Enrollment) {
	inProgress = []model.Enrollment{}
	completed = []model.Enrollment{}
	for _, e := range list {
		switch {
		case e.Status == model.EnrollmentDropped:
		case e.Status == model.EnrollmentCompleted || e.Progress >= 100:
			completed = append(completed, e)
		default:
			inProgress = append(inProgress, e)
		}
	}
	return inProgress, completed
}

type TeacherServices struct {
	Courses   *service.CourseService
	Analytics *service.AnalyticsService
}

type TeacherDashboardPage struct {
	base
	svc TeacherServices

	courses *loader.Resource[[]model.Course]
	stats   *loader.Resource[*model.TeacherStats]
}

func NewTeacherDashboardPage(parent context.Context, svc TeacherServices) *TeacherDashboardPage {
	return &TeacherDashboardPage{
		base: newBase(parent, "teacher-dashboard"),
		svc:  svc,
		courses: loader.NewResource("courses",
			loader.WithDefault(emptySlice[model.Course](), isNilSlice[model.Course])),
		stats: loader.NewResource[*model.TeacherStats]("stats"),
	}
}

func (p *TeacherDashboardPage) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := p.courses.Load(ctx, p.scope, p.svc.Courses.MyCourses)
		return err
	})
	g.Go(func() error {
		_, err := p.stats.Load(ctx, p.scope, p.svc.Analytics.TeacherStats)
		return err
	})
	_ = g.Wait()

	if err := p.courses.Err(); err != nil {
		p.fail(err, util.ContextLoad)
		return err
	}
	return nil
}

// TogglePublish 在列表里直接切换课程的发布状态
func (p *TeacherDashboardPage) TogglePublish(ctx context.Context, courseID string) error {
	p.clearAlert()
	var current *model.Course
	for _, c := range p.courses.Value() {
		if c.ID == courseID {
			c := c
			current = &c
		}
	}
	if current == nil {
		return p.mutationFailed(localAlert(util.MsgNotFound, nil))
	}

	var (
		updated *model.Course
		err     error
	)
	if current.IsPublished {
		updated, err = p.svc.Courses.Unpublish(p.scope.Context(ctx), courseID)
	} else {
		updated, err = p.svc.Courses.Publish(p.scope.Context(ctx), courseID)
	}
	if err != nil {
		return p.mutationFailed(err)
	}
	return p.apply(func() {
		_ = p.courses.Update(func(list []model.Course) []model.Course {
			out := append([]model.Course(nil), list...)
			for i := range out {
				if out[i].ID != courseID {
					continue
				}
				if updated != nil && updated.ID == courseID {
					out[i] = *updated
				} else {
					out[i].IsPublished = !current.IsPublished
				}
			}
			return out
		})
	})
}

type TeacherTotals struct {
	Courses       int     `json:"courses"`
	Published     int     `json:"published"`
	Students      int     `json:"students"`
	Revenue       float64 `json:"revenue"`
	AverageRating float64 `json:"averageRating"`
}

type TeacherDashboardView struct {
	State     string                  `json:"state"`
	Courses   []model.Course          `json:"courses"`
	Totals    TeacherTotals           `json:"totals"`
	Resources map[string]loader.State `json:"resources"`
	Error     *ViewError              `json:"error,omitempty"`
	Alert     string                  `json:"alert,omitempty"`
}

func (p *TeacherDashboardPage) View() TeacherDashboardView {
	courses := append([]model.Course{}, p.courses.Value()...)
	v := TeacherDashboardView{
		Courses: courses,
		Totals:  CourseTotals(courses),
		Error:   p.viewError(),
		Alert:   p.alertMessage(),
		Resources: map[string]loader.State{
			"courses": p.courses.State(),
			"stats":   p.stats.State(),
		},
	}
	if st, _ := p.stats.Result(); st != nil {
		v.Totals.Students = st.TotalStudents
		v.Totals.Revenue = st.TotalRevenue
		v.Totals.AverageRating = st.AverageRating
	}
	v.State = statusLabel(v.Error, p.courses.State())
	return v
}

// CourseTotals 只统计有评分的课程的平均分
func CourseTotals(courses []model.Course) TeacherTotals {
	t := TeacherTotals{Courses: len(courses)}
	var ratingSum float64
	rated := 0
	for _, c := range courses {
		if c.IsPublished {
			t.Published++
		}
		t.Students += c.StudentsEnrolled
		t.Revenue += c.Price * float64(c.StudentsEnrolled)
		if c.TotalReviews > 0 {
			ratingSum += c.Rating
			rated++
		}
	}
	if rated > 0 {
		t.AverageRating = ratingSum / float64(rated)
	}
	return t
}

type AdminServices struct {
	Admin *service.AdminService
}

type AdminDashboardPage struct {
	base
	svc AdminServices

	stats   *loader.Resource[*model.AdminStats]
	users   *loader.Resource[*model.UserList]
	courses *loader.Resource[*model.CourseList]
}

func NewAdminDashboardPage(parent context.Context, svc AdminServices) *AdminDashboardPage {
	return &AdminDashboardPage{
		base: newBase(parent, "admin-dashboard"),
		svc:  svc,
		stats: loader.NewResource("stats",
			loader.WithDefault(func() *model.AdminStats { return &model.AdminStats{} },
				func(v *model.AdminStats) bool { return v == nil })),
		users: loader.NewResource("users",
			loader.WithDefault(func() *model.UserList { return &model.UserList{Users: []model.User{}} },
				func(v *model.UserList) bool { return v == nil })),
		courses: loader.NewResource("courses",
			loader.WithDefault(func() *model.CourseList { return &model.CourseList{Courses: []model.Course{}} },
				func(v *model.CourseList) bool { return v == nil })),
	}
}

func (p *AdminDashboardPage) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := p.stats.Load(ctx, p.scope, p.svc.Admin.Stats)
		return err
	})
	g.Go(func() error {
		_, err := p.users.Load(ctx, p.scope, func(ctx context.Context) (*model.UserList, error) {
			return p.svc.Admin.Users(ctx, model.UserFilter{})
		})
		return err
	})
	g.Go(func() error {
		_, err := p.courses.Load(ctx, p.scope, func(ctx context.Context) (*model.CourseList, error) {
			return p.svc.Admin.Courses(ctx, model.CourseFilter{})
		})
		return err
	})
	_ = g.Wait()

	for _, err := range []error{p.stats.Err(), p.users.Err(), p.courses.Err()} {
		if err != nil {
			p.fail(err, util.ContextLoad)
			return err
		}
	}
	return nil
}

// ChangeRole 修改用户角色
func (p *AdminDashboardPage) ChangeRole(ctx context.Context, userID string, role model.UserRole) error {
	return p.updateUser(ctx, userID, model.UserUpdate{Role: role})
}

func (p *AdminDashboardPage) SetActive(ctx context.Context, userID string, active bool) error {
	return p.updateUser(ctx, userID, model.UserUpdate{IsActive: &active})
}

func (p *AdminDashboardPage) updateUser(ctx context.Context, userID string, in model.UserUpdate) error {
	p.clearAlert()
	u, err := p.svc.Admin.UpdateUser(p.scope.Context(ctx), userID, in)
	if err != nil {
		return p.mutationFailed(err)
	}
	return p.apply(func() {
		_ = p.users.Update(func(l *model.UserList) *model.UserList {
			cp := *l
			cp.Users = append([]model.User(nil), l.Users...)
			for i := range cp.Users {
				if cp.Users[i].ID != userID {
					continue
				}
				if u.ID == userID {
					cp.Users[i] = *u
					continue
				}
				if in.Role != "" {
					cp.Users[i].Role = in.Role
				}
				if in.IsActive != nil {
					active := *in.IsActive
					cp.Users[i].IsActive = &active
				}
			}
			return &cp
		})
	})
}

func (p *AdminDashboardPage) DeleteUser(ctx context.Context, userID string) error {
	p.clearAlert()
	if err := p.svc.Admin.DeleteUser(p.scope.Context(ctx), userID); err != nil {
		return p.mutationFailed(err)
	}
	return p.apply(func() {
		_ = p.users.Update(func(l *model.UserList) *model.UserList {
			cp := *l
			cp.Users = make([]model.User, 0, len(l.Users))
			for _, u := range l.Users {
				if u.ID != userID {
					cp.Users = append(cp.Users, u)
				}
			}
			if len(cp.Users) < len(l.Users) && cp.Pagination.Total > 0 {
				cp.Pagination.Total--
			}
			return &cp
		})
		_ = p.stats.Update(func(s *model.AdminStats) *model.AdminStats {
			cp := *s
			if cp.TotalUsers > 0 {
				cp.TotalUsers--
			}
			return &cp
		})
	})
}

func (p *AdminDashboardPage) DeleteCourse(ctx context.Context, courseID string) error {
	p.clearAlert()
	if err := p.svc.Admin.DeleteCourse(p.scope.Context(ctx), courseID); err != nil {
		return p.mutationFailed(err)
	}
	return p.apply(func() {
		_ = p.courses.Update(func(l *model.CourseList) *model.CourseList {
			cp := *l
			cp.Courses = make([]model.Course, 0, len(l.Courses))
			for _, c := range l.Courses {
				if c.ID != courseID {
					cp.Courses = append(cp.Courses, c)
				}
			}
			return &cp
		})
	})
}

// UserActions 每个用户行上可执行的操作，不能对自己降权或删除
func UserActions(self *model.User, u model.User) []string {
	if self != nil && self.ID == u.ID {
		return []string{}
	}
	actions := []string{"change-role", "delete"}
	if u.IsActive != nil && !*u.IsActive {
		return append(actions, "activate")
	}
	return append(actions, "deactivate")
}

type AdminUserRow struct {
	model.User
	Actions []string `json:"actions"`
}

type AdminDashboardView struct {
	State     string                  `json:"state"`
	Stats     model.AdminStats        `json:"stats"`
	Users     []AdminUserRow          `json:"users"`
	Courses   []model.Course          `json:"courses"`
	Resources map[string]loader.State `json:"resources"`
	Error     *ViewError              `json:"error,omitempty"`
	Alert     string                  `json:"alert,omitempty"`
}

func (p *AdminDashboardPage) View(self *model.User) AdminDashboardView {
	v := AdminDashboardView{
		Stats:   *p.stats.Value(),
		Users:   []AdminUserRow{},
		Courses: append([]model.Course{}, p.courses.Value().Courses...),
		Error:   p.viewError(),
		Alert:   p.alertMessage(),
		Resources: map[string]loader.State{
			"stats":   p.stats.State(),
			"users":   p.users.State(),
			"courses": p.courses.State(),
		},
	}
	for _, u := range p.users.Value().Users {
		v.Users = append(v.Users, AdminUserRow{User: u, Actions: UserActions(self, u)})
	}
	v.State = statusLabel(v.Error, p.stats.State(), p.users.State(), p.courses.State())
	return v
}

// IsForbidden 非管理员访问管理端
func (v AdminDashboardView) IsForbidden() bool {
	return v.Error != nil && v.Error.Status == http.StatusForbidden
}
