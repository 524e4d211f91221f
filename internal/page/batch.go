package page

import (
	"context"
	"sync"

	"lms_client/internal/loader"
	"lms_client/internal/model"
	"lms_client/internal/service"
	"lms_client/internal/util"
	"lms_client/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchListPage 批次列表。过滤条件变化时重新请求一次，条件不变不请求。
type BatchListPage struct {
	base
	batches *service.BatchService

	listMu  sync.Mutex
	filter  model.BatchFilter
	state   loader.State
	items   []model.Batch
	gen     int
	fetches int
}

func NewBatchListPage(parent context.Context, svc *service.BatchService) *BatchListPage {
	return &BatchListPage{
		base:    newBase(parent, "batch-list"),
		batches: svc,
		items:   []model.Batch{},
	}
}

func (p *BatchListPage) Load(ctx context.Context, status model.BatchStatus) error {
	return p.SetFilter(ctx, status)
}

// SetFilter 只改状态条件，课程条件保持不变
func (p *BatchListPage) SetFilter(ctx context.Context, status model.BatchStatus) error {
	p.listMu.Lock()
	f := p.filter
	p.listMu.Unlock()
	f.Status = status
	return p.SetFilters(ctx, f)
}

// SetCourse 只改课程条件
func (p *BatchListPage) SetCourse(ctx context.Context, courseID string) error {
	p.listMu.Lock()
	f := p.filter
	p.listMu.Unlock()
	f.Course = courseID
	return p.SetFilters(ctx, f)
}

// SetFilters 一次设置全部条件，最多发一次请求。条件不变且已加载(或正在加载)时是空操作，
// 上次失败则重新请求。
func (p *BatchListPage) SetFilters(ctx context.Context, f model.BatchFilter) error {
	p.listMu.Lock()
	if f == p.filter && (p.state == loader.Loaded || p.state == loader.Loading) {
		p.listMu.Unlock()
		return nil
	}
	p.filter = f
	p.state = loader.Loading
	p.gen++
	gen := p.gen
	p.fetches++
	p.listMu.Unlock()

	list, err := p.batches.List(p.scope.Context(ctx), f)

	current := false
	applied := p.scope.Apply(func() {
		p.listMu.Lock()
		defer p.listMu.Unlock()
		if gen != p.gen {
			// 条件已经再次变化，旧结果作废
			return
		}
		current = true
		if err != nil {
			p.state = loader.Failed
			p.items = []model.Batch{}
			return
		}
		p.state = loader.Loaded
		p.items = service.FilterByStatus(list, f.Status)
	})
	if !applied {
		return loader.ErrDiscarded
	}
	if !current {
		return nil
	}

	p.mu.Lock()
	p.err = nil
	p.mu.Unlock()
	if err != nil {
		p.fail(err, util.ContextLoad)
		return err
	}
	return nil
}

// Fetches 实际发出的列表请求数
func (p *BatchListPage) Fetches() int {
	p.listMu.Lock()
	defer p.listMu.Unlock()
	return p.fetches
}

type BatchListView struct {
	State   string        `json:"state"`
	Status  string        `json:"status,omitempty"`
	Course  string        `json:"course,omitempty"`
	Batches []model.Batch `json:"batches"`
	Error   *ViewError    `json:"error,omitempty"`
}

func (p *BatchListPage) View() BatchListView {
	p.listMu.Lock()
	v := BatchListView{
		Status:  string(p.filter.Status),
		Course:  p.filter.Course,
		Batches: append([]model.Batch{}, p.items...),
	}
	state := p.state
	p.listMu.Unlock()

	v.Error = p.viewError()
	v.State = statusLabel(v.Error, state)
	return v
}

type BatchDetailPage struct {
	base
	batches *service.BatchService
	batchID string

	batch    *loader.Resource[*model.Batch]
	students *loader.Resource[[]model.User]
}

func NewBatchDetailPage(parent context.Context, svc *service.BatchService, batchID string) *BatchDetailPage {
	return &BatchDetailPage{
		base:    newBase(parent, "batch-detail"),
		batches: svc,
		batchID: batchID,
		batch:   loader.NewResource[*model.Batch]("batch"),
		students: loader.NewResource("students",
			loader.WithDefault(emptySlice[model.User](), isNilSlice[model.User])),
	}
}

// Load 批次与学员并发加载，学员列表失败不影响批次展示
func (p *BatchDetailPage) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := p.batch.Load(ctx, p.scope, func(ctx context.Context) (*model.Batch, error) {
			return p.batches.Get(ctx, p.batchID)
		})
		return err
	})
	g.Go(func() error {
		_, err := p.students.Load(ctx, p.scope, func(ctx context.Context) ([]model.User, error) {
			return p.batches.Students(ctx, p.batchID)
		})
		return err
	})
	_ = g.Wait()

	if err := p.batch.Err(); err != nil {
		p.fail(err, util.ContextLoad)
		return err
	}
	if err := p.students.Err(); err != nil {
		logger.Log.Warn("batch students unavailable", zap.String("batch", p.batchID), zap.Error(err))
	}
	return nil
}

func (p *BatchDetailPage) AddModule(ctx context.Context, in model.BatchModuleInput) (*model.BatchModule, error) {
	p.clearAlert()
	m, err := p.batches.AddModule(p.scope.Context(ctx), p.batchID, in)
	if err != nil {
		return nil, p.mutationFailed(err)
	}
	err = p.apply(func() {
		p.spliceModules(func(mods []model.BatchModule) []model.BatchModule {
			return append(mods, *m)
		})
	})
	return m, err
}

func (p *BatchDetailPage) UpdateModule(ctx context.Context, moduleID string, in model.BatchModuleInput) (*model.BatchModule, error) {
	p.clearAlert()
	m, err := p.batches.UpdateModule(p.scope.Context(ctx), p.batchID, moduleID, in)
	if err != nil {
		return nil, p.mutationFailed(err)
	}
	if m.ID == "" {
		m.ID = moduleID
	}
	err = p.apply(func() {
		p.spliceModules(func(mods []model.BatchModule) []model.BatchModule {
			for i := range mods {
				if mods[i].ID == moduleID {
					mods[i] = *m
				}
			}
			return mods
		})
	})
	return m, err
}

func (p *BatchDetailPage) DeleteModule(ctx context.Context, moduleID string) error {
	p.clearAlert()
	if err := p.batches.DeleteModule(p.scope.Context(ctx), p.batchID, moduleID); err != nil {
		return p.mutationFailed(err)
	}
	return p.apply(func() {
		p.spliceModules(func(mods []model.BatchModule) []model.BatchModule {
			out := mods[:0]
			for _, m := range mods {
				if m.ID != moduleID {
					out = append(out, m)
				}
			}
			return out
		})
	})
}

// spliceModules fn 拿到的是模块列表的副本，处理后重新排序
func (p *BatchDetailPage) spliceModules(fn func([]model.BatchModule) []model.BatchModule) {
	_ = p.batch.Update(func(b *model.Batch) *model.Batch {
		cp := *b
		cp.Modules = fn(append([]model.BatchModule(nil), b.Modules...))
		if cp.Modules == nil {
			cp.Modules = []model.BatchModule{}
		}
		model.SortModules(cp.Modules)
		return &cp
	})
}

// EnrollStudents 名额不足时本地拦截
func (p *BatchDetailPage) EnrollStudents(ctx context.Context, studentIDs []string) error {
	p.clearAlert()
	if b, _ := p.batch.Result(); b != nil {
		if left := b.SeatsLeft(); left >= 0 && len(studentIDs) > left {
			return p.mutationFailed(localAlert("not enough seats left in this batch", nil))
		}
	}
	if err := p.batches.Enroll(p.scope.Context(ctx), p.batchID, studentIDs); err != nil {
		return p.mutationFailed(err)
	}
	return p.apply(func() {
		_ = p.batch.Update(func(b *model.Batch) *model.Batch {
			cp := *b
			cp.EnrolledStudents += len(studentIDs)
			return &cp
		})
	})
}

type BatchDetailView struct {
	State     string       `json:"state"`
	Batch     *model.Batch `json:"batch,omitempty"`
	SeatsLeft int          `json:"seatsLeft"`
	Students  []model.User `json:"students"`
	Error     *ViewError   `json:"error,omitempty"`
	Alert     string       `json:"alert,omitempty"`
}

func (p *BatchDetailPage) View() BatchDetailView {
	v := BatchDetailView{
		Students:  append([]model.User{}, p.students.Value()...),
		SeatsLeft: -1,
		Error:     p.viewError(),
		Alert:     p.alertMessage(),
	}
	if b, _ := p.batch.Result(); b != nil {
		cp := *b
		cp.Modules = append([]model.BatchModule{}, b.Modules...)
		v.Batch = &cp
		v.SeatsLeft = b.SeatsLeft()
	}
	v.State = statusLabel(v.Error, p.batch.State())
	return v
}
