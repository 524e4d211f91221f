package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
	"lms_client/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*apiclient.Client, *int32) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL), &calls
}

func TestReviewValidationSkipsNetwork(t *testing.T) {
	api, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	svc := NewReviewService(api)

	_, err := svc.Create(context.Background(), "c1", model.ReviewInput{Rating: 5, Comment: "short"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = svc.Create(context.Background(), "c1", model.ReviewInput{Rating: 0, Comment: "long enough comment"})
	require.Error(t, err)
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "rating")

	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestReviewCreateUnwrapsKey(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courses/c1/reviews", r.URL.Path)
		var in model.ReviewInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "a really useful course", in.Comment)
		w.Write([]byte(`{"success":true,"data":{"review":{"id":"r1","rating":4}}}`))
	})

	r, err := NewReviewService(api).Create(context.Background(), "c1", model.ReviewInput{Rating: 4, Comment: "  a really useful course  "})
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, 4, r.Rating)
}

func TestIsEnrolled(t *testing.T) {
	assert.False(t, IsEnrolled(nil, "c1"))
	assert.False(t, IsEnrolled([]model.Enrollment{}, "c1"))

	list := []model.Enrollment{{Course: model.Ref{ID: "c2"}}, {Course: model.Ref{ID: "c1"}}}
	assert.True(t, IsEnrolled(list, "c1"))
	assert.False(t, IsEnrolled(list, ""))
	assert.Equal(t, "c1", FindEnrollment(list, "c1").Course.ID)
}

func TestBatchListSendsFilterOnce(t *testing.T) {
	api, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "active", r.URL.Query().Get("status"))
		assert.Equal(t, "c1", r.URL.Query().Get("course"))
		w.Write([]byte(`{"batches":[{"id":"b1","status":"active","modules":[{"id":"m2","order":2},{"id":"m1","order":1}]}]}`))
	})

	batches, err := NewBatchService(api).List(context.Background(), model.BatchFilter{Status: model.BatchActive, Course: "c1"})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "m1", batches[0].Modules[0].ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestBatchListRejectsUnknownStatus(t *testing.T) {
	api, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := NewBatchService(api).List(context.Background(), model.BatchFilter{Status: "paused"})
	assert.True(t, IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestBatchListEmptyIsNotNil(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"batches":null}`))
	})

	batches, err := NewBatchService(api).List(context.Background(), model.BatchFilter{})
	require.NoError(t, err)
	assert.NotNil(t, batches)
	assert.Empty(t, batches)
}

func TestFilterByStatus(t *testing.T) {
	all := []model.Batch{{Status: model.BatchActive}, {Status: model.BatchCompleted}}
	assert.Len(t, FilterByStatus(all, ""), 2)
	assert.Len(t, FilterByStatus(all, model.BatchCompleted), 1)
}

func TestExportUsersWritesWorkbook(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/users", r.URL.Path)
		assert.Equal(t, "teacher", r.URL.Query().Get("role"))
		w.Write([]byte(`{"users":[
			{"id":"u1","name":"Ann","email":"ann@example.com","role":"teacher","isVerified":true},
			{"id":"u2","name":"Bob","email":"bob@example.com","role":"teacher"}
		]}`))
	})

	var buf bytes.Buffer
	n, err := NewAdminService(api).ExportUsers(context.Background(), model.UserFilter{Role: model.Teacher}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Users")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Name", "Email", "Role", "Verified", "Created"}, rows[0])
	assert.Equal(t, "Ann", rows[1][1])
	assert.Equal(t, "bob@example.com", rows[2][2])
}

func TestCertificateDownloadToLocalDir(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/certificates/download/cert-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="go-101.pdf"`)
		w.Write([]byte("%PDF-1.4"))
	})
	dir := t.TempDir()

	loc, err := NewCertificateService(api, &LocalSaver{Dir: dir}).Download(context.Background(), "cert-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "go-101.pdf"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

type brokenReader struct{ sent bool }

func (r *brokenReader) Read(b []byte) (int, error) {
	if r.sent {
		return 0, errors.New("connection reset")
	}
	r.sent = true
	return copy(b, "%PDF-partial"), nil
}

func TestLocalSaverRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	saver := &LocalSaver{Dir: dir}

	_, err := saver.Save(context.Background(), "cert.pdf", &brokenReader{}, -1, "application/pdf")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "cert.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAttachmentNameFallback(t *testing.T) {
	assert.Equal(t, "certificate-9.pdf", attachmentName("", "9"))
	assert.Equal(t, "certificate-9.pdf", attachmentName("attachment", "9"))
	assert.Equal(t, "x.pdf", attachmentName(`attachment; filename="x.pdf"`, "9"))
}

func TestAuthLoginPersistsSession(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		w.Write([]byte(`{"user":{"id":"u1","name":"Ann","role":"teacher"},"token":"tok"}`))
	})
	store := &session.MemoryStore{}
	sess := session.NewManager(store)

	user, err := NewAuthService(api, sess).Login(context.Background(), LoginRequest{Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, model.Teacher, user.Role)
	assert.Equal(t, "tok", sess.Token())
	assert.Equal(t, "tok", store.State.Token)
}

func TestAuthLoginRejectsBadCredentialsLocally(t *testing.T) {
	api, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	sess := session.NewManager(&session.MemoryStore{})

	_, err := NewAuthService(api, sess).Login(context.Background(), LoginRequest{Email: "not-an-email", Password: "x"})
	assert.True(t, IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestAuthLoginUnauthorizedKeepsSignedOut(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	})
	sess := session.NewManager(&session.MemoryStore{})

	_, err := NewAuthService(api, sess).Login(context.Background(), LoginRequest{Email: "ann@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.False(t, sess.IsAuthenticated())
}

func TestAuthRegisterValidatesAllFields(t *testing.T) {
	api, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	sess := session.NewManager(&session.MemoryStore{})

	_, err := NewAuthService(api, sess).Register(context.Background(), RegisterRequest{
		Name: "", Email: "bad", Password: "123", ConfirmPassword: "456",
	})
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "name")
	assert.Contains(t, apiErr.Fields, "email")
	assert.Contains(t, apiErr.Fields, "password")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestAuthRegisterRefusesAdmin(t *testing.T) {
	api, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	sess := session.NewManager(&session.MemoryStore{})

	_, err := NewAuthService(api, sess).Register(context.Background(), RegisterRequest{
		Name: "Eve", Email: "eve@example.com", Password: "secret123", ConfirmPassword: "secret123", Role: model.Admin,
	})
	assert.True(t, IsValidation(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestAuthLogoutClearsEvenWhenBackendFails(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	store := &session.MemoryStore{}
	sess := session.NewManager(store)
	require.NoError(t, sess.SetSession(context.Background(), &model.User{BaseModel: model.BaseModel{ID: "u1"}}, "tok"))

	require.NoError(t, NewAuthService(api, sess).Logout(context.Background()))
	assert.False(t, sess.IsAuthenticated())
	assert.True(t, store.State.Empty())
}

func TestMeRequiresSession(t *testing.T) {
	api, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := NewAuthService(api, session.NewManager(&session.MemoryStore{})).Me(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestMeAcceptsKeyedUser(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/me", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"user":{"id":"u1","name":"Ada","role":"admin"}}}`))
	})
	store := &session.MemoryStore{}
	sess := session.NewManager(store)
	require.NoError(t, sess.SetSession(context.Background(), &model.User{BaseModel: model.BaseModel{ID: "u1"}, Role: model.Admin}, "tok"))

	user, err := NewAuthService(api, sess).Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, model.Admin, user.Role)
	assert.Equal(t, "Ada", sess.User().Name)
	assert.Equal(t, model.Admin, store.State.User.Role)
}

func TestMeKeepsSessionOnEmptyUser(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"profile":{"id":"u1"}}`))
	})
	sess := session.NewManager(&session.MemoryStore{})
	admin := &model.User{BaseModel: model.BaseModel{ID: "u1"}, Name: "Ada", Role: model.Admin}
	require.NoError(t, sess.SetSession(context.Background(), admin, "tok"))

	_, err := NewAuthService(api, sess).Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, apiclient.KindDecode, apiclient.KindOf(err))
	assert.Equal(t, "u1", sess.User().ID)
	assert.Equal(t, model.Admin, sess.Role())
}

func TestMarkCompletePatchesProgress(t *testing.T) {
	api, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/enrollments/e1/progress", r.URL.Path)
		var in model.ProgressInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "l1", in.LessonID)
		assert.True(t, in.Completed)
		w.Write([]byte(`{"enrollment":{"id":"e1","progress":50,"completedLessons":["l1"]}}`))
	})

	e, err := NewLessonService(api).MarkComplete(context.Background(), "e1", "l1")
	require.NoError(t, err)
	assert.True(t, e.HasCompleted("l1"))
}
