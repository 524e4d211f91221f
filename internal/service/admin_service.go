package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
	"lms_client/internal/util"

	"github.com/xuri/excelize/v2"
)

type AdminService struct {
	API *apiclient.Client
}

func NewAdminService(api *apiclient.Client) *AdminService {
	return &AdminService{API: api}
}

func (s *AdminService) Users(ctx context.Context, f model.UserFilter) (*model.UserList, error) {
	q := url.Values{}
	if f.Role != "" {
		q.Set("role", string(f.Role))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var list model.UserList
	if err := s.API.Get(ctx, "/admin/users", q, &list); err != nil {
		return nil, err
	}
	list.Normalize()
	return &list, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, id string, in model.UserUpdate) (*model.User, error) {
	if in.Role != "" && !in.Role.Valid() {
		return nil, apiclient.Invalid("unknown role", map[string]string{"role": string(in.Role)})
	}
	var u model.User
	if err := sendKeyed(ctx, s.API, http.MethodPatch, "/admin/users/"+url.PathEscape(id), in, "user", &u); err != nil {
		return nil, err
	}
	u.Normalize()
	return &u, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	return s.API.Delete(ctx, "/admin/users/"+url.PathEscape(id), nil)
}

func (s *AdminService) Courses(ctx context.Context, f model.CourseFilter) (*model.CourseList, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	var list model.CourseList
	if err := s.API.Get(ctx, "/admin/courses", q, &list); err != nil {
		return nil, err
	}
	list.Normalize()
	return &list, nil
}

func (s *AdminService) DeleteCourse(ctx context.Context, id string) error {
	return s.API.Delete(ctx, "/admin/courses/"+url.PathEscape(id), nil)
}

func (s *AdminService) Stats(ctx context.Context) (*model.AdminStats, error) {
	var st model.AdminStats
	if err := getKeyed(ctx, s.API, "/admin/stats", "stats", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

var userSheetHeader = []interface{}{"ID", "Name", "Email", "Role", "Verified", "Created"}

// ExportUsers 把用户列表写成 xlsx
func (s *AdminService) ExportUsers(ctx context.Context, f model.UserFilter, w io.Writer) (int, error) {
	list, err := s.Users(ctx, f)
	if err != nil {
		return 0, err
	}
	if err := WriteUsersSheet(list.Users, w); err != nil {
		return 0, err
	}
	return len(list.Users), nil
}

func WriteUsersSheet(users []model.User, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Users"
	f.SetSheetName("Sheet1", sheet)

	if err := f.SetSheetRow(sheet, "A1", &userSheetHeader); err != nil {
		return err
	}
	for i, u := range users {
		created := ""
		if !u.CreatedAt.IsZero() {
			created = u.CreatedAt.Format(util.DateFormat)
		}
		row := []interface{}{u.ID, u.Name, u.Email, string(u.Role), u.IsVerified, created}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
