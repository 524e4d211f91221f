package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case Student, Teacher, Admin:
		return true
	}
	return false
}

type User struct {
	BaseModel
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	IsVerified bool     `json:"isVerified"`
	Avatar     string   `json:"avatar,omitempty"`
	IsActive   *bool    `json:"isActive,omitempty"`
}

func (u *User) Normalize() {
	if u == nil {
		return
	}
	if !u.Role.Valid() {
		u.Role = Student
	}
}

// AuthResult 登录/注册接口返回
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
