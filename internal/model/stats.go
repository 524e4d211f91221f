package model

// AdminStats 管理端统计
type AdminStats struct {
	TotalUsers       int     `json:"totalUsers"`
	TotalStudents    int     `json:"totalStudents"`
	TotalTeachers    int     `json:"totalTeachers"`
	TotalCourses     int     `json:"totalCourses"`
	PublishedCourses int     `json:"publishedCourses"`
	TotalEnrollments int     `json:"totalEnrollments"`
	TotalRevenue     float64 `json:"totalRevenue"`
}

type TeacherStats struct {
	TotalCourses  int     `json:"totalCourses"`
	TotalStudents int     `json:"totalStudents"`
	TotalRevenue  float64 `json:"totalRevenue"`
	AverageRating float64 `json:"averageRating"`
}

type StudentStats struct {
	EnrolledCourses  int     `json:"enrolledCourses"`
	CompletedCourses int     `json:"completedCourses"`
	Certificates     int     `json:"certificates"`
	AverageProgress  float64 `json:"averageProgress"`
	TotalLearnTime   int     `json:"totalLearningTime"`
}

type CourseStats struct {
	CourseID       string  `json:"courseId"`
	Enrollments    int     `json:"enrollments"`
	Completions    int     `json:"completions"`
	AverageRating  float64 `json:"averageRating"`
	CompletionRate float64 `json:"completionRate"`
}

type UserFilter struct {
	Role   UserRole
	Search string
	Page   int
	Limit  int
}

type UserList struct {
	Users      []User `json:"users"`
	Pagination Page   `json:"pagination"`
}

func (l *UserList) Normalize() {
	if l.Users == nil {
		l.Users = []User{}
	}
	for i := range l.Users {
		l.Users[i].Normalize()
	}
}

type UserUpdate struct {
	Role     UserRole `json:"role,omitempty"`
	IsActive *bool    `json:"isActive,omitempty"`
	Name     string   `json:"name,omitempty"`
}
