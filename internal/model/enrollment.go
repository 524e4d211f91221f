package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

type Enrollment struct {
	BaseModel
	Student          Ref              `json:"student"`
	Course           Ref              `json:"course"`
	Progress         float64          `json:"progress"`
	CompletedLessons []string         `json:"completedLessons"`
	Status           EnrollmentStatus `json:"status"`
	EnrolledAt       time.Time        `json:"enrolledAt,omitempty"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
	LastAccessed     *time.Time       `json:"lastAccessed,omitempty"`
}

func (e *Enrollment) Normalize() {
	if e.CompletedLessons == nil {
		e.CompletedLessons = []string{}
	}
	if e.Status == "" {
		e.Status = EnrollmentActive
	}
	if e.Progress < 0 {
		e.Progress = 0
	}
	if e.Progress > 100 {
		e.Progress = 100
	}
}

// HasCompleted 某课时是否已完成
func (e *Enrollment) HasCompleted(lessonID string) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

type ProgressInput struct {
	LessonID  string `json:"lessonId"`
	Completed bool   `json:"completed"`
}
