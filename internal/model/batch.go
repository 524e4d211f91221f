package model

import (
	"sort"
	"time"
)

type BatchStatus string

const (
	BatchUpcoming  BatchStatus = "upcoming"
	BatchActive    BatchStatus = "active"
	BatchCompleted BatchStatus = "completed"
	BatchArchived  BatchStatus = "archived"
)

func (s BatchStatus) Valid() bool {
	switch s {
	case BatchUpcoming, BatchActive, BatchCompleted, BatchArchived:
		return true
	}
	return false
}

type BatchModule struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	Lessons     []Ref  `json:"lessons"`
}

type Batch struct {
	BaseModel
	Name             string        `json:"name"`
	Description      string        `json:"description,omitempty"`
	Course           Ref           `json:"course"`
	Status           BatchStatus   `json:"status"`
	StartDate        *time.Time    `json:"startDate,omitempty"`
	EndDate          *time.Time    `json:"endDate,omitempty"`
	Modules          []BatchModule `json:"modules"`
	Instructors      []Ref         `json:"instructors"`
	Capacity         int           `json:"capacity"`
	EnrolledStudents int           `json:"enrolledStudents"`
}

func (b *Batch) Normalize() {
	if b.Modules == nil {
		b.Modules = []BatchModule{}
	}
	for i := range b.Modules {
		if b.Modules[i].Lessons == nil {
			b.Modules[i].Lessons = []Ref{}
		}
	}
	SortModules(b.Modules)
	if b.Instructors == nil {
		b.Instructors = []Ref{}
	}
	if b.Status == "" {
		b.Status = BatchUpcoming
	}
}

// SeatsLeft 剩余名额，capacity 为 0 视为不限
func (b *Batch) SeatsLeft() int {
	if b.Capacity <= 0 {
		return -1
	}
	left := b.Capacity - b.EnrolledStudents
	if left < 0 {
		return 0
	}
	return left
}

func SortModules(modules []BatchModule) {
	sort.SliceStable(modules, func(i, j int) bool {
		return modules[i].Order < modules[j].Order
	})
}

type BatchFilter struct {
	Status BatchStatus
	Course string
}

type BatchInput struct {
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Course      string      `json:"course,omitempty"`
	Status      BatchStatus `json:"status,omitempty"`
	StartDate   *time.Time  `json:"startDate,omitempty"`
	EndDate     *time.Time  `json:"endDate,omitempty"`
	Capacity    *int        `json:"capacity,omitempty"`
	Instructors []string    `json:"instructors,omitempty"`
}

type BatchModuleInput struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Order       *int     `json:"order,omitempty"`
	Lessons     []string `json:"lessons,omitempty"`
}
