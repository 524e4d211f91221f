package model

import "sort"

type LessonResource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type,omitempty"`
}

type Lesson struct {
	BaseModel
	Course      Ref              `json:"course"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Content     string           `json:"content,omitempty"`
	Order       int              `json:"order"`
	Duration    int              `json:"duration"`
	VideoURL    string           `json:"videoUrl,omitempty"`
	IsPreview   bool             `json:"isPreview"`
	IsPublished bool             `json:"isPublished"`
	Resources   []LessonResource `json:"resources"`
}

func (l *Lesson) Normalize() {
	if l.Resources == nil {
		l.Resources = []LessonResource{}
	}
}

// SortLessons 按 order 稳定排序
func SortLessons(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].Order < lessons[j].Order
	})
}

type LessonInput struct {
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Content     string           `json:"content,omitempty"`
	Order       *int             `json:"order,omitempty"`
	Duration    *int             `json:"duration,omitempty"`
	VideoURL    string           `json:"videoUrl,omitempty"`
	IsPreview   *bool            `json:"isPreview,omitempty"`
	Resources   []LessonResource `json:"resources,omitempty"`
}
