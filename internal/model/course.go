package model

type CourseLevel string

const (
	Beginner     CourseLevel = "beginner"
	Intermediate CourseLevel = "intermediate"
	Advanced     CourseLevel = "advanced"
)

type Course struct {
	BaseModel
	Title            string      `json:"title"`
	ShortDescription string      `json:"shortDescription,omitempty"`
	Description      string      `json:"description"`
	Teacher          Ref         `json:"teacher"`
	Category         Ref         `json:"category"`
	Level            CourseLevel `json:"level"`
	Price            float64     `json:"price"`
	Thumbnail        string      `json:"thumbnail,omitempty"`
	IsPublished      bool        `json:"isPublished"`
	TotalLessons     int         `json:"totalLessons"`
	TotalDuration    int         `json:"totalDuration"`
	StudentsEnrolled int         `json:"studentsEnrolled"`
	Rating           float64     `json:"rating"`
	TotalReviews     int         `json:"totalReviews"`
	Tags             []string    `json:"tags"`
	Requirements     []string    `json:"requirements"`
	WhatYouWillLearn []string    `json:"whatYouWillLearn"`
}

// Normalize 补齐后端可能缺省的字段，渲染端不再需要判空
func (c *Course) Normalize() {
	if c == nil {
		return
	}
	switch c.Level {
	case Beginner, Intermediate, Advanced:
	default:
		c.Level = Beginner
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Requirements == nil {
		c.Requirements = []string{}
	}
	if c.WhatYouWillLearn == nil {
		c.WhatYouWillLearn = []string{}
	}
	if c.Rating < 0 {
		c.Rating = 0
	}
}

type Category struct {
	BaseModel
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CourseFilter 课程列表查询条件
type CourseFilter struct {
	Search   string
	Category string
	Level    CourseLevel
	Sort     string
	Page     int
	Limit    int
}

type CourseList struct {
	Courses    []Course `json:"courses"`
	Pagination Page     `json:"pagination"`
}

func (l *CourseList) Normalize() {
	if l.Courses == nil {
		l.Courses = []Course{}
	}
	for i := range l.Courses {
		l.Courses[i].Normalize()
	}
}

// CourseInput 创建/更新课程的请求体
type CourseInput struct {
	Title            string      `json:"title,omitempty"`
	ShortDescription string      `json:"shortDescription,omitempty"`
	Description      string      `json:"description,omitempty"`
	Category         string      `json:"category,omitempty"`
	Level            CourseLevel `json:"level,omitempty"`
	Price            *float64    `json:"price,omitempty"`
	Thumbnail        string      `json:"thumbnail,omitempty"`
	Tags             []string    `json:"tags,omitempty"`
}
