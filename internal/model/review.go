package model

type Review struct {
	BaseModel
	Course       Ref    `json:"course"`
	User         Ref    `json:"user"`
	Rating       int    `json:"rating"`
	Title        string `json:"title,omitempty"`
	Comment      string `json:"comment"`
	HelpfulCount int    `json:"helpfulCount"`
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title,omitempty"`
	Comment string `json:"comment"`
}

type ReviewList struct {
	Reviews    []Review `json:"reviews"`
	Pagination Page     `json:"pagination"`
}

func (l *ReviewList) Normalize() {
	if l.Reviews == nil {
		l.Reviews = []Review{}
	}
}
