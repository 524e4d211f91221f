package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MinReviewComment = 10
	MinPasswordLen   = 6
)

// 页面错误态可提供的操作
const (
	ActionRetry  = "retry"
	ActionBack   = "back"
	ActionLogin  = "login"
	ActionBrowse = "browse"
)
