package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateReview 提交评价前的本地校验
func ValidateReview(rating int, comment string) map[string]error {
	errs := map[string]error{}
	if rating < 1 || rating > 5 {
		errs["rating"] = ErrRatingOutOfRange
	}
	if utf8.RuneCountInString(strings.TrimSpace(comment)) < MinReviewComment {
		errs["comment"] = ErrCommentTooShort
	}
	return errs
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidateRegistration 各项检查互相独立，返回所有失败项
func ValidateRegistration(name, email, password, confirm string) map[string]error {
	errs := map[string]error{}
	if strings.TrimSpace(name) == "" {
		errs["name"] = ErrNameRequired
	}
	if !ValidEmail(email) {
		errs["email"] = ErrInvalidEmail
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		errs["password"] = ErrPasswordTooShort
	}
	if password != confirm {
		errs["confirmPassword"] = ErrPasswordMismatch
	}
	return errs
}

// FieldMessages 把校验结果转成 field -> 文案
func FieldMessages(errs map[string]error) map[string]string {
	out := make(map[string]string, len(errs))
	for k, v := range errs {
		out[k] = v.Error()
	}
	return out
}
