package api

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/studyrec/core"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateRequest 校验请求结构体，失败时返回带固定提示语的 INVALID_INPUT 错误
func validateRequest(v any, message string) error {
	if err := getValidator().Struct(v); err != nil {
		return core.NewValidationError(message)
	}
	return nil
}
