package middleware

import (
	"errors"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"course-catalog/internal/service"
)

var registerOnce sync.Once

// RegisterValidators 在 gin 的 validator 上注册自定义规则
//
//   - weekday：星期 "1".."7"
//   - periods：节次文字至少能解析出一个节次
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator 引擎不是 validator/v10")
			return
		}
		if err = v.RegisterValidation("weekday", validateWeekday); err != nil {
			return
		}
		err = v.RegisterValidation("periods", validatePeriods)
	})
	return err
}

func validateWeekday(fl validator.FieldLevel) bool {
	d := strings.TrimSpace(fl.Field().String())
	return len(d) == 1 && d[0] >= '1' && d[0] <= '7'
}

func validatePeriods(fl validator.FieldLevel) bool {
	return len(service.ParsePeriods(fl.Field().String())) > 0
}

// ValidationDetails 将绑定错误转为可读讯息；非校验错误返回 nil
func ValidationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, formatValidationError(e))
	}
	return out
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " 為必填"
	case "max":
		return e.Field() + " 長度不可超過 " + e.Param()
	case "oneof":
		return e.Field() + " 必須是以下其中之一：" + e.Param()
	case "weekday":
		return e.Field() + " 必須是 1 到 7 的星期"
	case "periods":
		return e.Field() + " 節次格式錯誤（例如 2,3,4 或 8-10）"
	default:
		return e.Field() + " 格式錯誤：" + e.Tag()
	}
}
