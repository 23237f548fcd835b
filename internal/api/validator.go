package api

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/neekunjshah/petty-cash/internal/workflow"
	"github.com/shopspring/decimal"
)

// maxAmount numeric(12,2) 能表示的上限(不含)
var maxAmount = decimal.New(1, 10)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册自定义规则
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = registerCustomValidators(v)
	})
	return err
}

func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("money", validateMoney); err != nil {
		return err
	}
	return v.RegisterValidation("status_filter", validateStatusFilter)
}

// validateMoney 非负、最多两位小数、不超过 numeric(12,2)
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	if d.IsNegative() {
		return false
	}
	if !d.Equal(d.Round(2)) {
		return false
	}
	return d.LessThan(maxAmount)
}

// validateStatusFilter all 或合法状态
func validateStatusFilter(fl validator.FieldLevel) bool {
	s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	if s == "" || s == "all" {
		return true
	}
	_, err := workflow.ParseStatus(s)
	return err == nil
}
