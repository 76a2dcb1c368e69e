package handlers

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var deviceTypes = map[string]bool{
	"web":     true,
	"desktop": true,
	"mobile":  true,
	"tablet":  true,
	"tv":      true,
	"ios":     true,
	"android": true,
}

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request structs to
// gin's validator. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("devicetype", validDeviceType)
	})
}

func validDeviceType(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	return deviceTypes[strings.ToLower(s)]
}
