package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	appErrors "iot-device-manager/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate        *validator.Validate
	deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9-_]+$`)
)

var (
	deviceTypes    = []string{"sensor", "camera", "gateway", "controller", "other"}
	deviceStatuses = []string{"online", "offline", "error", "maintenance"}
	userRoles      = []string{"user", "admin", "operator", "viewer"}
)

func init() {
	validate = validator.New()

	// Report JSON/form names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = validate.RegisterValidation("device_id", func(fl validator.FieldLevel) bool {
		return deviceIDPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("device_type", oneOf(deviceTypes))
	_ = validate.RegisterValidation("device_status", oneOf(deviceStatuses))
	_ = validate.RegisterValidation("user_role", oneOf(userRoles))
	_ = validate.RegisterValidation("notfuture", validateNotFuture)
}

// ValidateStruct runs struct validation and converts failures into a VALIDATION_ERROR AppError.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	details := make([]appErrors.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, appErrors.FieldError{
			Field:   fieldPath(fe),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}

	return appErrors.NewValidationError("Invalid input", details)
}

// fieldPath drops the top-level struct name from the namespace ("CreateDeviceRequest.location.address").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "device_id":
		return fmt.Sprintf("%s may only contain letters, digits, '-' and '_'", fe.Field())
	case "device_type":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(deviceTypes, ", "))
	case "device_status":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(deviceStatuses, ", "))
	case "user_role":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(userRoles, ", "))
	case "notfuture":
		return fmt.Sprintf("%s must not be in the future", fe.Field())
	default:
		return fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
	}
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

func validateNotFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !t.After(time.Now())
}
