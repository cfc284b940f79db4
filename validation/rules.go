// Package validation registers the request rules used in gin binding tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"table-reservation-api/models"
)

var once sync.Once

// Register installs the custom tags on gin's validator and makes error
// messages use JSON field names. Safe to call more than once.
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("validation: gin validator engine is not go-playground/validator")
		}
		registerRules(v)
	})
}

func registerRules(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("validation: register %q: %v", tag, err))
		}
	}

	mustRegister("user_role", enum(func(s string) bool { return models.UserRole(s).Valid() }))
	mustRegister("booking_status", enum(func(s string) bool { return models.BookingStatus(s).Valid() }))
	mustRegister("payment_status", enum(func(s string) bool { return models.PaymentStatus(s).Valid() }))
	mustRegister("table_status", enum(func(s string) bool { return models.TableStatus(s).Valid() }))
	mustRegister("table_location", enum(func(s string) bool { return models.TableLocation(s).Valid() }))
	mustRegister("review_status", enum(func(s string) bool { return models.ReviewStatus(s).Valid() }))
	mustRegister("review_category", enum(func(s string) bool { return models.ReviewCategory(s).Valid() }))
	mustRegister("booking_date", layout(models.DateLayout))
	mustRegister("booking_time", layout(models.TimeLayout))
}

// enum leaves empty values to "required".
func enum(valid func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || valid(value)
	}
}

func layout(format string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		_, err := time.Parse(format, value)
		return err == nil
	}
}

// Message turns a binding error into one readable line.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), describe(fe)))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "booking_date":
		return "must be a date in YYYY-MM-DD format"
	case "booking_time":
		return "must be a time in HH:MM format"
	case "user_role", "booking_status", "payment_status", "table_status",
		"table_location", "review_status", "review_category":
		return fmt.Sprintf("%q is not a valid value", fe.Value())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
