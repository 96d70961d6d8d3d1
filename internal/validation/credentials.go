// Package validation checks account credentials and request bodies.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 12
	maxPasswordLength = 128
	minUsernameLength = 3
	maxUsernameLength = 30
	maxEmailLength    = 254
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Usernames that would shadow a /api/users/<name> route.
var reservedUsernames = map[string]struct{}{
	"me":       {},
	"search":   {},
	"admin":    {},
	"api":      {},
	"ws":       {},
	"login":    {},
	"signup":   {},
	"settings": {},
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator. Field names in errors use
// the json tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Struct validates s against its `validate` tags and returns the first
// failure as a readable message.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Errorf("%s is required", fe.Field())
		case "max":
			return fmt.Errorf("%s must be at most %s long", fe.Field(), fe.Param())
		case "min":
			return fmt.Errorf("%s must be at least %s long", fe.Field(), fe.Param())
		case "url":
			return fmt.Errorf("%s must be a URL", fe.Field())
		default:
			return fmt.Errorf("%s is invalid", fe.Field())
		}
	}
	return err
}

// ValidatePassword checks length and character class requirements.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	switch {
	case !upper:
		return fmt.Errorf("password must contain at least one uppercase letter")
	case !lower:
		return fmt.Errorf("password must contain at least one lowercase letter")
	case !digit:
		return fmt.Errorf("password must contain at least one digit")
	case !special:
		return fmt.Errorf("password must contain at least one special character")
	}
	return nil
}

// ValidateUsername checks length, charset, edges and reserved names.
func ValidateUsername(username string) error {
	if len(username) < minUsernameLength {
		return fmt.Errorf("username must be at least %d characters long", minUsernameLength)
	}
	if len(username) > maxUsernameLength {
		return fmt.Errorf("username must not exceed %d characters", maxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}
	if strings.ContainsAny(username[:1], "_-") || strings.ContainsAny(username[len(username)-1:], "_-") {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// ValidateEmail checks email syntax.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must not exceed %d characters", maxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}
