package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DecodeJSON decode request body ke struct
func DecodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// ValidationErrors map field -> pesan error
type ValidationErrors map[string]string

func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// pakai nama json supaya key error sama dengan payload
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct menjalankan validasi tag `validate` dan mengembalikan error per field
func ValidateStruct(s interface{}) ValidationErrors {
	errs := ValidationErrors{}
	err := validate.Struct(s)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["_"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		key := strings.SplitN(fe.Namespace(), ".", 2)
		field := fe.Field()
		if len(key) == 2 {
			field = key[1]
		}
		errs[field] = validationMessage(fe)
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "wajib diisi"
	case "uuid":
		return "harus berupa UUID"
	case "max":
		return "maksimal " + fe.Param()
	case "min":
		return "minimal " + fe.Param() + " karakter"
	case "gte":
		return "minimal " + fe.Param()
	case "gt":
		return "harus lebih dari " + fe.Param()
	case "oneof":
		return "harus salah satu dari: " + fe.Param()
	case "hexcolor":
		return "harus warna hex (#RRGGBB)"
	case "email":
		return "format email tidak valid"
	}
	return "tidak valid (" + fe.Tag() + ")"
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func SanitizeString(s string) string {
	return strings.TrimSpace(s)
}
