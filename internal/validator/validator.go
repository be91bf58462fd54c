package validator

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stemsi/certify-backend/internal/model"
)

var (
	// trans is the singleton English translator for validation errors.
	trans  ut.Translator
	engine *govalidator.Validate
	once   sync.Once
)

// Setup registers the custom tags and English translations on Gin's binding
// engine. Safe to call more than once.
func Setup() {
	once.Do(setup)
}

func setup() {
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	if !ok {
		v = govalidator.New(govalidator.WithRequiredStructEnabled())
		v.SetTagName("binding")
	}
	engine = v

	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("datekey", func(fl govalidator.FieldLevel) bool {
		return model.ValidDateKey(fl.Field().String())
	})
	_ = v.RegisterValidation("clock", func(fl govalidator.FieldLevel) bool {
		return model.ValidClock(fl.Field().String())
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	registerMessage(v, "datekey", "{0} must be a date in YYYY-MM-DD format")
	registerMessage(v, "clock", "{0} must be a time in HH:MM format")
}

func registerMessage(v *govalidator.Validate, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(u ut.Translator) error { return u.Add(tag, text, true) },
		func(u ut.Translator, fe govalidator.FieldError) string {
			msg, err := u.T(tag, fieldPath(fe))
			if err != nil {
				return fe.Error()
			}
			return msg
		})
}

// fieldPath is the namespace of fe without the root struct name, e.g.
// "blockedDates[0].date".
func fieldPath(fe govalidator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

// TranslateErrors takes a binding/validation error and returns a map of
// field path to human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	Setup()
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fieldPath(fe)] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Struct validates v against its binding tags outside of an HTTP request.
// Returns nil when v is valid.
func Struct(v interface{}) map[string]string {
	Setup()
	if err := engine.Struct(v); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// Message flattens a field error map into one sorted, human-readable line.
func Message(fields map[string]string) string {
	msgs := make([]string, 0, len(fields))
	for _, m := range fields {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
