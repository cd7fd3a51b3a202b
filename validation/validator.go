package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()

	// Report fields by their JSON key, the dashboard knows nothing else
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	locale := fr.New()
	trans, _ = ut.New(locale, locale).GetTranslator("fr")
	if err := fr_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}

	_ = validate.RegisterTranslation("datetime", trans,
		func(t ut.Translator) error {
			return t.Add("datetime", "{0} doit être une date au format AAAA-MM-JJ", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("datetime", fe.Field())
			return msg
		},
	)
}

// Struct validates s and returns the messages keyed by JSON field name, or
// nil when s is valid.
func Struct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		out[fe.Field()] = fe.Translate(trans)
	}
	return out
}

// Var validates a single value against a tag, e.g. Var(date, "datetime=2006-01-02").
func Var(value interface{}, tag string) error {
	return validate.Var(value, tag)
}
