package account

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rs/zerolog/log"
)

// Validator checks request forms and reports failures per json field name.
type Validator struct {
	V *validator.Validate
	T ut.Translator
}

// NewValidator builds a validator with English messages, json field names
// and the letterdigit rule.
func NewValidator() *Validator {
	v := validator.New()
	enT := en.New()
	uni := ut.New(enT, enT)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		log.Fatal().Err(err).Msg("Failed to register validator translations")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("letterdigit", letterDigit); err != nil {
		log.Fatal().Err(err).Msg("Failed to register letterdigit rule")
	}
	registerTranslation(v, trans, "letterdigit", "{0} must contain at least one letter and one digit")
	registerTranslation(v, trans, "eqfield", "{0} must match {1}")

	return &Validator{V: v, T: trans}
}

// Validate returns field errors keyed by json name, or nil.
func (v *Validator) Validate(value interface{}) map[string]string {
	err := v.V.Struct(value)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"": err.Error()}
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fe.Translate(v.T)
	}
	return fields
}

func letterDigit(fl validator.FieldLevel) bool {
	var letter, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag, msg string) {
	register := func(trans ut.Translator) error {
		return trans.Add(tag, msg, true)
	}
	translate := func(trans ut.Translator, fe validator.FieldError) string {
		text, err := trans.T(fe.Tag(), fe.Field(), jsonName(fe.Param()))
		if err != nil {
			return fe.Error()
		}
		return text
	}
	if err := v.RegisterTranslation(tag, trans, register, translate); err != nil {
		log.Fatal().Err(err).Str("tag", tag).Msg("Failed to register translation")
	}
}

// jsonName lower-cases the first letter of a struct field named in a rule
// parameter, so "NewPassword" reads as "newPassword".
func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
