package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	goval "github.com/go-passwd/validator"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/leebenson/conform"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordLength = 72
)

var (
	validate = validator.New()
	trans    ut.Translator
)

func init() {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(fmt.Sprintf("registering validator translations: %v", err))
	}
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
}

type RegisterRequest struct {
	Username string `json:"username" conform:"trim" validate:"required,min=2,max=50"`
	Email    string `json:"email" conform:"trim,lower" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" conform:"trim,lower" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateIncidentRequest carries the text fields of the report form.
type CreateIncidentRequest struct {
	Description string   `form:"descripcion" json:"descripcion" conform:"trim" validate:"required"`
	Type        string   `form:"tipoIncidente" json:"tipoIncidente" conform:"trim" validate:"required"`
	Latitude    *float64 `form:"latitud" json:"latitud" validate:"required,latitude"`
	Longitude   *float64 `form:"longitud" json:"longitud" validate:"required,longitude"`
}

type CreateCommentRequest struct {
	Text string `json:"texto" conform:"trim" validate:"required"`
}

// Normalize trims (and lowercases where tagged) the string fields of req.
func Normalize(req interface{}) error {
	return conform.Strings(req)
}

// ValidateStruct normalizes req and runs its validate tags. The returned
// error lists every failing field in English.
func ValidateStruct(req interface{}) error {
	if err := Normalize(req); err != nil {
		return err
	}
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return errors.New(strings.Join(translateError(verrs), "; "))
}

func translateError(verrs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, e.Translate(trans))
	}
	return msgs
}

// Validate checks a registration after normalization, including the password policy.
func (r *RegisterRequest) Validate() error {
	if err := ValidateStruct(r); err != nil {
		return err
	}
	return ValidatePassword(r.Password)
}

func (r *LoginRequest) Validate() error {
	return ValidateStruct(r)
}

func (r *CreateCommentRequest) Validate() error {
	return ValidateStruct(r)
}

// Validate checks the form and resolves the category.
func (r *CreateIncidentRequest) Validate() (IncidentType, error) {
	if err := ValidateStruct(r); err != nil {
		return "", err
	}
	t, ok := ParseIncidentType(r.Type)
	if !ok {
		return "", fmt.Errorf("tipoIncidente must be one of %s", joinTypes())
	}
	return t, nil
}

func joinTypes() string {
	names := make([]string, len(IncidentTypes))
	for i, t := range IncidentTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func ValidatePassword(password string) error {
	passwordValidator := goval.New(
		goval.MinLength(MinPasswordLength, fmt.Errorf("password cant be less than %d characters", MinPasswordLength)),
		goval.MaxLength(MaxPasswordLength, fmt.Errorf("password cant be more than %d characters", MaxPasswordLength)),
	)
	return passwordValidator.Validate(password)
}
