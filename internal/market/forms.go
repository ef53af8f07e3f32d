package market

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterForm is submitted on the registration page.
type RegisterForm struct {
	Username       string `form:"username" validate:"required,max=150"`
	Password       string `form:"password" validate:"required,min=8"`
	RepeatPassword string `form:"repeat_password" validate:"required,eqfield=Password"`
}

// ProfileForm holds the editable personal data of a user and their profile.
type ProfileForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
	City      string `form:"city" validate:"max=30"`
	Street    string `form:"street" validate:"max=30"`
	ZipCode   string `form:"zip_code" validate:"max=6"`
	Phone     string `form:"phone" validate:"omitempty,e164"`
}

// PasswordForm changes the password of the acting user.
type PasswordForm struct {
	Current        string `form:"current_password" validate:"required"`
	New            string `form:"new_password" validate:"required,min=8"`
	RepeatPassword string `form:"repeat_password" validate:"required,eqfield=New"`
}

// AnnouncementForm is used to create and edit announcements. Price is kept
// as text so that it can be re-rendered as typed.
type AnnouncementForm struct {
	Title       string `form:"title" validate:"required,max=128"`
	Description string `form:"description" validate:"required"`
	Price       string `form:"price" validate:"required,price"`
	CategoryID  int64  `form:"category" validate:"gt=0"`
}

// maxPrice is the first value with more than 8 integer digits.
var maxPrice = decimal.New(1, 8)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, err := parsePrice(fl.Field().String())
		return err == nil
	})
	return v
}

// parsePrice accepts positive amounts with at most two decimals and ten
// digits in total. A decimal comma is accepted as well.
func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(s), ",", ".", 1))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, errors.New("price must be positive")
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Decimal{}, errors.New("price has more than two decimals")
	}
	if d.GreaterThanOrEqual(maxPrice) {
		return decimal.Decimal{}, errors.New("price too large")
	}
	return d, nil
}

// check validates a form struct and converts failures to a ValidationError
// with one message per field.
func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating form: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, ok := fields[fe.Field()]; !ok {
			fields[fe.Field()] = message(fe)
		}
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "To polje je obvezno."
	case "max":
		return fmt.Sprintf("Največ %s znakov.", fe.Param())
	case "min":
		return fmt.Sprintf("Vsaj %s znakov.", fe.Param())
	case "email":
		return "Vnesite veljaven e-poštni naslov."
	case "e164":
		return "Vnesite telefonsko številko v mednarodni obliki, npr. +38640123456."
	case "eqfield":
		return "Gesli se ne ujemata."
	case "price":
		return "Vnesite pozitivno ceno z največ dvema decimalkama."
	case "gt":
		return "Izberite kategorijo."
	default:
		return "Neveljavna vrednost."
	}
}
