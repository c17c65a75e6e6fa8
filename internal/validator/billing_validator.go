package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"shopcart/internal/usecase"

	playground "github.com/go-playground/validator/v10"
)

type billingValidator struct {
	v *playground.Validate
}

// Usecaseは interface を依存注入
func NewBillingValidator() usecase.BillingValidator {
	v := playground.New(playground.WithRequiredStructEnabled())

	// エラーのキーはJSONの項目名にする
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	return &billingValidator{v: v}
}

// 請求先フォームを検証（前後の空白は無視）
func (b *billingValidator) ValidateBilling(ctx context.Context, form usecase.BillingForm) error {
	form = trimBilling(form)

	err := b.v.StructCtx(ctx, form)
	if err == nil {
		return nil
	}

	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = messageFor(fe)
	}
	return &usecase.ValidationError{Fields: fields}
}

func messageFor(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return "ensure this field has at most " + fe.Param() + " characters"
	}
	return "invalid value"
}

func trimBilling(f usecase.BillingForm) usecase.BillingForm {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Email = strings.TrimSpace(f.Email)
	f.AddressLine1 = strings.TrimSpace(f.AddressLine1)
	f.AddressLine2 = strings.TrimSpace(f.AddressLine2)
	f.Country = strings.TrimSpace(f.Country)
	f.State = strings.TrimSpace(f.State)
	f.City = strings.TrimSpace(f.City)
	f.OrderNote = strings.TrimSpace(f.OrderNote)
	return f
}
