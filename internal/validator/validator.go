package validator

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"storefront/internal/usecase"

	playground "github.com/go-playground/validator/v10"
)

// echoのc.Validate()から呼ばれる
type RequestValidator struct {
	v *playground.Validate
}

func New() *RequestValidator {
	v := playground.New()
	// エラーメッセージはjsonタグの名前で出す
	v.RegisterTagNameFunc(jsonTagName)
	return &RequestValidator{v: v}
}

// 失敗したら400のHTTPErrorを返す（最初の項目だけ）
func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.v.Struct(i); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, message(err))
	}
	return nil
}

func message(err error) string {
	var fes playground.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return "invalid input"
	}
	fe := fes[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " required"
	case "email":
		return "invalid " + fe.Field()
	case "min", "max", "gte", "lte", "gt", "lt":
		return fe.Field() + " out of range"
	case "oneof":
		return "invalid " + fe.Field()
	default:
		return "invalid " + fe.Field()
	}
}

func jsonTagName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}
