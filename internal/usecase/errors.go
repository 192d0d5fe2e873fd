package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// HTTPError はhandlerがそのままステータスとメッセージに使うエラー。
// Cause はレスポンスには出さずログにだけ残す。
type HTTPError struct {
	Status  int
	Message string
	Cause   error
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Cause }

func NewHTTPError(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// 500 db error（原因つき）
func dbError(cause error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Message: "db error", Cause: cause}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// 監査ログ用のJSON文字列
func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
