package errors

import (
	"errors"
	"fmt"
)

// Категории ошибок. Проверяются через errors.Is.
var (
	ErrConnection   = errors.New("connection error")
	ErrCommand      = errors.New("command failed")
	ErrPrecondition = errors.New("precondition failed")
)

// AppError представляет собой стандартизированную ошибку операции с роботом.
type AppError struct {
	Kind    error  // Одна из категорий ErrConnection, ErrCommand, ErrPrecondition
	Op      string // Операция менеджера: connect, power_on, jog...
	Code    int    // Код драйвера, 0 для нарушений предусловий
	Message string // Описание для вызывающей стороны
	Err     error  // Внутренняя ошибка
}

func (a *AppError) Error() string {
	if a == nil {
		return ""
	}
	if a.Code != 0 {
		return fmt.Sprintf("%s: %s (code: %d)", a.Op, a.Message, a.Code)
	}
	return fmt.Sprintf("%s: %s", a.Op, a.Message)
}

func (a *AppError) Unwrap() []error {
	if a.Err == nil {
		return []error{a.Kind}
	}
	return []error{a.Kind, a.Err}
}

// NewAppError создает новый экземпляр AppError.
func NewAppError(kind error, op string, code int, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Connection - драйвер не выдал хендл.
func Connection(op string, code int, message string, err error) *AppError {
	return NewAppError(ErrConnection, op, code, message, err)
}

// Command - управляющий вызов драйвера вернул ошибку.
func Command(op string, code int, message string, err error) *AppError {
	return NewAppError(ErrCommand, op, code, message, err)
}

// Precondition - операция недопустима в текущем состоянии; драйвер не вызывался.
func Precondition(op, message string) *AppError {
	return NewAppError(ErrPrecondition, op, 0, message, nil)
}

// Describe возвращает описание ошибки для вызывающей стороны.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// CodeOf возвращает код драйвера, если он есть в цепочке.
func CodeOf(err error) (int, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code, true
	}
	return 0, false
}
