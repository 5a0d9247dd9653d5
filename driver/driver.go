// Package driver описывает контракт нативного драйвера робота.
//
// Все вызовы возвращают числовой код результата: 0 - успех, отрицательные
// значения - ошибки из фиксированного набора (см. Describe).
package driver

import (
	"fmt"

	"github.com/iwtcode/robotAdapter/models"
)

// Handle - непрозрачный идентификатор подключения драйвера.
type Handle int

// Коды результата драйвера.
const (
	OK                 = 0
	RCConnection       = -1
	RCInvalidParameter = -2
	RCNotPowered       = -3
	RCNotEnabled       = -4
	RCInError          = -5
)

// Driver - обертка над нативной библиотекой робота.
// Вызовы для одного хендла не реентерабельны: вызывающая сторона сериализует их сама.
type Driver interface {
	CreateHandle(ip string) (int, Handle)
	DestroyHandle(h Handle) int

	PowerOn(h Handle) int
	PowerOff(h Handle) int
	Enable(h Handle) int
	Disable(h Handle) int

	ReadJointPositions(h Handle) (int, models.JointPositions)
	ReadToolPose(h Handle) (int, models.ToolPose)
	ReadStatus(h Handle) (int, models.RobotStatus)

	Jog(h Handle, axis int, mode models.JogMode, frame models.Frame, velocity, target float64) int
	StopJog(h Handle, axis int) int
}

var descriptions = map[int]string{
	RCConnection:       "connection error",
	RCInvalidParameter: "invalid parameter",
	RCNotPowered:       "robot not powered",
	RCNotEnabled:       "robot not enabled",
	RCInError:          "robot in error",
}

// Describe возвращает текстовое описание кода результата.
func Describe(rc int) string {
	if rc == OK {
		return "ok"
	}
	if d, ok := descriptions[rc]; ok {
		return d
	}
	return fmt.Sprintf("unknown error code %d", rc)
}

// CodeError - ошибка вызова драйвера с ненулевым кодом.
type CodeError struct {
	Op string
	RC int
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("%s failed: %s (rc=%d)", e.Op, Describe(e.RC), e.RC)
}

// Code возвращает исходный код драйвера.
func (e *CodeError) Code() int {
	return e.RC
}

// Check превращает код результата в ошибку. Для OK возвращает nil.
func Check(op string, rc int) error {
	if rc == OK {
		return nil
	}
	return &CodeError{Op: op, RC: rc}
}
