package middleware

import (
	"errors"

	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
)

// ErrLogged tells main the diagnostic was already printed.
var ErrLogged = errors.New("already logged")

func FlagComboError(code errs.Code, a ...any) error {
	msg := errs.Msg(code, a...)
	logger.LogError("%s", msg)
	return ErrLogged
}
