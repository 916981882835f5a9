package utils

import (
	"fmt"

	"github.com/echoface/mediation-adapter/pkg/logger"
)

// IgnoreErr logs a non-nil err at warn level and carries on.
func IgnoreErr(log logger.Logger, err error, format string, vs ...any) {
	if err == nil {
		return
	}
	log.Warn(fmt.Sprintf(format, vs...), "error", err.Error())
}
