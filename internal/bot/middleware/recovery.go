package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/metrics"
)

// RecoverFromPanic вызывается через defer в начале обработчика апдейта.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		metrics.PanicsTotal.Inc()
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("ПАНИКА в обработчике — восстановлено")
	}
}
