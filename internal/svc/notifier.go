package svc

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	enginepkg "earlybot/pkg/engine"
)

// logNotifier routes engine events into the structured log. Delivery to
// external channels is left to alternative Notifier implementations.
type logNotifier struct{}

func (logNotifier) Notify(ctx context.Context, ev enginepkg.Event) {
	fields := []logx.LogField{
		logx.Field("event", string(ev.Type)),
		logx.Field("symbol", ev.Symbol),
	}
	for k, v := range ev.Fields {
		fields = append(fields, logx.Field(k, v))
	}
	logger := logx.WithContext(ctx)
	switch ev.Type {
	case enginepkg.EventEmergencyTriggered, enginepkg.EventRiskAlert:
		logger.Errorw(ev.Message, fields...)
	default:
		logger.Infow(ev.Message, fields...)
	}
}
