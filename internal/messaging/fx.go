package messaging

import (
	"github.com/devlopes006/gestao-clientes/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("messaging",
	fx.Provide(provideWhatsApp, provideEmail),
)

func provideWhatsApp(cfg config.Config, log *zap.Logger) WhatsAppSender {
	sender := NewWhatsAppClient(cfg.WhatsAppBaseURL, cfg.WhatsAppToken)
	if sender == nil {
		log.Named("messaging").Info("whatsapp gateway disabled")
	}
	return sender
}

func provideEmail(cfg config.Config, log *zap.Logger) EmailSender {
	sender := NewEmailClient(cfg.EmailBaseURL, cfg.EmailAPIKey, cfg.EmailFrom)
	if sender == nil {
		log.Named("messaging").Info("email gateway disabled")
	}
	return sender
}
