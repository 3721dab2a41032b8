package constants

// Static route constants
const (
	HealthzRoute           = "/healthz"
	StatszRoute            = "/statsz"
	PolarWebhooksRoute     = "/polar-webhooks"
	OneSignalWebhooksRoute = "/onesignal-webhooks"
	OneSignalSendRoute     = "/onesignal-send"
)
