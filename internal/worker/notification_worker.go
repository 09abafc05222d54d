package worker

import (
	"github.com/spec-kit/fluxo-portal/internal/service"
)

// StartNotificationWorker registers notification handlers on the dispatcher.
// Delivery is synchronous, so there is nothing to stop on shutdown.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
