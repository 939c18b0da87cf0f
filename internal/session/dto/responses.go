package dto

import "github.com/radieske/bet-session-service/internal/notify"

type ToggleResponse struct {
	Added bool `json:"added"` // false = seleção removida
}

type ConfirmResponse struct {
	BetIDs  []string `json:"betIds"`
	Message string   `json:"message,omitempty"`
}

type NotificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	// Ids criados antes da falha num lote parcial; sem rollback automático
	CreatedBetIDs []string `json:"createdBetIds,omitempty"`
}
