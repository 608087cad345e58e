package handler

import (
	"roomrelay/internal/app/chat"
	"roomrelay/internal/configs"
)

// AppDeps carries the explicitly owned collaborators every handler needs.
type AppDeps struct {
	Manager *chat.Manager
	Config  *configs.AppConfig
}
