package handlers

import (
	"time"

	"tmi/config"
	"tmi/pkg/logger"
)

// ConnStatus is the live connection snapshot supplied by the chat engine.
type ConnStatus struct {
	State   string
	Joined  []string
	Latency time.Duration
	Login   string
}

type Handlers struct {
	log     logger.Logger
	manager *config.Manager
	status  func() ConnStatus
	started time.Time
}

func New(log logger.Logger, manager *config.Manager, status func() ConnStatus) *Handlers {
	return &Handlers{
		log:     log,
		manager: manager,
		status:  status,
		started: time.Now(),
	}
}
