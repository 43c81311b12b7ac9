package domain

import "errors"

var (
	ErrNoAgentsEnabled = errors.New("no enabled agents configured")
	ErrAgentNotFound   = errors.New("agent not found")
	ErrSessionNotFound = errors.New("session not found")
)
