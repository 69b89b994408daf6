package service

import "errors"

// Play errors mapped to response codes by the handlers.
var (
	ErrGameNotFound    = errors.New("game not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSessionOwner = errors.New("session belongs to another player")
	ErrWrongGameKind   = errors.New("action not supported by game kind")
	ErrUnknownPlayer   = errors.New("unknown player")
)
