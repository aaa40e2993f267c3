package domain

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrUnknownBook = errors.New("unknown book kind")
)
