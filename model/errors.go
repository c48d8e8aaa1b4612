package model

import "errors"

var (
	// ErrNotFound is returned when a submission does not exist.
	ErrNotFound = errors.New("submission not found")
	// ErrAlreadyActioned is returned when a submission has left the pending status.
	ErrAlreadyActioned = errors.New("submission already actioned")
)
