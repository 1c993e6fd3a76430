package model

import "errors"

var (
	ErrPositionNotFound    = errors.New("position not found")
	ErrPositionTitleRequired = errors.New("position title is required")
)
