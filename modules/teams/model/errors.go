package model

import "errors"

var (
	// ErrTeamNotFound is returned when a team does not exist for the given tenant.
	ErrTeamNotFound = errors.New("team not found")

	// ErrTeamNameRequired is returned when a team name is empty.
	ErrTeamNameRequired = errors.New("team name is required")
)
