package handler

import "fmt"

// CourseAlreadyExistsError is an error that indicates
// that an active course channel already exists for the given guild and name.
type CourseAlreadyExistsError struct {
	GuildID string
	Name    string
}

func (e *CourseAlreadyExistsError) Error() string {
	return fmt.Sprintf("course channel already exists for guild %s with name %s", e.GuildID, e.Name)
}

var _ error = (*CourseAlreadyExistsError)(nil)

// UserError is an error type that is used to represent
// an error that should be displayed to the user.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

var _ error = (*UserError)(nil)
