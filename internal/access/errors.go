package access

import (
	"errors"
	"fmt"

	"github.com/wellirecord/connect/models"
)

// ErrAccessDenied matches every AccessDeniedError with errors.Is
var ErrAccessDenied = errors.New("access denied")

// AccessDeniedError is returned when a role requests a view outside its
// permitted set.
type AccessDeniedError struct {
	Role models.Role
	View models.View
}

// Error implements the error interface
func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: role %q may not view %q", e.Role, e.View)
}

// Is lets errors.Is match ErrAccessDenied
func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

// Message returns the user-facing denial text
func (e *AccessDeniedError) Message() string {
	return DenialMessage(e.Role)
}

// DenialMessage is the text shown in place of module content
func DenialMessage(role models.Role) string {
	return fmt.Sprintf("Your current role (%s) does not have permission to view this module.", role)
}
