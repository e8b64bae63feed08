package error

import "errors"

var (
	ErrMessageEmpty        = errors.New("message cannot be empty")
	ErrMessageTooLong      = errors.New("message exceeds the token limit")
	ErrConversationBusy    = errors.New("conversation has a reply in flight")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrSessionExpired      = errors.New("session expired")
	ErrSelfDelete          = errors.New("cannot delete the signed-in user")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrNotFound            = errors.New("not found")
	ErrDatabaseUnavailable = errors.New("database not configured")
	ErrTransport           = errors.New("transport error")
)
