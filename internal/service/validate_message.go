package service

import (
	"fmt"
	"strings"

	apperror "mpp-chat-portal/internal/error"
)

const maxConversationIDLength = 128

// ------------------------------------------------------------------------------------------------------
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return apperror.NewValidationError("message cannot be empty", apperror.ErrMessageEmpty)
	}

	if len(r.ConversationID) > maxConversationIDLength {
		return apperror.NewValidationError(
			fmt.Sprintf("conversation id must be at most %d characters", maxConversationIDLength),
			nil,
		)
	}

	return nil
}
