package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies who produced a turn in the transcript.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// ChatTurn is one entry of a conversation transcript.
type ChatTurn struct {
	Role      Role
	Content   Reply
	CreatedAt time.Time
}

type chatTurnJSON struct {
	Role      Role            `json:"role"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
}

// MarshalJSON encodes content as a JSON string for text turns and as an object for records.
func (t ChatTurn) MarshalJSON() ([]byte, error) {
	var (
		content []byte
		err     error
	)
	if t.Content.IsRecord() {
		content, err = json.Marshal(t.Content.Record)
	} else {
		content, err = json.Marshal(t.Content.Text)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(chatTurnJSON{
		Role:      t.Role,
		Content:   content,
		CreatedAt: t.CreatedAt,
	})
}

func (t *ChatTurn) UnmarshalJSON(data []byte) error {
	var raw chatTurnJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Role = raw.Role
	t.CreatedAt = raw.CreatedAt
	t.Content = Reply{}

	trimmed := bytes.TrimSpace(raw.Content)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &t.Content.Text)
	case '{':
		var record ServiceRecord
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return err
		}
		t.Content.Record = &record
		return nil
	default:
		return fmt.Errorf("unsupported turn content: %s", trimmed)
	}
}
