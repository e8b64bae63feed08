package render

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"mpp-chat-portal/internal/models"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Section kinds
const (
	KindList     = "list"
	KindNumbered = "numbered"
	KindText     = "text"
)

// Turn kinds
const (
	TurnText    = "text"
	TurnRecord  = "record"
	TurnPending = "pending"
	TurnError   = "error"
)

// Section titles, in display order
const (
	TitleLegalBasis   = "Dasar Hukum"
	TitleRequirements = "Persyaratan"
	TitleProcedure    = "Sistem, Mekanisme, dan Prosedur"
	TitleDuration     = "Jangka Waktu"
	TitleLocation     = "Lokasi Gerai"
	TitleFee          = "Biaya"
	TitleNote         = "Catatan Tambahan"
)

var bulletMarker = regexp.MustCompile(`(?m)^\* `)

// Raw HTML from the model is escaped, never passed through.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// Section is one labelled block of a service record
type Section struct {
	Title string   `json:"title"`
	Kind  string   `json:"kind"`
	Items []string `json:"items,omitempty"`
	Text  string   `json:"text,omitempty"`
}

// RenderedTurn is a transcript turn prepared for display
type RenderedTurn struct {
	Role      models.Role `json:"role"`
	Kind      string      `json:"kind"`
	HTML      string      `json:"html,omitempty"`
	Title     string      `json:"title,omitempty"`
	Sections  []Section   `json:"sections,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ------------------------------------------------------------------------------------------------------
// Narrative renders reply text as HTML. Leading "* " bullet markers are dropped and
// **bold** becomes <strong>.
func Narrative(text string) (string, error) {
	cleaned := bulletMarker.ReplaceAllString(text, "")

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(cleaned), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// ------------------------------------------------------------------------------------------------------
// Sections lays out a record in fixed order, skipping empty parts.
func Sections(record *models.ServiceRecord) []Section {
	sections := make([]Section, 0, 7)

	addList := func(title, kind string, items []string) {
		if len(items) > 0 {
			sections = append(sections, Section{Title: title, Kind: kind, Items: items})
		}
	}
	addText := func(title, text string) {
		if strings.TrimSpace(text) != "" {
			sections = append(sections, Section{Title: title, Kind: KindText, Text: text})
		}
	}

	addList(TitleLegalBasis, KindList, record.LegalBasis)
	addList(TitleRequirements, KindList, record.Requirements)
	addList(TitleProcedure, KindNumbered, record.Procedure)
	addText(TitleDuration, record.Duration)
	addText(TitleLocation, record.Location)
	addText(TitleFee, record.Fee)
	addText(TitleNote, record.Note)

	return sections
}

// ------------------------------------------------------------------------------------------------------
// Turn prepares a transcript turn for display.
func Turn(turn models.ChatTurn) RenderedTurn {
	out := RenderedTurn{Role: turn.Role, CreatedAt: turn.CreatedAt}

	switch {
	case turn.Role == models.RoleError:
		out.Kind = TurnError
		out.HTML = "<p>" + html.EscapeString(turn.Content.Text) + "</p>"
	case turn.Content.IsRecord():
		out.Kind = TurnRecord
		out.Title = turn.Content.Record.Name
		out.Sections = Sections(turn.Content.Record)
	case turn.Role == models.RoleAssistant && turn.Content.Text == "":
		out.Kind = TurnPending
	default:
		out.Kind = TurnText
		rendered, err := Narrative(turn.Content.Text)
		if err != nil {
			rendered = "<p>" + html.EscapeString(turn.Content.Text) + "</p>"
		}
		out.HTML = rendered
	}

	return out
}

// Turns renders a whole transcript.
func Turns(turns []models.ChatTurn) []RenderedTurn {
	out := make([]RenderedTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, Turn(t))
	}
	return out
}
