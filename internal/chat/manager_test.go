package chat

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"mpp-chat-portal/internal/llm"
	"mpp-chat-portal/internal/ratelimit"
)

// Mock session and factory for testing
type mockSession struct {
	sendFunc   func(context.Context, string) (string, error)
	fragments  []string
	streamErr  error
	sendCalls  int
	streamCall int
	pulled     int
}

func (m *mockSession) Send(ctx context.Context, message string) (string, error) {
	m.sendCalls++
	if m.sendFunc != nil {
		return m.sendFunc(ctx, message)
	}
	return "mock response", nil
}

func (m *mockSession) Stream(ctx context.Context, message string) iter.Seq2[string, error] {
	m.streamCall++
	return func(yield func(string, error) bool) {
		for _, fragment := range m.fragments {
			m.pulled++
			if !yield(fragment, nil) {
				return
			}
		}
		if m.streamErr != nil {
			yield("", m.streamErr)
		}
	}
}

type mockFactory struct {
	sessions []*mockSession
	err      error
	created  int
}

func (f *mockFactory) NewSession(ctx context.Context) (llm.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created++
	if len(f.sessions) == 0 {
		return &mockSession{}, nil
	}
	s := f.sessions[0]
	if len(f.sessions) > 1 {
		f.sessions = f.sessions[1:]
	}
	return s, nil
}

func openLimiter() *ratelimit.Limiter {
	return ratelimit.New(ratelimit.WithMinInterval(0))
}

func TestIsSafe(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"plain question", "Apa syarat membuat KTP?", true},
		{"script tag", "<script>alert(1)</script>", false},
		{"script tag upper case", "<SCRIPT src=x>", false},
		{"javascript url", "klik javascript:void(0)", false},
		{"event handler", `<img onerror = "x">`, false},
		{"iframe", "<iframe src=x>", false},
		{"object", "<object data=x>", false},
		{"embed", "<embed src=x>", false},
		{"eval call", "eval(atob('x'))", false},
		{"timer call", "setTimeout(f, 1)", false},
		{"interval call", "setInterval(f, 1)", false},
		{"function constructor", "new Function('x')", false},
		{"empty", "", false},
		{"whitespace only", "  \n\t ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSafe(tt.query); got != tt.want {
				t.Errorf("IsSafe(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestManager_Send_RejectsUnsafeWithoutRemoteCall(t *testing.T) {
	session := &mockSession{}
	factory := &mockFactory{sessions: []*mockSession{session}}
	m := NewManager(factory, openLimiter(), nil)

	result := m.Send(context.Background(), "<script>alert(1)</script>")

	if result.Outcome != OutcomeRejected {
		t.Errorf("Expected OutcomeRejected, got %v", result.Outcome)
	}
	if result.Reply.Text != MsgRejected {
		t.Errorf("Expected rejection message, got %q", result.Reply.Text)
	}
	if session.sendCalls != 0 || factory.created != 0 {
		t.Errorf("Expected no remote activity, got %d sends and %d sessions", session.sendCalls, factory.created)
	}
}

func TestManager_Send_RateLimitedWithoutRemoteCall(t *testing.T) {
	session := &mockSession{}
	factory := &mockFactory{sessions: []*mockSession{session}}
	limiter := ratelimit.New(ratelimit.WithLimit(1), ratelimit.WithMinInterval(0))
	m := NewManager(factory, limiter, nil)

	first := m.Send(context.Background(), "Syarat SIM?")
	if first.Outcome != OutcomeText {
		t.Fatalf("Expected first send to reach the model, got %v", first.Outcome)
	}

	second := m.Send(context.Background(), "Syarat SIM?")
	if second.Outcome != OutcomeRateLimited || second.Reply.Text != MsgRateLimited {
		t.Errorf("Expected rate limited reply, got %v %q", second.Outcome, second.Reply.Text)
	}
	if session.sendCalls != 1 {
		t.Errorf("Expected 1 remote call, got %d", session.sendCalls)
	}
}

func TestManager_Send_CreatesSessionLazily(t *testing.T) {
	factory := &mockFactory{}
	m := NewManager(factory, openLimiter(), nil)

	if m.HasSession() {
		t.Fatal("Expected no session before the first send")
	}

	m.Send(context.Background(), "Halo")
	m.Send(context.Background(), "Halo lagi")

	if !m.HasSession() {
		t.Error("Expected a session after sending")
	}
	if factory.created != 1 {
		t.Errorf("Expected 1 session, got %d", factory.created)
	}
}

func TestManager_CreateSession_ReplacesSession(t *testing.T) {
	first := &mockSession{}
	second := &mockSession{}
	factory := &mockFactory{sessions: []*mockSession{first, second}}
	m := NewManager(factory, openLimiter(), nil)

	m.Send(context.Background(), "Halo")
	if err := m.CreateSession(context.Background()); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	m.Send(context.Background(), "Halo lagi")

	if first.sendCalls != 1 || second.sendCalls != 1 {
		t.Errorf("Expected one send per session, got %d and %d", first.sendCalls, second.sendCalls)
	}
}

func TestManager_Send_RecordReply(t *testing.T) {
	session := &mockSession{
		sendFunc: func(ctx context.Context, msg string) (string, error) {
			return "```json\n{\"namaLayanan\":\"SKCK\",\"persyaratan\":[\"KTP\"],\"sistemMekanismeProsedur\":[\"Daftar\"],\"jangkaWaktu\":\"1 hari\",\"lokasiGerai\":\"Loket 4\"}\n```", nil
		},
	}
	m := NewManager(&mockFactory{sessions: []*mockSession{session}}, openLimiter(), nil)

	result := m.Send(context.Background(), "Syarat SKCK?")

	if result.Outcome != OutcomeRecord {
		t.Fatalf("Expected OutcomeRecord, got %v", result.Outcome)
	}
	if result.Reply.Record.Name != "SKCK" {
		t.Errorf("Expected SKCK record, got %+v", result.Reply.Record)
	}
}

func TestManager_Send_Failures(t *testing.T) {
	tests := []struct {
		name    string
		factory *mockFactory
	}{
		{
			name: "remote error",
			factory: &mockFactory{sessions: []*mockSession{{
				sendFunc: func(ctx context.Context, msg string) (string, error) {
					return "", errors.New("503 service unavailable")
				},
			}}},
		},
		{
			name: "empty response",
			factory: &mockFactory{sessions: []*mockSession{{
				sendFunc: func(ctx context.Context, msg string) (string, error) {
					return "   ", nil
				},
			}}},
		},
		{
			name:    "session cannot be created",
			factory: &mockFactory{err: errors.New("invalid api key")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.factory, openLimiter(), nil)
			result := m.Send(context.Background(), "Syarat KTP?")

			if result.Outcome != OutcomeFailure {
				t.Errorf("Expected OutcomeFailure, got %v", result.Outcome)
			}
			if result.Reply.Text != MsgFailure {
				t.Errorf("Expected failure apology, got %q", result.Reply.Text)
			}
			if strings.Contains(result.Reply.Text, "503") || strings.Contains(result.Reply.Text, "api key") {
				t.Error("Remote error detail leaked into the reply")
			}
		})
	}
}

func TestStream_FragmentsInOrder(t *testing.T) {
	session := &mockSession{fragments: []string{"Halo", ", ", "ada yang", " bisa dibantu?"}}
	m := NewManager(&mockFactory{sessions: []*mockSession{session}}, openLimiter(), nil)

	stream := m.SendStream(context.Background(), "Halo")
	var got []string
	for fragment := range stream.Fragments() {
		got = append(got, fragment)
	}
	result := stream.Result()

	if strings.Join(got, "|") != "Halo|, |ada yang| bisa dibantu?" {
		t.Errorf("Unexpected fragment order: %q", got)
	}
	if result.Outcome != OutcomeText || result.Reply.Text != "Halo, ada yang bisa dibantu?" {
		t.Errorf("Unexpected result: %v %q", result.Outcome, result.Reply.Text)
	}
}

func TestStream_FencedRecordAcrossFragments(t *testing.T) {
	session := &mockSession{fragments: []string{
		"```js",
		"on\n{\"namaLayanan\": \"Penerbitan SKCK\", \"persyar",
		"atan\": [\"KTP\", \"Pas foto 4x6\"], \"sistemMekanismeProsedur\": [\"Daftar online\"], ",
		"\"jangkaWaktu\": \"1 Hari Kerja\"}\n``",
		"`",
	}}
	m := NewManager(&mockFactory{sessions: []*mockSession{session}}, openLimiter(), nil)

	stream := m.SendStream(context.Background(), "Syarat SKCK?")
	count := 0
	for range stream.Fragments() {
		count++
	}
	result := stream.Result()

	if count != 5 {
		t.Errorf("Expected 5 fragments, got %d", count)
	}
	if result.Outcome != OutcomeRecord {
		t.Fatalf("Expected OutcomeRecord, got %v (%q)", result.Outcome, result.Reply.Text)
	}
	record := result.Reply.Record
	if record.Name != "Penerbitan SKCK" || len(record.Requirements) != 2 {
		t.Errorf("Unexpected record: %+v", record)
	}
	if record.Location != "MPP Pandeglang, Jl. Jenderal Sudirman No. 1" {
		t.Errorf("Expected default location, got %q", record.Location)
	}
}

func TestStream_MidStreamError(t *testing.T) {
	session := &mockSession{
		fragments: []string{"Sebagian", " jawaban"},
		streamErr: errors.New("connection reset"),
	}
	m := NewManager(&mockFactory{sessions: []*mockSession{session}}, openLimiter(), nil)

	stream := m.SendStream(context.Background(), "Syarat KK?")
	var got []string
	for fragment := range stream.Fragments() {
		got = append(got, fragment)
	}
	result := stream.Result()

	if len(got) != 2 {
		t.Errorf("Expected fragments before the error to be delivered, got %q", got)
	}
	if result.Outcome != OutcomeFailure || result.Reply.Text != MsgFailure {
		t.Errorf("Expected failure apology, got %v %q", result.Outcome, result.Reply.Text)
	}
}

func TestStream_EarlyBreakStillResolves(t *testing.T) {
	session := &mockSession{fragments: []string{"a", "b", "c"}}
	m := NewManager(&mockFactory{sessions: []*mockSession{session}}, openLimiter(), nil)

	stream := m.SendStream(context.Background(), "Halo")
	for range stream.Fragments() {
		break
	}
	if stream.Text() != "a" {
		t.Errorf("Expected accumulated text %q, got %q", "a", stream.Text())
	}

	result := stream.Result()
	if result.Reply.Text != "abc" {
		t.Errorf("Expected remaining fragments to be drained, got %q", result.Reply.Text)
	}
	if again := stream.Result(); again.Reply.Text != "abc" {
		t.Errorf("Expected cached result, got %q", again.Reply.Text)
	}
}

func TestStream_CloseStopsPulling(t *testing.T) {
	session := &mockSession{fragments: []string{"a", "b", "c"}}
	m := NewManager(&mockFactory{sessions: []*mockSession{session}}, openLimiter(), nil)

	stream := m.SendStream(context.Background(), "Halo")
	for range stream.Fragments() {
		break
	}
	stream.Close()

	if session.pulled != 1 {
		t.Errorf("Expected 1 fragment pulled, got %d", session.pulled)
	}
	for range stream.Fragments() {
		t.Error("Expected no fragments after Close")
	}
}

func TestStream_RejectedIsPreResolved(t *testing.T) {
	session := &mockSession{fragments: []string{"x"}}
	m := NewManager(&mockFactory{sessions: []*mockSession{session}}, openLimiter(), nil)

	stream := m.SendStream(context.Background(), "javascript:alert(1)")
	for range stream.Fragments() {
		t.Error("Expected no fragments for a rejected message")
	}
	result := stream.Result()

	if result.Outcome != OutcomeRejected || result.Reply.Text != MsgRejected {
		t.Errorf("Expected rejection, got %v %q", result.Outcome, result.Reply.Text)
	}
	if session.streamCall != 0 {
		t.Errorf("Expected no remote stream, got %d", session.streamCall)
	}
	stream.Close()
}

func TestManager_RateLimitSpacing(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	limiter := ratelimit.New(ratelimit.WithClock(func() time.Time { return now }))
	session := &mockSession{}
	m := NewManager(&mockFactory{sessions: []*mockSession{session}}, limiter, nil)

	m.Send(context.Background(), "satu")
	if r := m.Send(context.Background(), "dua"); r.Outcome != OutcomeRateLimited {
		t.Errorf("Expected back-to-back send to be limited, got %v", r.Outcome)
	}

	now = now.Add(time.Second)
	if r := m.Send(context.Background(), "tiga"); r.Outcome != OutcomeText {
		t.Errorf("Expected spaced send to pass, got %v", r.Outcome)
	}
	if session.sendCalls != 2 {
		t.Errorf("Expected 2 remote calls, got %d", session.sendCalls)
	}
}
