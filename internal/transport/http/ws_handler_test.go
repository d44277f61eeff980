package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialTestWS(t *testing.T) *websocket.Conn {
	t.Helper()
	h := NewWSHandler(newTestService())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func sendWS(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(inboundMessage{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readWS(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	var envelope wsEnvelope
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("read: %v", err)
	}
	return envelope
}

func TestWSObserveMatch(t *testing.T) {
	conn := dialTestWS(t)

	sendWS(t, conn, "observe", observePayload{
		QuestionText:  "What is the mean of the sample?",
		AnswerOptions: []string{"3", "4", "5", "6"},
	})

	envelope := readWS(t, conn)
	if envelope.Type != "match" {
		t.Fatalf("type = %q, want match", envelope.Type)
	}
	var resp matchResponse
	if err := json.Unmarshal(envelope.Payload, &resp); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !resp.Matched || resp.Entry == nil || resp.Entry.ID != "entry-1" {
		t.Fatalf("payload = %+v, want entry-1", resp)
	}
	if len(resp.CorrectAnswers) != 1 || resp.CorrectAnswers[0] != "4" {
		t.Fatalf("correctAnswers = %v, want [4]", resp.CorrectAnswers)
	}
}

func TestWSObserveNoMatch(t *testing.T) {
	conn := dialTestWS(t)

	sendWS(t, conn, "observe", observePayload{
		QuestionText: "something entirely different about geology",
	})

	envelope := readWS(t, conn)
	if envelope.Type != "noMatch" {
		t.Fatalf("type = %q, want noMatch", envelope.Type)
	}
}

func TestWSFeedbackAck(t *testing.T) {
	conn := dialTestWS(t)

	sendWS(t, conn, "feedback", feedbackPayload{
		QuestionText: "What is the mean of the sample?",
		EntryID:      "entry-1",
		Correct:      true,
	})

	envelope := readWS(t, conn)
	if envelope.Type != "feedbackAck" {
		t.Fatalf("type = %q, want feedbackAck", envelope.Type)
	}
}

func TestWSInvalidFeedbackReportsError(t *testing.T) {
	conn := dialTestWS(t)

	sendWS(t, conn, "feedback", feedbackPayload{EntryID: "entry-1", Correct: true})

	envelope := readWS(t, conn)
	if envelope.Type != "error" {
		t.Fatalf("type = %q, want error", envelope.Type)
	}
}

func TestWSUnsupportedMessageType(t *testing.T) {
	conn := dialTestWS(t)

	sendWS(t, conn, "ping", struct{}{})

	envelope := readWS(t, conn)
	if envelope.Type != "error" {
		t.Fatalf("type = %q, want error", envelope.Type)
	}
}
