package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"quiz-match-service/internal/app"
	"quiz-match-service/internal/domain"
)

// WSHandler streams match results to a capture client over a websocket.
// The client sends an "observe" message whenever the on-screen question
// changes and gets back a "match" or "noMatch"; "feedback" messages record
// user corrections.
type WSHandler struct {
	service  *app.MatchService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.MatchService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type observePayload struct {
	QuestionText  string   `json:"questionText"`
	AnswerOptions []string `json:"answerOptions"`
}

type feedbackPayload struct {
	QuestionText string `json:"questionText"`
	EntryID      string `json:"entryId"`
	Correct      bool   `json:"correct"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection and runs the observe/feedback loop. A
// dedicated writer goroutine serializes all conn writes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "observe":
			var payload observePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid observe payload"}}
				continue
			}
			result, err := h.service.Match(r.Context(), domain.ObservedQuestion{
				QuestionText:  payload.QuestionText,
				AnswerOptions: payload.AnswerOptions,
			})
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			if result == nil {
				send <- outboundMessage[any]{Type: "noMatch", Payload: matchResponse{Matched: false}}
				continue
			}
			send <- outboundMessage[any]{Type: "match", Payload: matchResponseFrom(result)}
		case "feedback":
			var payload feedbackPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid feedback payload"}}
				continue
			}
			err := h.service.RecordFeedback(r.Context(), domain.ObservedQuestion{QuestionText: payload.QuestionText}, payload.EntryID, payload.Correct)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "feedbackAck", Payload: payload}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}
