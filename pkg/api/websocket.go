package api

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"voice-insight/pkg/logger"
	"voice-insight/pkg/models"
	"voice-insight/pkg/pipeline"
)

// analyzeFailedMessage is sent for rejected clips; the cause is only logged.
const analyzeFailedMessage = "could not analyze the submitted audio"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketMessage is exchanged in both directions on /ws. An analyze
// request carries one complete clip in Data, base64 encoded on the wire.
type WebSocketMessage struct {
	Type       string           `json:"type"`
	Filename   string           `json:"filename,omitempty"`
	Data       []byte           `json:"data,omitempty"`
	AnalysisID string           `json:"analysis_id,omitempty"`
	Analysis   *models.Analysis `json:"analysis,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// WebSocketHandler returns a handler that accepts clips of at most
// maxClipBytes per message.
func (h *Handlers) WebSocketHandler(maxClipBytes int64) http.HandlerFunc {
	// base64 plus the JSON envelope
	readLimit := maxClipBytes/3*4 + 4096

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
			return
		}
		defer conn.Close()
		conn.SetReadLimit(readLimit)

		ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
		defer cancel()

		for {
			var msg WebSocketMessage
			if err := conn.ReadJSON(&msg); err != nil {
				break
			}

			switch msg.Type {
			case "analyze":
				h.handleAnalyze(ctx, conn, &msg)
			case "ping":
				h.sendMessage(ctx, conn, WebSocketMessage{Type: "pong"})
			default:
				h.sendMessage(ctx, conn, WebSocketMessage{
					Type:  "error",
					Error: "Unknown message type",
				})
			}
		}
	}
}

func (h *Handlers) handleAnalyze(ctx context.Context, conn *websocket.Conn, msg *WebSocketMessage) {
	if len(msg.Data) == 0 {
		h.sendMessage(ctx, conn, WebSocketMessage{
			Type:  "error",
			Error: "data is required",
		})
		return
	}
	filename := msg.Filename
	if filename == "" {
		filename = "recording.wav"
	}

	clip := models.NewUploadedClip(filename, msg.Data)
	h.log.Info(ctx, "websocket clip received",
		logger.String("analysis_id", clip.ID), logger.Int("size", clip.Size))

	analysis, err := h.pipeline.Process(ctx, clip)
	if err != nil {
		reply := WebSocketMessage{Type: "error", Error: "internal server error"}
		if pipeline.IsClientError(err) {
			reply.Error = analyzeFailedMessage
			h.log.Warn(ctx, "websocket clip rejected",
				logger.String("analysis_id", clip.ID), logger.Error(err))
		}
		if analysis != nil {
			reply.AnalysisID = analysis.ID
		}
		h.sendMessage(ctx, conn, reply)
		return
	}

	h.sendMessage(ctx, conn, WebSocketMessage{
		Type:       "analysis_complete",
		AnalysisID: analysis.ID,
		Analysis:   analysis,
	})
}

func (h *Handlers) sendMessage(ctx context.Context, conn *websocket.Conn, msg WebSocketMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Warn(ctx, "websocket write failed", logger.String("type", msg.Type), logger.Error(err))
	}
}
