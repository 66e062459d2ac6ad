package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go_sitebuilder/internal/auth"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/sirupsen/logrus"
)

// maxIncremental 超过该数量时客户端应整体重新拉取
const maxIncremental = 500

// TokenVerifier 校验 token 并返回 claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// NewServer 创建 socket.io server：握手时校验 token，连接加入公司房间
func NewServer(hub *Hub, verifier TokenVerifier) *socketio.Server {
	allowOrigin := func(r *http.Request) bool { return true }
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&polling.Transport{CheckOrigin: allowOrigin},
			&websocket.Transport{CheckOrigin: allowOrigin},
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		u := s.URL()
		claims, err := verifier.Verify(context.Background(), tokenFrom(u.Query().Get("token"), s.RemoteHeader().Get("Authorization")))
		if err != nil {
			hub.log.WithError(err).WithField("remote", s.RemoteAddr().String()).Warn("Connection rejected")
			return errors.New("unauthorized")
		}

		s.SetContext(claims)
		s.Join(CompanyRoom(claims.CompanyID))
		hub.log.WithFields(logrus.Fields{
			"conn_id":    s.ID(),
			"uid":        claims.UID,
			"company_id": claims.CompanyID,
		}).Info("Client connected")

		s.Emit("connected", map[string]interface{}{"ok": true})
		return nil
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		hub.log.WithField("conn_id", s.ID()).WithField("reason", reason).Info("Client disconnected")
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		if s == nil {
			hub.log.WithError(e).Warn("Socket error")
			return
		}
		hub.log.WithError(e).WithField("conn_id", s.ID()).Warn("Socket error")
	})

	// request:layouts {lastEventId} → layouts:events
	server.OnEvent("/", "request:layouts", func(s socketio.Conn, data map[string]interface{}) {
		claims, ok := s.Context().(*auth.Claims)
		if !ok {
			s.Emit("error", map[string]interface{}{"message": "unauthorized"})
			return
		}
		s.Emit("layouts:events", hub.Replay(context.Background(), claims.CompanyID, lastEventID(data)))
	})

	hub.SetBroadcaster(server)
	return server
}

// Replay 组装增量事件响应；事件过多时 reset=true，客户端应重新拉取布局
func (h *Hub) Replay(ctx context.Context, companyID int, lastEventID int64) map[string]interface{} {
	latest, err := h.LatestEventID(ctx, companyID)
	if err != nil {
		h.log.WithError(err).Warn("Failed to query latest event")
	}

	events, err := h.IncrementalEvents(ctx, companyID, lastEventID, maxIncremental)
	if err != nil || len(events) >= maxIncremental {
		return map[string]interface{}{"reset": true, "events": []interface{}{}, "lastEventId": latest}
	}

	items := make([]map[string]interface{}, 0, len(events))
	for _, e := range events {
		var payload interface{}
		if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil {
			h.log.WithError(err).WithField("event_id", e.ID).Warn("Failed to unmarshal event payload")
			continue
		}
		items = append(items, map[string]interface{}{
			"eventId": e.ID,
			"type":    e.EventType,
			"data":    payload,
		})
	}
	return map[string]interface{}{"reset": false, "events": items, "lastEventId": latest}
}

func lastEventID(data map[string]interface{}) int64 {
	if v, ok := data["lastEventId"].(float64); ok && v > 0 {
		return int64(v)
	}
	return 0
}

// tokenFrom 优先 query token，其次 Authorization: Bearer
func tokenFrom(query, header string) string {
	if query != "" {
		return query
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// WrapWithAuth 握手请求先校验 token 再交给 socket.io
func WrapWithAuth(server *socketio.Server, verifier TokenVerifier) http.Handler {
	return wrap(server, verifier)
}

func wrap(next http.Handler, verifier TokenVerifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/socket.io/") {
			token := tokenFrom(r.URL.Query().Get("token"), r.Header.Get("Authorization"))
			if _, err := verifier.Verify(r.Context(), token); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
