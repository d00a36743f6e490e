package ws

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/reelboard/reelboard/internal/auth"
)

// Handler upgrades authenticated HTTP requests to relay connections.
type Handler struct {
	hub      *Hub
	auth     *auth.Authenticator
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates the WebSocket endpoint handler. allowedOrigins
// drives the cross-origin check; "*" admits any origin.
func NewHandler(hub *Hub, authn *auth.Authenticator, allowedOrigins []string, logger zerolog.Logger) *Handler {
	h := &Handler{
		hub:    hub,
		auth:   authn,
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// ServeWS is the GET /ws endpoint. The bearer credential travels in
// the handshake: ?token= or an Authorization header. Verification
// happens before the upgrade; a failed check refuses the connection
// and nothing is registered.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.auth.Verify(bearerToken(r))
	if err != nil {
		jsonError(w, http.StatusUnauthorized, "invalid or missing credential")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(h.hub, conn, identity, h.logger)
	h.hub.Admit(client)

	go client.writePump()
	go client.readPump()
}

// bearerToken extracts the credential from the handshake.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := false
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
		set[origin] = true
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients don't send Origin
			return true
		}
		return set[origin]
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
