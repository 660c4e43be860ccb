package server

import (
	"encoding/json"
	"net/http"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"

	"bombarena/internal/transport"
)

const (
	URIWebSocket = transport.WSPath
	URIRooms     = "/rooms"
	URIRoom      = "/rooms/:id"
)

// routes HTTP 路由：房间统计，以及 ws 协议下的升级入口
func (s *GameServer) routes(ws http.Handler) *way.Router {
	router := way.NewRouter()
	router.HandleFunc(http.MethodGet, URIRooms, s.handleRooms)
	router.HandleFunc(http.MethodGet, URIRoom, s.handleRoom)
	if ws != nil {
		router.Handle(http.MethodGet, URIWebSocket, ws)
	}
	return router
}

func (s *GameServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rooms.GetRoomStats())
}

func (s *GameServer) handleRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.rooms.Get(way.Param(r.Context(), "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, room.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("写入响应失败")
	}
}
