package transcription

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
)

// WSRegistry tracks websocket connections subscribed to job ids.
// A client sends the job ID as a text message after connecting.
type WSRegistry struct {
	idConnectionMap map[string]map[*websocket.Conn]bool
	connectionIDMap map[*websocket.Conn]string
	lock            sync.Mutex
}

// NewWSRegistry creates the websocket connection registry
func NewWSRegistry() *WSRegistry {
	return &WSRegistry{idConnectionMap: make(map[string]map[*websocket.Conn]bool),
		connectionIDMap: make(map[*websocket.Conn]string)}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

type websocketHandler struct {
	data *ServiceData
}

func (h websocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("ws request from %s", r.Host)

	c, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "Can not init ws connection", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	go h.data.WSRegistry.handleConnection(c)
}

func (reg *WSRegistry) handleConnection(conn *websocket.Conn) {
	defer reg.deleteConnection(conn)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}
		reg.saveConnection(conn, string(message))
	}
	cmdapp.Log.Debugf("handleConnection finish")
}

func (reg *WSRegistry) deleteConnection(conn *websocket.Conn) {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	defer conn.Close()
	reg.dropNoSync(conn)
	delete(reg.connectionIDMap, conn)
	cmdapp.Log.Debugf("deleteConnection finish: %d", len(reg.connectionIDMap))
}

func (reg *WSRegistry) saveConnection(conn *websocket.Conn, id string) {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	reg.dropNoSync(conn)
	reg.connectionIDMap[conn] = id
	conns := reg.idConnectionMap[id]
	if conns == nil {
		conns = make(map[*websocket.Conn]bool)
		reg.idConnectionMap[id] = conns
	}
	conns[conn] = true
	cmdapp.Log.Debugf("saveConnection finish: %d", len(reg.connectionIDMap))
}

func (reg *WSRegistry) dropNoSync(conn *websocket.Conn) {
	idOld, found := reg.connectionIDMap[conn]
	if found {
		delete(reg.idConnectionMap[idOld], conn)
		if len(reg.idConnectionMap[idOld]) == 0 {
			delete(reg.idConnectionMap, idOld)
		}
	}
}

// Listener returns a progress hub listener pushing snapshots to subscribed connections
func (reg *WSRegistry) Listener() func(job.Snapshot) {
	return func(sn job.Snapshot) {
		reg.lock.Lock()
		conns := make([]*websocket.Conn, 0, len(reg.idConnectionMap[sn.ID]))
		for c := range reg.idConnectionMap[sn.ID] {
			conns = append(conns, c)
		}
		reg.lock.Unlock()
		for _, c := range conns {
			if err := c.WriteJSON(toResult(sn)); err != nil {
				cmdapp.Log.Error(err)
			}
		}
	}
}
