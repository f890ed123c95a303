package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/billionterry20-eng/shu3/utils"
	wshandler "github.com/billionterry20-eng/shu3/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketManager struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
}

var wsManager = &WebSocketManager{
	clients:    make(map[*websocket.Conn]bool),
	broadcast:  make(chan []byte, 256),
	register:   make(chan *websocket.Conn),
	unregister: make(chan *websocket.Conn),
}

func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client] = true
			count := len(manager.clients)
			manager.mu.Unlock()
			log.Printf("[WebSocket] 新客户端连接，当前连接数: %d", count)
		case client := <-manager.unregister:
			manager.mu.Lock()
			if _, ok := manager.clients[client]; ok {
				delete(manager.clients, client)
				client.Close()
			}
			count := len(manager.clients)
			manager.mu.Unlock()
			log.Printf("[WebSocket] 客户端断开，当前连接数: %d", count)
		case message := <-manager.broadcast:
			manager.mu.Lock()
			for client := range manager.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Printf("[WebSocket] 发送消息失败: %v", err)
					client.Close()
					delete(manager.clients, client)
				}
			}
			manager.mu.Unlock()
		}
	}
}

// HandleWebSocket 提交结果实时推送通道，每次提交完成后广播一条摘要
func HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WebSocket] 升级失败: %v", err)
		return
	}
	wsManager.register <- conn
	go func() {
		defer func() {
			wsManager.unregister <- conn
		}()
		for {
			messageType, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if messageType == websocket.CloseMessage {
				break
			}
		}
	}()
}

func BroadcastMessage(message []byte) {
	select {
	case wsManager.broadcast <- message:
	default:
		log.Printf("[WebSocket] 广播通道已满，消息被丢弃")
	}
}

func init() {
	go wsManager.Run()
	utils.BroadcastSubmitResult = func(message string) {
		BroadcastMessage([]byte(message))
	}
}

func HandlePanelLogsWS(c *gin.Context) {
	wshandler.HandlePanelLogs(c)
}
