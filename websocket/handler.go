package websocket

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hpcloud/tail"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type LogClient struct {
	conn *websocket.Conn
	send chan []byte
	tail *tail.Tail
	mu   sync.Mutex
}

var (
	logClients   = make(map[*LogClient]bool)
	logClientsMu sync.RWMutex
)

const panelLogFile = "logs/panel.log"

// HandlePanelLogs 实时推送面板日志，先发最近历史再跟踪新增行
func HandlePanelLogs(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WebSocket] Failed to upgrade connection: %v", err)
		return
	}
	client := &LogClient{
		conn: conn,
		send: make(chan []byte, 256),
	}
	logClientsMu.Lock()
	logClients[client] = true
	logClientsMu.Unlock()
	log.Println("[WebSocket] Client connected to panel logs")

	welcomeMsg := map[string]interface{}{
		"type":    "connected",
		"message": "📡 已连接到面板日志流",
		"time":    time.Now().Format("2006-01-02 15:04:05"),
	}
	data, _ := json.Marshal(welcomeMsg)
	conn.WriteMessage(websocket.TextMessage, data)

	go client.writePump()
	go client.tailLogs()
	client.readPump()
}

func (c *LogClient) readPump() {
	defer func() {
		logClientsMu.Lock()
		delete(logClients, c)
		logClientsMu.Unlock()
		c.mu.Lock()
		if c.tail != nil {
			c.tail.Stop()
		}
		c.mu.Unlock()
		c.conn.Close()
		log.Println("[WebSocket] Client disconnected from panel logs")
	}()
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WebSocket] Read error: %v", err)
			}
			break
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg["type"] == "ping" {
			pongMsg := map[string]interface{}{
				"type": "pong",
				"time": time.Now().Format("2006-01-02 15:04:05"),
			}
			data, _ := json.Marshal(pongMsg)
			c.send <- data
		}
	}
}

func (c *LogClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *LogClient) tailLogs() {
	if _, err := os.Stat(panelLogFile); os.IsNotExist(err) {
		infoMsg := map[string]interface{}{
			"type":    "info",
			"message": "⏳ 暂无面板日志",
			"time":    time.Now().Format("15:04:05"),
		}
		data, _ := json.Marshal(infoMsg)
		c.send <- data
		return
	}
	c.sendHistoryLogs(panelLogFile)
	t, err := tail.TailFile(panelLogFile, tail.Config{
		Follow: true,
		ReOpen: true,
		Poll:   true,
		Location: &tail.SeekInfo{
			Offset: 0,
			Whence: io.SeekEnd,
		},
	})
	if err != nil {
		log.Printf("[WebSocket] Failed to tail log file: %v", err)
		return
	}
	c.mu.Lock()
	c.tail = t
	c.mu.Unlock()
	for line := range t.Lines {
		if line.Err != nil {
			log.Printf("[WebSocket] Error reading log line: %v", line.Err)
			continue
		}
		logMsg := map[string]interface{}{
			"type":    "log",
			"message": line.Text,
			"time":    time.Now().Format("15:04:05"),
		}
		data, _ := json.Marshal(logMsg)
		select {
		case c.send <- data:
		default:
			log.Println("[WebSocket] Send buffer full, dropping log line")
		}
	}
}

func (c *LogClient) sendHistoryLogs(logFile string) {
	file, err := os.Open(logFile)
	if err != nil {
		return
	}
	defer file.Close()
	lines := []string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > 100 {
			lines = lines[1:]
		}
	}
	for _, line := range lines {
		logMsg := map[string]interface{}{
			"type":    "log",
			"message": line,
			"time":    time.Now().Format("15:04:05"),
		}
		data, _ := json.Marshal(logMsg)
		select {
		case c.send <- data:
		default:
		}
	}
}
