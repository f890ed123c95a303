package api

import (
	"bufio"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/billionterry20-eng/shu3/models"
)

func GetPanelLogs(c *gin.Context) {
	lines := c.DefaultQuery("lines", "500")
	logFile := "logs/panel.log"
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"logs": []string{"No panel logs yet"},
		}))
		return
	}
	logs, err := readLastNLines(logFile, lines)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("读取面板日志失败"))
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
		"logs": logs,
	}))
}

func readLastNLines(filePath, linesStr string) ([]string, error) {
	n, err := strconv.Atoi(linesStr)
	if err != nil || n <= 0 {
		n = 500
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, scanner.Err()
}
