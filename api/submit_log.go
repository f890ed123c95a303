package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/billionterry20-eng/shu3/models"
)

func GetSubmitLogs(c *gin.Context) {
	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}
	logs, err := submitLogStorage.GetRecent(limit)
	if err != nil {
		log.Printf("[Log API] Failed to get submit logs: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("获取提交日志失败: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(logs))
}

func GetAccountSubmitLogs(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("无效的账号 ID"))
		return
	}
	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}
	logs, err := submitLogStorage.GetByAccount(id, limit)
	if err != nil {
		log.Printf("[Log API] Failed to get submit logs for account %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("获取提交日志失败: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(logs))
}

func ClearSubmitLogs(c *gin.Context) {
	if err := submitLogStorage.DeleteAll(); err != nil {
		log.Printf("[Log API] Failed to clear submit logs: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("清空日志失败: "+err.Error()))
		return
	}
	log.Println("[Log API] Submit logs cleared")
	c.JSON(http.StatusOK, models.MessageResponse("日志已清空"))
}
