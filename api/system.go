package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billionterry20-eng/shu3/models"
	"github.com/billionterry20-eng/shu3/utils"
)

func HealthCheck(c *gin.Context) {
	running := stepScheduler.Running()
	jobCount := 0
	if running {
		jobCount = stepScheduler.JobCount()
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":                true,
		"time":              utils.Now().Format("2006-01-02T15:04:05"),
		"scheduler_running": running,
		"job_count":         jobCount,
	})
}

func ReloadJobs(c *gin.Context) {
	if err := stepScheduler.ReloadAll(); err != nil {
		log.Printf("[System API] Failed to reload jobs: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("重载失败: "+err.Error()))
		return
	}
	log.Printf("[System API] All jobs reloaded, %d triggers active", stepScheduler.JobCount())
	c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
		"message":  "所有定时任务已重载",
		"jobCount": stepScheduler.JobCount(),
	}))
}
