package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/billionterry20-eng/shu3/config"
	"github.com/billionterry20-eng/shu3/models"
	"github.com/billionterry20-eng/shu3/scheduler"
	"github.com/billionterry20-eng/shu3/storage"
	"github.com/billionterry20-eng/shu3/utils"
)

var (
	accountStorage   storage.AccountStorage
	submitLogStorage storage.SubmitLogStorage
	stepScheduler    *scheduler.Scheduler
	submitExecutor   *scheduler.SubmitExecutor
	appConfig        *config.Config
)

func InitAccountAPI(as storage.AccountStorage, ls storage.SubmitLogStorage, sch *scheduler.Scheduler, exec *scheduler.SubmitExecutor, cfg *config.Config) {
	accountStorage = as
	submitLogStorage = ls
	stepScheduler = sch
	submitExecutor = exec
	appConfig = cfg
}

func maskAccount(acct *models.Account) {
	acct.PwdMasked = utils.MaskPassword(acct.Pwd)
}

func GetAccounts(c *gin.Context) {
	accounts, err := accountStorage.GetAll()
	if err != nil {
		log.Printf("[Account API] Failed to get accounts: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("获取账号列表失败: "+err.Error()))
		return
	}
	for i := range accounts {
		maskAccount(&accounts[i])
	}
	c.JSON(http.StatusOK, models.SuccessResponse(accounts))
}

func GetAccount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("无效的账号 ID"))
		return
	}
	acct, err := accountStorage.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse("账号不存在"))
		return
	}
	maskAccount(acct)
	c.JSON(http.StatusOK, models.SuccessResponse(acct))
}

func CreateAccount(c *gin.Context) {
	var req struct {
		Name       string `json:"name"`
		Phone      string `json:"phone" binding:"required"`
		Pwd        string `json:"pwd" binding:"required"`
		StepNum    int    `json:"stepNum"`
		SubmitTime string `json:"submitTime"`
		AuthToken  string `json:"authToken"`
		APIURL     string `json:"apiUrl"`
		Enabled    *bool  `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("账号和密码不能为空"))
		return
	}
	if req.Name == "" {
		req.Name = "未命名账号"
	}
	if req.StepNum == 0 {
		req.StepNum = appConfig.DefaultSteps
	}
	if req.SubmitTime == "" {
		req.SubmitTime = appConfig.DefaultSubmitTime
	}
	if req.StepNum <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("步数必须大于 0"))
		return
	}
	if _, _, err := utils.ParseTimeHHMM(req.SubmitTime); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("提交时间无效: "+err.Error()))
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	acct := &models.Account{
		Name:       req.Name,
		Phone:      req.Phone,
		Pwd:        req.Pwd,
		StepNum:    req.StepNum,
		SubmitTime: req.SubmitTime,
		AuthToken:  req.AuthToken,
		APIURL:     req.APIURL,
		Enabled:    enabled,
	}
	if err := accountStorage.Create(acct); err != nil {
		log.Printf("[Account API] Failed to create account: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("新增账号失败: "+err.Error()))
		return
	}
	if err := stepScheduler.ScheduleAccount(acct); err != nil {
		log.Printf("[Account API] Failed to schedule account %d: %v", acct.ID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("安装定时任务失败: "+err.Error()))
		return
	}
	log.Printf("[Account API] Account created successfully: %d (%s)", acct.ID, acct.Name)
	maskAccount(acct)
	c.JSON(http.StatusOK, models.SuccessResponse(acct))
}

func UpdateAccount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("无效的账号 ID"))
		return
	}
	var patch models.AccountPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("参数错误: "+err.Error()))
		return
	}
	acct, err := accountStorage.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse("账号不存在"))
		return
	}
	patch.Apply(acct)
	if acct.Phone == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("账号不能为空"))
		return
	}
	if acct.StepNum <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("步数必须大于 0"))
		return
	}
	if _, _, err := utils.ParseTimeHHMM(acct.SubmitTime); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("提交时间无效: "+err.Error()))
		return
	}
	if err := accountStorage.Update(acct); err != nil {
		log.Printf("[Account API] Failed to update account: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("更新账号失败: "+err.Error()))
		return
	}
	// 配置是否变化都重装一次触发器，保证任务与最新配置一致
	if err := stepScheduler.ScheduleAccount(acct); err != nil {
		log.Printf("[Account API] Failed to reschedule account %d: %v", acct.ID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("重载定时任务失败: "+err.Error()))
		return
	}
	log.Printf("[Account API] Account updated successfully: %d (%s)", acct.ID, acct.Name)
	maskAccount(acct)
	c.JSON(http.StatusOK, models.SuccessResponse(acct))
}

func DeleteAccount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("无效的账号 ID"))
		return
	}
	if err := accountStorage.Delete(id); err != nil {
		log.Printf("[Account API] Failed to delete account: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("删除账号失败: "+err.Error()))
		return
	}
	stepScheduler.RemoveAccount(id)
	log.Printf("[Account API] Account deleted successfully: %d", id)
	c.JSON(http.StatusOK, models.MessageResponse("账号已删除"))
}

func ToggleAccount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("无效的账号 ID"))
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("参数错误: "+err.Error()))
		return
	}
	acct, err := accountStorage.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse("账号不存在"))
		return
	}
	acct.Enabled = req.Enabled
	if err := accountStorage.Update(acct); err != nil {
		log.Printf("[Account API] Failed to update account: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("更新账号失败: "+err.Error()))
		return
	}
	if err := stepScheduler.ScheduleAccount(acct); err != nil {
		log.Printf("[Account API] Failed to reschedule account %d: %v", acct.ID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("重载定时任务失败: "+err.Error()))
		return
	}
	status := "禁用"
	if req.Enabled {
		status = "启用"
	}
	log.Printf("[Account API] Account %s successfully: %d", status, id)
	c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
		"enabled": req.Enabled,
		"message": "账号已" + status,
	}))
}

func SubmitAccount(c *gin.Context) {
	submitForAccount(c, models.RunTypeManual)
}

func TestAccount(c *gin.Context) {
	// 与手动提交行为一致，run_type 单独记录便于排查
	submitForAccount(c, models.RunTypeTest)
}

func submitForAccount(c *gin.Context, runType string) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("无效的账号 ID"))
		return
	}
	result, err := submitExecutor.Submit(id, runType)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse("账号不存在"))
		return
	}
	if result.OK {
		c.JSON(http.StatusOK, models.SuccessResponse(result))
		return
	}
	c.JSON(http.StatusOK, models.Response{
		Success: false,
		Data:    result,
		Error:   "提交失败",
	})
}
