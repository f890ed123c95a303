package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/billionterry20-eng/shu3/config"
	"github.com/billionterry20-eng/shu3/models"
	"github.com/billionterry20-eng/shu3/storage"
	"github.com/billionterry20-eng/shu3/utils"
)

// 响应原文最多保留 5000 字符，防止日志行无限膨胀
const maxResponseTextLen = 5000

type SubmitExecutor struct {
	accountStorage storage.AccountStorage
	logStorage     storage.SubmitLogStorage
	cfg            *config.Config
	client         *http.Client
}

func NewSubmitExecutor(accountStorage storage.AccountStorage, logStorage storage.SubmitLogStorage, cfg *config.Config) *SubmitExecutor {
	return &SubmitExecutor{
		accountStorage: accountStorage,
		logStorage:     logStorage,
		cfg:            cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
	}
}

// Submit 为指定账号执行一次提交，无论成败都会写入一条提交日志。
// 只有账号不存在时返回错误，此时不写日志，由调用方决定如何处理。
func (e *SubmitExecutor) Submit(accountID int, runType string) (*models.SubmitResult, error) {
	acct, err := e.accountStorage.GetByID(accountID)
	if err != nil {
		return nil, fmt.Errorf("账号不存在: %d", accountID)
	}

	started := time.Now()
	result := e.doRequest(acct)
	durationMs := int(time.Since(started).Milliseconds())

	e.WriteLog(acct, runType, durationMs, result)
	return result, nil
}

func (e *SubmitExecutor) doRequest(acct *models.Account) *models.SubmitResult {
	result := &models.SubmitResult{}

	apiURL := acct.APIURL
	if apiURL == "" {
		apiURL = e.cfg.DefaultAPIURL
	}
	form := url.Values{
		"phone": {acct.Phone},
		"pwd":   {acct.Pwd},
		"num":   {strconv.Itoa(acct.StepNum)},
	}

	req, err := http.NewRequest(http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		errText := err.Error()
		result.ErrorText = &errText
		return result
	}
	for key, value := range e.buildHeaders(acct) {
		req.Header.Set(key, value)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		errText := err.Error()
		result.ErrorText = &errText
		return result
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	result.HTTPStatus = &status

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errText := fmt.Sprintf("读取响应失败: %v", err)
		result.ErrorText = &errText
		return result
	}
	text := strings.TrimSpace(string(body))
	result.ResponseText = truncateText(text, maxResponseTextLen)

	var payload struct {
		Code *int    `json:"code"`
		Msg  *string `json:"msg"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		result.ResponseCode = payload.Code
		result.ResponseMsg = payload.Msg
		result.OK = status == http.StatusOK && payload.Code != nil && *payload.Code == 200
	} else {
		// 接口偶尔返回非标准 JSON，退化为按 HTTP 200 加关键字判断
		result.OK = status == http.StatusOK && strings.Contains(strings.ToLower(text), "success")
	}
	return result
}

// buildHeaders 模拟浏览器请求头，time 头为当前毫秒时间戳
func (e *SubmitExecutor) buildHeaders(acct *models.Account) map[string]string {
	authToken := acct.AuthToken
	if authToken == "" {
		authToken = e.cfg.DefaultAuthToken
	}
	return map[string]string{
		"Accept":           "*/*",
		"Authorization":    authToken,
		"X-Requested-With": "XMLHttpRequest",
		"time":             strconv.FormatInt(time.Now().UnixMilli(), 10),
		"Accept-Language":  "zh-TW,zh-Hant;q=0.9",
		"Accept-Encoding":  "gzip, deflate",
		"Content-Type":     "application/x-www-form-urlencoded; charset=UTF-8",
		"Origin":           e.cfg.DefaultOrigin,
		"User-Agent": "Mozilla/5.0 (iPhone; CPU iPhone OS 17_6_1 like Mac OS X) " +
			"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
		"Referer":    e.cfg.DefaultReferer,
		"Connection": "keep-alive",
	}
}

// WriteLog 按账号快照写入一条提交日志，失败只记面板日志，不影响本次提交结果
func (e *SubmitExecutor) WriteLog(acct *models.Account, runType string, durationMs int, result *models.SubmitResult) {
	now := utils.Now()
	entry := &models.SubmitLog{
		AccountID:     acct.ID,
		AccountName:   acct.Name,
		Phone:         acct.Phone,
		StepNum:       acct.StepNum,
		RunType:       runType,
		Status:        result.Status(),
		HTTPStatus:    result.HTTPStatus,
		ResponseCode:  result.ResponseCode,
		ResponseMsg:   result.ResponseMsg,
		ResponseText:  result.ResponseText,
		ErrorText:     result.ErrorText,
		SubmittedAt:   now,
		SubmittedDate: now.Format("2006-01-02"),
		DurationMs:    durationMs,
	}
	if err := e.logStorage.Create(entry); err != nil {
		log.Printf("[Executor] Failed to write submit log for account %d: %v", acct.ID, err)
	}
	broadcastResult(entry)
}

func broadcastResult(entry *models.SubmitLog) {
	if utils.BroadcastSubmitResult == nil {
		return
	}
	msg := map[string]interface{}{
		"type":        "submit",
		"accountId":   entry.AccountID,
		"accountName": entry.AccountName,
		"runType":     entry.RunType,
		"status":      entry.Status,
		"time":        entry.SubmittedAt.Format("15:04:05"),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	utils.BroadcastSubmitResult(string(data))
}

func truncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
