package models

import "time"

const (
	RunTypeAuto   = "auto"
	RunTypeManual = "manual"
	RunTypeTest   = "test"

	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// SubmitLog 一次提交尝试的完整记录，写入后不再修改。
// 账号字段是提交时刻的快照，账号被删除或修改后日志仍然可读。
type SubmitLog struct {
	ID            int       `json:"id"`
	AccountID     int       `json:"accountId"`
	AccountName   string    `json:"accountName"`
	Phone         string    `json:"phone"`
	StepNum       int       `json:"stepNum"`
	RunType       string    `json:"runType"`
	Status        string    `json:"status"`
	HTTPStatus    *int      `json:"httpStatus"`
	ResponseCode  *int      `json:"responseCode"`
	ResponseMsg   *string   `json:"responseMsg"`
	ResponseText  string    `json:"responseText"`
	ErrorText     *string   `json:"errorText"`
	SubmittedAt   time.Time `json:"submittedAt"`
	SubmittedDate string    `json:"submittedDate"`
	DurationMs    int       `json:"durationMs"`
}

// SubmitResult 单次提交的结果，ok 为总体成败
type SubmitResult struct {
	OK           bool    `json:"ok"`
	HTTPStatus   *int    `json:"httpStatus"`
	ResponseCode *int    `json:"responseCode"`
	ResponseMsg  *string `json:"responseMsg"`
	ResponseText string  `json:"responseText"`
	ErrorText    *string `json:"errorText"`
}

func (r *SubmitResult) Status() string {
	if r.OK {
		return StatusSuccess
	}
	return StatusFailed
}

func (SubmitLog) TableName() string {
	return "submit_logs"
}
