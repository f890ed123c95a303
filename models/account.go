package models

import "time"

type Account struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Pwd        string    `json:"-"`
	PwdMasked  string    `json:"pwdMasked"`
	StepNum    int       `json:"stepNum"`
	SubmitTime string    `json:"submitTime"`
	AuthToken  string    `json:"authToken"`
	APIURL     string    `json:"apiUrl"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AccountPatch 账号更新参数，nil 表示保留原值
type AccountPatch struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Pwd        *string `json:"pwd"`
	StepNum    *int    `json:"stepNum"`
	SubmitTime *string `json:"submitTime"`
	AuthToken  *string `json:"authToken"`
	APIURL     *string `json:"apiUrl"`
	Enabled    *bool   `json:"enabled"`
}

// Apply 把补丁合并到已有账号上，字段缺省保留原值，显式传值生效。
// auth_token/api_url 传空串即清除，回落到进程默认。
// 唯一例外是密码：表单不回显密码，空串视为不修改。
func (p *AccountPatch) Apply(acct *Account) {
	if p.Name != nil {
		acct.Name = *p.Name
	}
	if p.Phone != nil {
		acct.Phone = *p.Phone
	}
	if p.Pwd != nil && *p.Pwd != "" {
		acct.Pwd = *p.Pwd
	}
	if p.StepNum != nil {
		acct.StepNum = *p.StepNum
	}
	if p.SubmitTime != nil {
		acct.SubmitTime = *p.SubmitTime
	}
	if p.AuthToken != nil {
		acct.AuthToken = *p.AuthToken
	}
	if p.APIURL != nil {
		acct.APIURL = *p.APIURL
	}
	if p.Enabled != nil {
		acct.Enabled = *p.Enabled
	}
}

func (Account) TableName() string {
	return "accounts"
}
