package models

import (
	"testing"
)

func TestAccountPatchApply(t *testing.T) {
	acct := Account{
		Name:       "旧名字",
		Phone:      "13800000000",
		Pwd:        "oldpwd",
		StepNum:    10000,
		SubmitTime: "08:00",
		AuthToken:  "token-a",
		APIURL:     "http://a.example.com",
		Enabled:    true,
	}

	newName := "新名字"
	newStep := 20000
	disabled := false
	patch := AccountPatch{
		Name:    &newName,
		StepNum: &newStep,
		Enabled: &disabled,
	}
	patch.Apply(&acct)

	if acct.Name != "新名字" {
		t.Errorf("Name = %q, want 新名字", acct.Name)
	}
	if acct.StepNum != 20000 {
		t.Errorf("StepNum = %d, want 20000", acct.StepNum)
	}
	if acct.Enabled {
		t.Error("Enabled = true, want false")
	}
	if acct.Phone != "13800000000" || acct.Pwd != "oldpwd" || acct.SubmitTime != "08:00" {
		t.Error("untouched fields must keep their values")
	}
}

func TestAccountPatchEmptyPwdKeepsOld(t *testing.T) {
	acct := Account{Pwd: "oldpwd"}
	empty := ""
	patch := AccountPatch{Pwd: &empty}
	patch.Apply(&acct)
	if acct.Pwd != "oldpwd" {
		t.Errorf("Pwd = %q, want oldpwd (empty input means unchanged)", acct.Pwd)
	}
}

func TestAccountPatchClearsOptionalFields(t *testing.T) {
	acct := Account{
		AuthToken: "token-a",
		APIURL:    "http://a.example.com",
	}
	empty := ""
	patch := AccountPatch{AuthToken: &empty, APIURL: &empty}
	patch.Apply(&acct)
	if acct.AuthToken != "" {
		t.Errorf("AuthToken = %q, explicit empty must clear it", acct.AuthToken)
	}
	if acct.APIURL != "" {
		t.Errorf("APIURL = %q, explicit empty must clear it", acct.APIURL)
	}
}

func TestSubmitResultStatus(t *testing.T) {
	ok := SubmitResult{OK: true}
	if ok.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q", ok.Status(), StatusSuccess)
	}
	failed := SubmitResult{OK: false}
	if failed.Status() != StatusFailed {
		t.Errorf("Status() = %q, want %q", failed.Status(), StatusFailed)
	}
}
