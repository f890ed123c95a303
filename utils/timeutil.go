package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AppLocation 北京时间，调度与日志时间戳统一使用该时区
var AppLocation = loadLocation()

func loadLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

func Now() time.Time {
	return time.Now().In(AppLocation)
}

// ParseTimeHHMM 严格解析 HH:MM 格式，小时 0-23，分钟 0-59
func ParseTimeHHMM(hhmm string) (int, int, error) {
	hhmm = strings.TrimSpace(hhmm)
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("时间格式必须为 HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("小时必须为数字: %s", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("分钟必须为数字: %s", parts[1])
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("时间超出范围: %02d:%02d", h, m)
	}
	return h, m, nil
}

func MaskPassword(pwd string) string {
	runes := []rune(pwd)
	if len(runes) == 0 {
		return ""
	}
	if len(runes) <= 2 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:1]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1:])
}
