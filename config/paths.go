package config

import (
	"os"
	"path/filepath"
)

var DataDir string

func init() {
	DataDir = os.Getenv("DATA_DIR")
	if DataDir == "" {
		execPath, err := os.Executable()
		if err != nil {
			DataDir, _ = os.Getwd()
		} else {
			DataDir = filepath.Dir(execPath)
		}
		DataDir = filepath.Join(DataDir, "data")
	}
	if err := os.MkdirAll(DataDir, 0755); err != nil {
		panic("无法创建数据目录: " + err.Error())
	}
}
