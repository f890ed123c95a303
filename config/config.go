package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	Env               string
	DefaultAPIURL     string
	DefaultReferer    string
	DefaultOrigin     string
	DefaultAuthToken  string
	DefaultPhone      string
	DefaultPwd        string
	DefaultSteps      int
	DefaultSubmitTime string
	RequestTimeout    int
}

func Load() *Config {
	_ = godotenv.Load()

	steps := 89888
	if stepsStr := getEnv("DEFAULT_STEPS", "89888"); stepsStr != "" {
		if val, err := strconv.Atoi(stepsStr); err == nil && val > 0 {
			steps = val
		}
	}

	timeout := 20
	if timeoutStr := getEnv("REQUEST_TIMEOUT", "20"); timeoutStr != "" {
		if val, err := strconv.Atoi(timeoutStr); err == nil && val > 0 {
			timeout = val
		}
	}

	return &Config{
		Port:              getEnv("PORT", "8800"),
		Env:               getEnv("ENV", "development"),
		DefaultAPIURL:     getEnv("STEP_API_URL", "http://8.140.250.130/king/api/step"),
		DefaultReferer:    getEnv("STEP_REFERER", "http://8.140.250.130/bushu/"),
		DefaultOrigin:     getEnv("STEP_ORIGIN", "http://8.140.250.130"),
		DefaultAuthToken:  getEnv("STEP_AUTH_TOKEN", "5aa77abb20f11a5e7f2440747a655a55"),
		DefaultPhone:      getEnv("DEFAULT_PHONE", "Tbh2356@163.com"),
		DefaultPwd:        getEnv("DEFAULT_PWD", "112233qq"),
		DefaultSteps:      steps,
		DefaultSubmitTime: getEnv("DEFAULT_SUBMIT_TIME", "00:05"),
		RequestTimeout:    timeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
