package main

import (
	"embed"
	"log"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/billionterry20-eng/shu3/api"
	"github.com/billionterry20-eng/shu3/config"
	"github.com/billionterry20-eng/shu3/db"
	"github.com/billionterry20-eng/shu3/models"
	"github.com/billionterry20-eng/shu3/scheduler"
	"github.com/billionterry20-eng/shu3/storage"
	"github.com/billionterry20-eng/shu3/utils"
)

//go:embed all:web/dist
var webFS embed.FS

func main() {
	if err := utils.InitLogger(); err != nil {
		log.Fatal("❌ 日志系统初始化失败:", err)
	}
	defer utils.CloseLogger()

	cfg := config.Load()
	utils.LogInfo("========================================")
	utils.LogInfo("🚀 刷步数管理面板启动中...")
	utils.LogInfo("========================================")
	utils.LogInfo("📂 数据目录: %s", config.DataDir)
	utils.LogInfo("🌐 监听端口: %s", cfg.Port)
	utils.LogInfo("🔧 运行模式: %s", cfg.Env)

	dbPath := filepath.Join(config.DataDir, "shu3.db")
	log.Printf("💾 初始化数据库: %s", dbPath)
	if err := db.Init(dbPath); err != nil {
		log.Fatal("❌ 数据库初始化失败:", err)
	}
	defer db.Close()

	accountStorage := storage.NewSQLiteAccountStorage(db.DB)
	submitLogStorage := storage.NewSQLiteSubmitLogStorage(db.DB)

	seedDefaultAccount(accountStorage, cfg)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Println("⏰ 初始化定时任务调度器...")
	executor := scheduler.NewSubmitExecutor(accountStorage, submitLogStorage, cfg)
	stepScheduler := scheduler.NewScheduler(accountStorage, submitLogStorage, executor)
	api.InitAccountAPI(accountStorage, submitLogStorage, stepScheduler, executor, cfg)
	if err := stepScheduler.Start(); err != nil {
		log.Printf("⚠️  定时任务调度器启动失败: %v", err)
	} else {
		log.Println("✅ 定时任务调度器启动成功")
	}
	defer stepScheduler.Stop()

	r := api.SetupRouter(webFS)
	log.Println("========================================")
	log.Println("✅ 服务器启动成功！")
	log.Println("========================================")
	log.Printf("🔗 访问地址: http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("❌ 启动失败:", err)
	}
}

// seedDefaultAccount 账号表为空时插入一个默认账号，方便首次部署直接使用
func seedDefaultAccount(accountStorage storage.AccountStorage, cfg *config.Config) {
	count, err := accountStorage.Count()
	if err != nil {
		log.Printf("⚠️  账号数量查询失败: %v", err)
		return
	}
	if count > 0 {
		log.Printf("👥 数据库账号数: %d", count)
		return
	}
	acct := &models.Account{
		Name:       "默认账号",
		Phone:      cfg.DefaultPhone,
		Pwd:        cfg.DefaultPwd,
		StepNum:    cfg.DefaultSteps,
		SubmitTime: cfg.DefaultSubmitTime,
		AuthToken:  cfg.DefaultAuthToken,
		APIURL:     cfg.DefaultAPIURL,
		Enabled:    true,
	}
	if err := accountStorage.Create(acct); err != nil {
		log.Printf("⚠️  默认账号创建失败: %v", err)
		return
	}
	log.Printf("✅ 已创建默认账号: %d (%s)", acct.ID, acct.Name)
}
