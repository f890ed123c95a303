package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/billionterry20-eng/shu3/models"
	"github.com/billionterry20-eng/shu3/storage"
	"github.com/billionterry20-eng/shu3/utils"
)

const (
	// 进程重启后允许补跑的时间窗口，超出则本日自动提交静默跳过
	misfireGrace = 5 * time.Minute
	// 同时执行的提交任务上限
	maxWorkers = 20
)

type Scheduler struct {
	cron           *cron.Cron
	accountStorage storage.AccountStorage
	logStorage     storage.SubmitLogStorage
	executor       *SubmitExecutor
	entryMap       map[int]cron.EntryID
	// 在途补跑标记，日志行落库前挡住重复的补跑检查
	catchUps map[int]bool
	mu       sync.RWMutex
	running  bool
}

func NewScheduler(accountStorage storage.AccountStorage, logStorage storage.SubmitLogStorage, executor *SubmitExecutor) *Scheduler {
	sem := make(chan struct{}, maxWorkers)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(utils.AppLocation),
			cron.WithChain(
				cron.SkipIfStillRunning(cron.DiscardLogger),
				limitWorkers(sem),
			),
		),
		accountStorage: accountStorage,
		logStorage:     logStorage,
		executor:       executor,
		entryMap:       make(map[int]cron.EntryID),
		catchUps:       make(map[int]bool),
	}
}

// limitWorkers 限制同时执行的任务数，不同账号并行、总量有界
func limitWorkers(sem chan struct{}) cron.JobWrapper {
	return func(job cron.Job) cron.Job {
		return cron.FuncJob(func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			job.Run()
		})
	}
}

func (s *Scheduler) Start() error {
	log.Println("[Scheduler] Starting scheduler...")
	accounts, err := s.accountStorage.GetEnabled()
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	log.Printf("[Scheduler] Loaded %d enabled accounts", len(accounts))
	for i := range accounts {
		if err := s.ScheduleAccount(&accounts[i]); err != nil {
			log.Printf("[Scheduler] Failed to schedule account %d: %v", accounts[i].ID, err)
		}
	}
	s.cron.Start()
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.catchUpMissed()
	log.Println("[Scheduler] Scheduler started successfully")
	return nil
}

// Stop 停止接收新的触发，等待执行中的提交结束
func (s *Scheduler) Stop() {
	log.Println("[Scheduler] Stopping scheduler...")
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	log.Println("[Scheduler] Scheduler stopped")
}

// ScheduleAccount 按账号最新配置重建触发器：先删旧任务，启用时再装新任务。
// 重复调用结果一致，每个账号最多一个触发器。
func (s *Scheduler) ScheduleAccount(acct *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, exists := s.entryMap[acct.ID]; exists {
		s.cron.Remove(entryID)
		delete(s.entryMap, acct.ID)
	}
	if !acct.Enabled {
		log.Printf("[Scheduler] Account %d disabled, no trigger installed", acct.ID)
		return nil
	}
	h, m, err := utils.ParseTimeHHMM(acct.SubmitTime)
	if err != nil {
		return fmt.Errorf("提交时间无效，任务未安装: %w", err)
	}
	accountID := acct.ID
	spec := fmt.Sprintf("%d %d * * *", m, h)
	entryID, err := s.cron.AddFunc(spec, func() {
		s.runJob(accountID)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryMap[acct.ID] = entryID
	log.Printf("[Scheduler] Scheduled account %d (%s) daily at %02d:%02d", acct.ID, acct.Name, h, m)
	return nil
}

// RemoveAccount 删除账号的触发器，任务不存在视为成功
func (s *Scheduler) RemoveAccount(accountID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, exists := s.entryMap[accountID]; exists {
		s.cron.Remove(entryID)
		delete(s.entryMap, accountID)
		log.Printf("[Scheduler] Removed trigger for account %d", accountID)
	}
}

// ReloadAll 丢弃全部触发器后按账号表重建，反复调用收敛到启用账号数
func (s *Scheduler) ReloadAll() error {
	s.mu.Lock()
	for accountID, entryID := range s.entryMap {
		s.cron.Remove(entryID)
		delete(s.entryMap, accountID)
	}
	s.mu.Unlock()

	accounts, err := s.accountStorage.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	for i := range accounts {
		if err := s.ScheduleAccount(&accounts[i]); err != nil {
			log.Printf("[Scheduler] Failed to schedule account %d: %v", accounts[i].ID, err)
		}
	}
	log.Printf("[Scheduler] Reloaded all jobs, %d triggers active", s.JobCount())
	s.catchUpMissed()
	return nil
}

func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entryMap)
}

// runJob 定时触发的执行入口，任何失败都不允许逃逸到 cron 运行器
func (s *Scheduler) runJob(accountID int) {
	defer func() {
		if r := recover(); r != nil {
			s.recordJobFailure(accountID, fmt.Sprintf("scheduler job panic: %v", r))
		}
	}()
	result, err := s.executor.Submit(accountID, models.RunTypeAuto)
	if err != nil {
		s.recordJobFailure(accountID, fmt.Sprintf("scheduler job exception: %v", err))
		return
	}
	if result.OK {
		log.Printf("[Scheduler] Account %d auto submit succeeded", accountID)
	} else {
		log.Printf("[Scheduler] Account %d auto submit failed", accountID)
	}
}

// recordJobFailure 尽量把失败写入提交日志；账号已被删除时无快照可用，丢弃
func (s *Scheduler) recordJobFailure(accountID int, errText string) {
	log.Printf("[Scheduler] Job failure for account %d: %s", accountID, errText)
	acct, err := s.accountStorage.GetByID(accountID)
	if err != nil {
		log.Printf("[Scheduler] Account %d no longer exists, failure record dropped", accountID)
		return
	}
	result := &models.SubmitResult{OK: false, ErrorText: &errText}
	s.executor.WriteLog(acct, models.RunTypeAuto, 0, result)
}

// catchUpMissed 进程不在线时错过的触发只在宽限窗口内补跑一次。
// 日志行要等提交完成才落库，期间的重复检查靠 catchUps 标记挡住。
func (s *Scheduler) catchUpMissed() {
	now := utils.Now()
	accounts, err := s.accountStorage.GetEnabled()
	if err != nil {
		log.Printf("[Scheduler] Catch-up check failed: %v", err)
		return
	}
	for i := range accounts {
		acct := accounts[i]
		h, m, err := utils.ParseTimeHHMM(acct.SubmitTime)
		if err != nil {
			continue
		}
		fireAt := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, utils.AppLocation)
		if fireAt.After(now) || now.Sub(fireAt) > misfireGrace {
			continue
		}
		count, err := s.logStorage.CountForDate(acct.ID, now.Format("2006-01-02"), models.RunTypeAuto)
		if err != nil || count > 0 {
			continue
		}
		accountID := acct.ID
		s.mu.Lock()
		if s.catchUps[accountID] {
			s.mu.Unlock()
			continue
		}
		s.catchUps[accountID] = true
		var job cron.Job
		if entryID, exists := s.entryMap[accountID]; exists {
			job = s.cron.Entry(entryID).WrappedJob
		}
		s.mu.Unlock()
		log.Printf("[Scheduler] Missed fire for account %d within grace window, catching up", accountID)
		go func() {
			defer func() {
				s.mu.Lock()
				delete(s.catchUps, accountID)
				s.mu.Unlock()
			}()
			// 复用该账号定时项的包装链，补跑与正点触发互斥、受并发上限约束
			if job != nil {
				job.Run()
			} else {
				s.runJob(accountID)
			}
		}()
	}
}
