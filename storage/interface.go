package storage

import "github.com/billionterry20-eng/shu3/models"

type AccountStorage interface {
	GetAll() ([]models.Account, error)
	GetByID(id int) (*models.Account, error)
	GetEnabled() ([]models.Account, error)
	Create(acct *models.Account) error
	Update(acct *models.Account) error
	Delete(id int) error
	Count() (int, error)
}

type SubmitLogStorage interface {
	Create(log *models.SubmitLog) error
	GetRecent(limit int) ([]models.SubmitLog, error)
	GetByAccount(accountID int, limit int) ([]models.SubmitLog, error)
	CountForDate(accountID int, date string, runType string) (int, error)
	DeleteAll() error
}
