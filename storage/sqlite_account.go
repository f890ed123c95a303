package storage

import (
	"database/sql"
	"time"

	"github.com/billionterry20-eng/shu3/models"
	"github.com/billionterry20-eng/shu3/utils"
)

type SQLiteAccountStorage struct {
	db *sql.DB
}

func NewSQLiteAccountStorage(db *sql.DB) AccountStorage {
	return &SQLiteAccountStorage{db: db}
}

const accountColumns = `id, name, phone, pwd, step_num, submit_time, auth_token, api_url, enabled, created_at, updated_at`

func scanAccount(scan func(dest ...interface{}) error) (*models.Account, error) {
	var acct models.Account
	var enabled int
	var createdAt, updatedAt string
	err := scan(
		&acct.ID, &acct.Name, &acct.Phone, &acct.Pwd, &acct.StepNum,
		&acct.SubmitTime, &acct.AuthToken, &acct.APIURL, &enabled,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	acct.Enabled = enabled == 1
	acct.CreatedAt = parseStoredTime(createdAt)
	acct.UpdatedAt = parseStoredTime(updatedAt)
	return &acct, nil
}

func parseStoredTime(s string) time.Time {
	if t, err := time.ParseInLocation(time.RFC3339, s, utils.AppLocation); err == nil {
		return t.In(utils.AppLocation)
	}
	return time.Time{}
}

func (s *SQLiteAccountStorage) GetAll() ([]models.Account, error) {
	rows, err := s.db.Query(`SELECT ` + accountColumns + ` FROM accounts ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []models.Account
	for rows.Next() {
		acct, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

func (s *SQLiteAccountStorage) GetByID(id int) (*models.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row.Scan)
}

func (s *SQLiteAccountStorage) GetEnabled() ([]models.Account, error) {
	rows, err := s.db.Query(`SELECT ` + accountColumns + ` FROM accounts WHERE enabled = 1 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []models.Account
	for rows.Next() {
		acct, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

func (s *SQLiteAccountStorage) Create(acct *models.Account) error {
	now := utils.Now()
	ts := now.Format(time.RFC3339)
	enabled := 0
	if acct.Enabled {
		enabled = 1
	}
	result, err := s.db.Exec(`
		INSERT INTO accounts (name, phone, pwd, step_num, submit_time, auth_token, api_url, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, acct.Name, acct.Phone, acct.Pwd, acct.StepNum, acct.SubmitTime,
		acct.AuthToken, acct.APIURL, enabled, ts, ts)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	acct.ID = int(id)
	acct.CreatedAt = now
	acct.UpdatedAt = now
	return nil
}

func (s *SQLiteAccountStorage) Update(acct *models.Account) error {
	now := utils.Now()
	enabled := 0
	if acct.Enabled {
		enabled = 1
	}
	_, err := s.db.Exec(`
		UPDATE accounts
		SET name = ?, phone = ?, pwd = ?, step_num = ?, submit_time = ?,
		    auth_token = ?, api_url = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`, acct.Name, acct.Phone, acct.Pwd, acct.StepNum, acct.SubmitTime,
		acct.AuthToken, acct.APIURL, enabled, now.Format(time.RFC3339), acct.ID)
	if err == nil {
		acct.UpdatedAt = now
	}
	return err
}

func (s *SQLiteAccountStorage) Delete(id int) error {
	_, err := s.db.Exec(`DELETE FROM accounts WHERE id = ?`, id)
	return err
}

func (s *SQLiteAccountStorage) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count)
	return count, err
}
