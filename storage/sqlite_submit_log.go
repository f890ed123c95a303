package storage

import (
	"database/sql"
	"time"

	"github.com/billionterry20-eng/shu3/models"
	"github.com/billionterry20-eng/shu3/utils"
)

type SQLiteSubmitLogStorage struct {
	db *sql.DB
}

func NewSQLiteSubmitLogStorage(db *sql.DB) SubmitLogStorage {
	return &SQLiteSubmitLogStorage{db: db}
}

func (s *SQLiteSubmitLogStorage) Create(entry *models.SubmitLog) error {
	if entry.SubmittedAt.IsZero() {
		entry.SubmittedAt = utils.Now()
	}
	if entry.SubmittedDate == "" {
		entry.SubmittedDate = entry.SubmittedAt.Format("2006-01-02")
	}
	result, err := s.db.Exec(`
		INSERT INTO submit_logs (
			account_id, account_name, phone, step_num, run_type, status,
			http_status, response_code, response_msg, response_text, error_text,
			submitted_at, submitted_date, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.AccountID, entry.AccountName, entry.Phone, entry.StepNum,
		entry.RunType, entry.Status, entry.HTTPStatus, entry.ResponseCode,
		entry.ResponseMsg, entry.ResponseText, entry.ErrorText,
		entry.SubmittedAt.Format(time.RFC3339), entry.SubmittedDate, entry.DurationMs)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = int(id)
	return nil
}

const submitLogColumns = `id, account_id, account_name, phone, step_num, run_type, status,
	http_status, response_code, response_msg, response_text, error_text,
	submitted_at, submitted_date, duration_ms`

func (s *SQLiteSubmitLogStorage) queryLogs(query string, args ...interface{}) ([]models.SubmitLog, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []models.SubmitLog
	for rows.Next() {
		var entry models.SubmitLog
		var accountID, stepNum, durationMs sql.NullInt64
		var accountName, phone, responseText sql.NullString
		var httpStatus, responseCode sql.NullInt64
		var responseMsg, errorText sql.NullString
		var submittedAt string
		err := rows.Scan(
			&entry.ID, &accountID, &accountName, &phone, &stepNum,
			&entry.RunType, &entry.Status, &httpStatus, &responseCode,
			&responseMsg, &responseText, &errorText,
			&submittedAt, &entry.SubmittedDate, &durationMs,
		)
		if err != nil {
			return nil, err
		}
		entry.AccountID = int(accountID.Int64)
		entry.AccountName = accountName.String
		entry.Phone = phone.String
		entry.StepNum = int(stepNum.Int64)
		entry.ResponseText = responseText.String
		entry.DurationMs = int(durationMs.Int64)
		if httpStatus.Valid {
			v := int(httpStatus.Int64)
			entry.HTTPStatus = &v
		}
		if responseCode.Valid {
			v := int(responseCode.Int64)
			entry.ResponseCode = &v
		}
		if responseMsg.Valid {
			v := responseMsg.String
			entry.ResponseMsg = &v
		}
		if errorText.Valid {
			v := errorText.String
			entry.ErrorText = &v
		}
		entry.SubmittedAt = parseStoredTime(submittedAt)
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *SQLiteSubmitLogStorage) GetRecent(limit int) ([]models.SubmitLog, error) {
	return s.queryLogs(`SELECT `+submitLogColumns+` FROM submit_logs ORDER BY id DESC LIMIT ?`, limit)
}

func (s *SQLiteSubmitLogStorage) GetByAccount(accountID int, limit int) ([]models.SubmitLog, error) {
	return s.queryLogs(`SELECT `+submitLogColumns+` FROM submit_logs WHERE account_id = ? ORDER BY id DESC LIMIT ?`, accountID, limit)
}

func (s *SQLiteSubmitLogStorage) CountForDate(accountID int, date string, runType string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM submit_logs
		WHERE account_id = ? AND submitted_date = ? AND run_type = ?
	`, accountID, date, runType).Scan(&count)
	return count, err
}

func (s *SQLiteSubmitLogStorage) DeleteAll() error {
	_, err := s.db.Exec(`DELETE FROM submit_logs`)
	return err
}
