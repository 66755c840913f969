package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrDocumentNotFound            = errors.New("document not found")
	ErrSnapshotStoreNotInitialized = errors.New("snapshot store not initialized")
)

// MySQL 与 SQLite 都能接受的建表语句（SQLite 对类型名宽松）
const snapshotTableDDL = `CREATE TABLE IF NOT EXISTS document_snapshots (
	document_id VARCHAR(64) NOT NULL,
	revision BIGINT UNSIGNED NOT NULL,
	content LONGTEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (document_id, revision)
)`

// OpenSnapshotDB 打开快照库。driver 为 "mysql"（默认）或 "sqlite"（本地开发）
func OpenSnapshotDB(driver, dsn string) (*sql.DB, error) {
	if driver == "" {
		driver = "mysql"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

type SnapshotStore struct{ db *sql.DB }

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrSnapshotStoreNotInitialized
	}
	_, err := s.db.ExecContext(ctx, snapshotTableDDL)
	return err
}

// SaveDocumentSnapshot 同一 (document_id, revision) 重复写入视为成功
func (s *SnapshotStore) SaveDocumentSnapshot(ctx context.Context, docID string, rev uint64, content string) error {
	if s == nil || s.db == nil {
		return ErrSnapshotStoreNotInitialized
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO document_snapshots (document_id, revision, content)
		VALUES (?, ?, ?)`,
		docID,
		rev,
		content,
	)
	if err != nil {
		if isDuplicate(err) {
			return nil
		}
		return fmt.Errorf("save snapshot doc=%s rev=%d: %w", docID, rev, err)
	}
	return nil
}

// LatestSnapshot 返回最新版本的快照，没有快照时返回 ErrDocumentNotFound
func (s *SnapshotStore) LatestSnapshot(ctx context.Context, docID string) (uint64, string, error) {
	if s == nil || s.db == nil {
		return 0, "", ErrSnapshotStoreNotInitialized
	}
	var (
		rev     uint64
		content string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT revision, content FROM document_snapshots
		WHERE document_id = ? ORDER BY revision DESC LIMIT 1`,
		docID,
	).Scan(&rev, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrDocumentNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("latest snapshot doc=%s: %w", docID, err)
	}
	return rev, content, nil
}

func isDuplicate(err error) bool {
	// 1062 = duplicate key
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
