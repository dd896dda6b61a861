package postgres

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deptinbox/backend/internal/domain"
	"deptinbox/backend/internal/storage"
)

var _ storage.MessageGateway = (*Store)(nil)
var _ storage.Migrator = (*Store)(nil)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store 是留言集合的 PostgreSQL 实现
type Store struct {
	client *Client
	table  string
}

// NewStore 基于已连接的客户端创建存储，table 只允许小写标识符
func NewStore(client *Client, table string) (*Store, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("postgres: invalid table name %q", table)
	}
	return &Store{client: client, table: table}, nil
}

func (s *Store) pool() *pgxpool.Pool {
	return s.client.Pool()
}

// Migrate 创建留言表与排序索引
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name       TEXT NOT NULL,
			email      TEXT NOT NULL,
			phone      TEXT,
			subject    TEXT NOT NULL,
			message    TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'unread' CHECK (status IN ('unread', 'read', 'archived')),
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_created_at_idx ON %s (created_at DESC)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool().Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}

// Ping 检查连接池可用性
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Insert 写入留言，ID 由数据库生成
func (s *Store) Insert(ctx context.Context, message *domain.Message) (storage.InsertResult, error) {
	var id string
	err := s.pool().QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (name, email, phone, subject, message, status, created_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		 RETURNING id::text`, s.table),
		message.Name, message.Email, message.Phone, message.Subject, message.Body,
		string(message.Status), message.CreatedAt,
	).Scan(&id)
	if err != nil {
		return storage.InsertResult{}, fmt.Errorf("postgres: insert: %w", err)
	}
	return storage.InsertResult{Acknowledged: true, ID: id}, nil
}

// Find 按 created_at 倒序返回留言
func (s *Store) Find(ctx context.Context, opts storage.FindOptions) ([]domain.Message, error) {
	query := fmt.Sprintf(`SELECT id::text, name, email, COALESCE(phone, ''), subject, message, status, created_at, updated_at
	          FROM %s`, s.table)
	var args []any
	if opts.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*opts.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: find: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var (
			m      domain.Message
			status string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Body, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		m.Status = domain.Status(status)
		m.CreatedAt = m.CreatedAt.UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: find: %w", err)
	}
	return messages, nil
}

// UpdateOne 更新状态；非 UUID 的 ID 视为不存在
func (s *Store) UpdateOne(ctx context.Context, id string, update storage.StatusUpdate) (storage.UpdateResult, error) {
	if _, err := uuid.Parse(id); err != nil {
		return storage.UpdateResult{}, nil
	}

	tag, err := s.pool().Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET status = $2, updated_at = $3 WHERE id = $1`, s.table),
		id, string(update.Status), update.UpdatedAt,
	)
	if err != nil {
		return storage.UpdateResult{}, fmt.Errorf("postgres: update: %w", err)
	}
	return storage.UpdateResult{MatchedCount: tag.RowsAffected()}, nil
}

// DeleteOne 删除留言；非 UUID 的 ID 视为不存在
func (s *Store) DeleteOne(ctx context.Context, id string) (storage.DeleteResult, error) {
	if _, err := uuid.Parse(id); err != nil {
		return storage.DeleteResult{}, nil
	}

	tag, err := s.pool().Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table), id)
	if err != nil {
		return storage.DeleteResult{}, fmt.Errorf("postgres: delete: %w", err)
	}
	return storage.DeleteResult{DeletedCount: tag.RowsAffected()}, nil
}

// Close 关闭连接池
func (s *Store) Close(ctx context.Context) error {
	s.client.Close()
	return nil
}
