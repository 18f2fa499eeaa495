// Package history 将成功生成的内容记录到本地 SQLite，供之后浏览。
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iabetor/creativespark/internal/catalog"
	"github.com/iabetor/creativespark/internal/database"
	"github.com/iabetor/creativespark/internal/logger"
)

// DefaultLimit List 未指定数量时返回的条数。
const DefaultLimit = 20

// MaxLimit List 单次最多返回的条数。
const MaxLimit = 200

// Entry 是一条生成记录。
type Entry struct {
	ID          uuid.UUID           `json:"id"`
	Idea        string              `json:"idea"`
	ContentType catalog.ContentType `json:"contentType"`
	Audience    catalog.Audience    `json:"audience"`
	Language    string              `json:"language"`
	Text        string              `json:"text"`
	Moral       string              `json:"moral"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// Store 生成记录存储（SQLite）
type Store struct {
	db  *database.DB
	now func() time.Time
}

// NewStore 创建记录存储，db 需已完成迁移。
func NewStore(db *database.DB) *Store {
	s := &Store{db: db, now: time.Now}
	if n, err := s.Count(context.Background()); err == nil {
		logger.Infof("[history] 生成记录已加载，共 %d 条", n)
	}
	return s
}

// Record 保存一条记录，ID 与时间为空时自动补全。
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (id, idea, content_type, audience, language, text, moral, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Idea, string(e.ContentType), string(e.Audience), e.Language,
		e.Text, e.Moral, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("保存生成记录失败: %w", err)
	}
	logger.Debugf("[history] 已记录 %s %s", e.ContentType, e.ID)
	return e, nil
}

// List 按时间倒序返回最近的记录。
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, idea, content_type, audience, language, text, moral, created_at
		 FROM generations ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询生成记录失败: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("读取生成记录失败: %w", err)
	}
	return entries, nil
}

// Get 根据 ID 获取记录，不存在时返回 nil。
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, idea, content_type, audience, language, text, moral, created_at
		 FROM generations WHERE id = ?`, id.String())
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// Count 返回记录总数。
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("统计生成记录失败: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e         Entry
		id        string
		ct, aud   string
		createdMs int64
	)
	if err := sc.Scan(&id, &e.Idea, &ct, &aud, &e.Language, &e.Text, &e.Moral, &createdMs); err != nil {
		return Entry{}, fmt.Errorf("读取生成记录失败: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Entry{}, fmt.Errorf("记录 ID 无效 %q: %w", id, err)
	}
	e.ID = parsed
	e.ContentType = catalog.ContentType(ct)
	e.Audience = catalog.Audience(aud)
	e.CreatedAt = time.UnixMilli(createdMs)
	return e, nil
}
