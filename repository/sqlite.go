package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TIANLI0/MoldeKit/model"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS pattern_sets (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT    NOT NULL,
    font_name  TEXT,
    font_data  BLOB,
    created_at INTEGER NOT NULL,
    pieces     TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS fonts (
    name TEXT PRIMARY KEY,
    data BLOB NOT NULL
);
`

// SQLiteStore 每个模板一行，版片以 JSON 快照保存
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Init 建表
func (s *SQLiteStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, ps *model.PatternSet) (int64, error) {
	if ps == nil {
		return 0, fmt.Errorf("%w: pattern set is required", model.ErrValidation)
	}
	ps.Normalize()
	if err := ps.Validate(); err != nil {
		return 0, err
	}
	if ps.CreatedAt.IsZero() {
		ps.CreatedAt = time.Now().UTC()
	}

	pieces, err := json.Marshal(ps.Pieces)
	if err != nil {
		return 0, fmt.Errorf("encode pieces: %w", err)
	}
	var fontName sql.NullString
	var fontData []byte
	if ps.Font != nil {
		fontName = sql.NullString{String: ps.Font.Name, Valid: true}
		fontData = ps.Font.Data
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := ps.ID
	if id == 0 {
		res, err := tx.ExecContext(ctx, `
            INSERT INTO pattern_sets (name, font_name, font_data, created_at, pieces)
            VALUES (?, ?, ?, ?, ?)
        `, ps.Name, fontName, fontData, ps.CreatedAt.UnixNano(), string(pieces))
		if err != nil {
			return 0, fmt.Errorf("insert pattern set: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("insert pattern set: %w", err)
		}
	} else {
		_, err := tx.ExecContext(ctx, `
            INSERT OR REPLACE INTO pattern_sets (id, name, font_name, font_data, created_at, pieces)
            VALUES (?, ?, ?, ?, ?, ?)
        `, id, ps.Name, fontName, fontData, ps.CreatedAt.UnixNano(), string(pieces))
		if err != nil {
			return 0, fmt.Errorf("replace pattern set %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	ps.ID = id
	return id, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]*model.PatternSet, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, font_name, font_data, created_at, pieces
        FROM pattern_sets
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("list pattern sets: %w", err)
	}
	defer rows.Close()

	sets := []*model.PatternSet{}
	for rows.Next() {
		ps, err := scanPatternSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pattern sets: %w", err)
	}
	return sets, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.PatternSet, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, name, font_name, font_data, created_at, pieces
        FROM pattern_sets
        WHERE id = ?
    `, id)

	ps, err := scanPatternSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ps, err
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pattern_sets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pattern set %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pattern set %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: pattern set %d", model.ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) PutFont(ctx context.Context, name string, data []byte) error {
	if strings.TrimSpace(name) == "" || len(data) == 0 {
		return fmt.Errorf("%w: font needs a name and data", model.ErrValidation)
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO fonts (name, data) VALUES (?, ?)
        ON CONFLICT(name) DO UPDATE SET data = excluded.data
    `, name, data)
	if err != nil {
		return fmt.Errorf("put font %q: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) GetFont(ctx context.Context, name string) (*model.Font, error) {
	var f model.Font
	err := s.db.QueryRowContext(ctx, `SELECT name, data FROM fonts WHERE name = ?`, name).Scan(&f.Name, &f.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get font %q: %w", name, err)
	}
	return &f, nil
}

// ListFonts 按名称顺序返回全部字体
func (s *SQLiteStore) ListFonts(ctx context.Context) ([]*model.Font, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, data FROM fonts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list fonts: %w", err)
	}
	defer rows.Close()

	var out []*model.Font
	for rows.Next() {
		var f model.Font
		if err := rows.Scan(&f.Name, &f.Data); err != nil {
			return nil, fmt.Errorf("scan font: %w", err)
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fonts: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPatternSet(row scanner) (*model.PatternSet, error) {
	var (
		ps        model.PatternSet
		fontName  sql.NullString
		fontData  []byte
		createdAt int64
		pieces    string
	)
	if err := row.Scan(&ps.ID, &ps.Name, &fontName, &fontData, &createdAt, &pieces); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan pattern set: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(pieces)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ps.Pieces); err != nil {
		return nil, fmt.Errorf("decode pieces of pattern set %d: %w", ps.ID, err)
	}
	if fontName.Valid {
		ps.Font = &model.Font{Name: fontName.String, Data: fontData}
	}
	ps.CreatedAt = time.Unix(0, createdAt).UTC()
	ps.Normalize()
	return &ps, nil
}

// OpenSQLite 打开指定路径的数据库，不存在时创建目录
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
