package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akinalp/oturum/database"
	"github.com/akinalp/oturum/models"
	"github.com/akinalp/oturum/pkg"
	"github.com/google/uuid"
)

// sqliteSessionRepo, SessionRepository interface'inin SQLite implementasyonu.
//
// Tablo adı Schema'dan gelir — Schema constructor'ı adı identifier olarak
// doğruladığı için SQL template'ine güvenle gömülebilir. Satır değerleri
// her zaman bind parametresidir.
type sqliteSessionRepo struct {
	db    database.TxQuerier
	table string
}

// NewSQLiteSessionRepo, constructor. Aynı repo kodu *sql.DB ile de
// database.WithTx içindeki *sql.Tx ile de çalışır.
func NewSQLiteSessionRepo(db database.TxQuerier, schema *database.Schema) SessionRepository {
	return &sqliteSessionRepo{db: db, table: schema.Table()}
}

func (r *sqliteSessionRepo) Create(ctx context.Context, rec *models.SessionRecord) error {
	raw, err := marshalData(rec.Data)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, key, data, clientip)
		VALUES (?, ?, ?, ?)
		RETURNING created, modified`, r.table)

	// id satırın internal kimliğidir, session key'inden bağımsızdır.
	// Her insert taze bir UUID üretir — silinen id asla geri dönmez.
	id := uuid.NewString()

	err = r.db.QueryRowContext(ctx, query,
		id,
		rec.Key,
		raw,
		nullableString(rec.ClientIP),
	).Scan(&rec.Created, &rec.Modified)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: session key collision", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	rec.ID = id
	return nil
}

func (r *sqliteSessionRepo) GetByKey(ctx context.Context, key string) (*models.SessionRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, key, data, clientip, created, modified
		FROM %s WHERE key = ?`, r.table)

	rec := &models.SessionRecord{}
	var raw string
	var clientIP sql.NullString

	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&rec.ID, &rec.Key, &raw, &clientIP,
		&rec.Created, &rec.Modified,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by key: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &rec.Data); err != nil {
		return nil, fmt.Errorf("%w: corrupt session data: %v", pkg.ErrInternal, err)
	}
	rec.ClientIP = clientIP.String

	return rec, nil
}

func (r *sqliteSessionRepo) UpdateData(ctx context.Context, key string, data map[string]any) error {
	raw, err := marshalData(data)
	if err != nil {
		return err
	}

	// modified burada SET EDİLMEZ — içerik gerçekten değiştiyse şemanın
	// trigger'ı ilerletir, no-op update timestamp'lere dokunmaz.
	query := fmt.Sprintf(`UPDATE %s SET data = ? WHERE key = ?`, r.table)

	res, err := r.db.ExecContext(ctx, query, raw, key)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return requireRow(res)
}

func (r *sqliteSessionRepo) UpdateKey(ctx context.Context, oldKey, newKey string) error {
	query := fmt.Sprintf(`UPDATE %s SET key = ? WHERE key = ?`, r.table)

	res, err := r.db.ExecContext(ctx, query, newKey, oldKey)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: session key collision", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to rotate session key: %w", err)
	}

	return requireRow(res)
}

func (r *sqliteSessionRepo) DeleteByKey(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, r.table)

	// Satır sayısı kontrol edilmez — olmayan key'i silmek hata değildir.
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepo) DeleteIdle(ctx context.Context, idleFor time.Duration) (int64, error) {
	// Süre karşılaştırması SQLite tarafında yapılır — Go'nun time.Time
	// binding formatı ile CURRENT_TIMESTAMP formatını karıştırmamak için.
	query := fmt.Sprintf(
		`DELETE FROM %s WHERE modified < datetime('now', printf('-%%d seconds', ?))`,
		r.table,
	)

	res, err := r.db.ExecContext(ctx, query, int64(idleFor.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return n, nil
}

func (r *sqliteSessionRepo) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table)

	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// marshalData, payload map'ini JSON'a çevirir. nil payload boş obje olur —
// data kolonu NOT NULL'dur.
func marshalData(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal session data: %v", pkg.ErrInternal, err)
	}
	return string(raw), nil
}

// requireRow, UPDATE'in bir satır eşleştirdiğini doğrular.
// Sıfır satır, var olmayan bir session demektir — UPDATE kesinlikle
// UPSERT'e dönüşmez, çağıran pkg.ErrNotFound ile dallanır.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

// nullableString, boş string'i SQL NULL'a çevirir — clientip opsiyonel
// diagnostic metadata'dır.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation, SQLite UNIQUE constraint hatasını kontrol eder.
// Driver yapılandırılmış hata kodu sunmadığı için mesaj pattern'ına bakılır.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
