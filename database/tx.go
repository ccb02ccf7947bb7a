// Package database — Transaction yönetimi.
//
// Tek bir session operasyonu tek bir SQL statement'tır ve kendi başına
// atomiktir — normal akışta transaction gerekmez. WithTx, birden fazla
// session yazısının tek birim olarak commit edilmesi gereken durumlar
// içindir (ör. toplu import, bir kullanıcının tüm oturumlarını tek seferde
// değiştiren admin işlemleri):
//   - Hepsi başarılı → COMMIT
//   - Herhangi biri başarısız → ROLLBACK
//
// Kullanım:
//
//	err := database.WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
//	    repo := repository.NewSQLiteSessionRepo(tx)
//	    if err := repo.Create(ctx, first); err != nil {
//	        return err // → ROLLBACK
//	    }
//	    return repo.Create(ctx, second) // nil → COMMIT
//	})
//
// Repository'ler *sql.DB yerine TxQuerier alır — hem *sql.DB hem *sql.Tx
// bu interface'i karşılar, bu yüzden aynı repository kodu transaction
// içinde de dışında da çalışır.
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier, hem *sql.DB hem *sql.Tx tarafından karşılanan interface.
//
// Go'nun database/sql paketinde bu interface tanımlı değildir —
// biz kendimiz tanımlıyoruz (duck typing sayesinde ikisi de karşılar).
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx, verilen fonksiyonu bir SQL transaction içinde çalıştırır.
//
// Davranış:
//  1. BEGIN TRANSACTION
//  2. fn(tx) çağır
//  3. fn nil dönerse → COMMIT
//  4. fn error dönerse → ROLLBACK
//  5. fn panic atarsa → ROLLBACK + panic'i tekrar fırlat
//
// Panic recovery neden gerekli? ROLLBACK yapılmadan açık kalan bir
// transaction SQLite'ta DB lock'a neden olabilir. recover ile panic
// yakalanır, ROLLBACK yapılır, sonra panic tekrar fırlatılır.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Panic veya error durumunda rollback garantisi
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
