// Package database, SQLite bağlantısını ve session şemasının yaşam
// döngüsünü yönetir.
//
// Go'da database/sql standart kütüphanesi, farklı veritabanlarına ortak bir
// arayüz sağlar. SQLite driver import edildiğinde otomatik olarak kayıt
// olur — "blank import" (_ "modernc.org/sqlite") bu yüzden kullanılır:
// import'un yan etkisi (side effect) gereklidir.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver — CGO gerekmez, her platformda çalışır
)

// DB, veritabanı bağlantısını saran struct.
// *sql.DB Go'nun built-in connection pool'udur — thread-safe'dir,
// birden fazla goroutine aynı anda güvenle kullanabilir. Store katmanı
// process içi lock tutmaz; tüm eşzamanlılık kontrolü SQLite'a bırakılır.
type DB struct {
	Conn *sql.DB
}

// New, yeni bir SQLite bağlantısı oluşturur.
//
// dbPath: SQLite dosya yolu (ör: "./data/oturum.db")
//
// Şema burada KURULMAZ — tablo yaşam döngüsü (prepare/revert) ayrı bir
// admin operasyonudur, bkz. Schema. Bağlantı açmak ile şema kurmak
// bilinçli olarak ayrıldı: store sunucusuz migration tooling'den de
// çağrılabilmeli.
func New(dbPath string) (*DB, error) {
	// Veritabanı dosyasının bulunduğu dizini oluştur (yoksa)
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// "_pragma=foreign_keys(1)" → Foreign key constraint'leri aktif et
	// "_pragma=journal_mode(WAL)" → Write-Ahead Logging: eşzamanlı okuma/yazma
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Bağlantıyı test et
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("[database] connected: %s", dbPath)
	return &DB{Conn: conn}, nil
}

// Close, veritabanı bağlantısını kapatır.
// Go'da resource cleanup "defer" ile yapılır:
//
//	db, _ := database.New(...)
//	defer db.Close()
func (db *DB) Close() error {
	return db.Conn.Close()
}

// ExecScript, çok statement'lı bir SQL script'ini statement-by-statement
// çalıştırır. Şema kurulumu (CREATE TABLE + INDEX + TRIGGER) tek string
// olarak tanımlanır ama SQLite Exec'ine tek tek verilir — böylece hata
// mesajı hangi statement'ın patladığını söyleyebilir.
//
// İlk hata çalışmayı durdurur ve aynen döner: şema DDL'i yarı toleranslı
// çalıştırılMAZ, çakışan bir tablo operatöre görünür bir hata olmalıdır.
func ExecScript(ctx context.Context, q TxQuerier, script string) error {
	statements := splitStatements(script)

	for i, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
		}
	}

	return nil
}

// splitStatements, SQL metnini statement'lara böler.
//
// Noktalı virgül (;) ile ayırır ama iki durumu yoksayar:
//   - String literal içindeki noktalı virgüller (tek tırnak ile çevrili)
//   - CREATE TRIGGER gövdesi: BEGIN ... END; bloğu tek statement'tır,
//     içindeki noktalı virgüller ayraç değildir
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			statements = append(statements, s)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]

		if ch == '\'' {
			// String literal toggle — '' (escape) handle et
			if inString && i+1 < len(script) && script[i+1] == '\'' {
				current.WriteByte(ch)
				current.WriteByte(script[i+1])
				i++
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			if inTriggerBody(current.String()) {
				// Trigger gövdesi içindeyiz — END görülene kadar bölme.
				current.WriteByte(ch)
				continue
			}
			flush()
			continue
		}

		current.WriteByte(ch)
	}

	// Son statement (noktalı virgülsüz bitmiş olabilir)
	flush()

	return statements
}

// inTriggerBody, biriken statement'ın açık bir CREATE TRIGGER gövdesi olup
// olmadığını kontrol eder: "CREATE TRIGGER" ile başlıyor ve henüz "END" ile
// bitmiyorsa noktalı virgüller gövdeye aittir.
func inTriggerBody(partial string) bool {
	upper := strings.ToUpper(strings.TrimSpace(partial))
	if !strings.HasPrefix(upper, "CREATE TRIGGER") {
		return false
	}
	return !strings.HasSuffix(upper, "END")
}
