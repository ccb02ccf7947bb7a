// Package database — Session tablosunun şema yaşam döngüsü.
//
// Prepare/Revert birbirinin tam tersidir ve bir migration aracının
// up/down adımları gibi sunucudan bağımsız çağrılabilir (bkz. ana
// komuttaki "prepare" ve "revert" alt komutları).
package database

import (
	"context"
	"fmt"
	"regexp"

	"github.com/akinalp/oturum/pkg"
)

// DefaultTable, session tablosunun varsayılan adıdır.
// Aynı veritabanında birden fazla mantıksal session tablosu barındırmak
// isteyen deployment'lar NewSchema'ya farklı bir ad verir.
const DefaultTable = "sessions"

// tableNamePattern — SQL identifier'ları bind parametresi olamaz, bu yüzden
// tablo adı DDL template'ine metin olarak girmek zorundadır. Ada izin
// verilen tek biçim klasik identifier'dır; başka her şey construction'da
// reddedilir. Böylece DDL'e kullanıcı girdisi sızamaz.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Schema, tek bir session tablosunun yapısal tanımını ve DDL yaşam
// döngüsünü yönetir. Davranış taşımaz — satır operasyonları repository
// katmanındadır.
type Schema struct {
	table string
}

// NewSchema, verilen tablo adı için bir Schema oluşturur.
// Boş ad DefaultTable anlamına gelir. Identifier olmayan adlar
// pkg.ErrSchema ile reddedilir.
//
// Tablo adı bilinçli olarak constructor parametresidir — process-wide
// mutable bir ayar DEĞİLDİR. Aynı process'te farklı adlı birden fazla
// Schema güvenle yaşayabilir.
func NewSchema(table string) (*Schema, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", pkg.ErrSchema, table)
	}
	return &Schema{table: table}, nil
}

// Table, yapılandırılmış tablo adını döner.
func (s *Schema) Table() string {
	return s.table
}

// Prepare, session tablosunu kurar:
//
//   - Tablo: id (UUID, primary key), key, data (JSON), clientip,
//     created/modified (insert anında CURRENT_TIMESTAMP)
//   - key üzerinde UNIQUE index — aynı token'dan iki canlı satır olamaz,
//     çakışan insert veritabanı tarafından reddedilir
//   - Change-detection trigger: bir UPDATE satır içeriğini (modified hariç
//     herhangi bir kolonda) GERÇEKTEN değiştirdiyse modified ilerletilir.
//     No-op update hiçbir timestamp'e dokunmaz. Kural database seviyesinde
//     yaşar — hangi yazma yolu kullanılırsa kullanılsın uygulanır ve hiçbir
//     uygulama kodu modified set etmek zorunda değildir.
//
// CREATE TABLE bilinçli olarak IF NOT EXISTS içermez: aynı adda uyumsuz bir
// tablo varsa Prepare yüksek sesle başarısız olmalıdır. Bu hatalar startup'ta
// operatöre taşınır, retry edilmez.
//
// Trigger'ın kendi UPDATE'i trigger'ı tekrar tetiklemez: SQLite'ta
// recursive_triggers varsayılan kapalıdır ve WHEN koşulu modified
// kolonunu karşılaştırmaya zaten dahil etmez.
func (s *Schema) Prepare(ctx context.Context, q TxQuerier) error {
	script := fmt.Sprintf(`
		CREATE TABLE %[1]s (
			id       TEXT PRIMARY KEY,
			key      TEXT NOT NULL,
			data     TEXT NOT NULL DEFAULT '{}',
			clientip TEXT,
			created  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			modified DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE UNIQUE INDEX idx_%[1]s_key ON %[1]s (key);

		CREATE TRIGGER trg_%[1]s_touch_modified
		AFTER UPDATE ON %[1]s
		FOR EACH ROW
		WHEN OLD.id IS NOT NEW.id
		  OR OLD.key IS NOT NEW.key
		  OR OLD.data IS NOT NEW.data
		  OR OLD.clientip IS NOT NEW.clientip
		  OR OLD.created IS NOT NEW.created
		BEGIN
			UPDATE %[1]s SET modified = CURRENT_TIMESTAMP WHERE id = NEW.id;
		END;`, s.table)

	if err := ExecScript(ctx, q, script); err != nil {
		return fmt.Errorf("%w: prepare %s: %v", pkg.ErrSchema, s.table, err)
	}
	return nil
}

// Revert, Prepare'in tam tersidir: trigger'ı, index'i ve tabloyu düşürür.
//
// IF EXISTS sayesinde idempotent'tir — zaten revert edilmiş bir şema için
// sessiz bir no-op'tur (tercih edilen ve burada belgelenen davranış).
func (s *Schema) Revert(ctx context.Context, q TxQuerier) error {
	script := fmt.Sprintf(`
		DROP TRIGGER IF EXISTS trg_%[1]s_touch_modified;
		DROP INDEX IF EXISTS idx_%[1]s_key;
		DROP TABLE IF EXISTS %[1]s;`, s.table)

	if err := ExecScript(ctx, q, script); err != nil {
		return fmt.Errorf("%w: revert %s: %v", pkg.ErrSchema, s.table, err)
	}
	return nil
}
