// Package repository, veritabanı erişim katmanıdır.
//
// Her repository bir interface + SQLite implementasyonu çiftidir.
// Service katmanı interface'e bağımlıdır, concrete struct'a değil —
// testlerde stub implementasyon geçilebilir.
package repository

import (
	"context"
	"time"

	"github.com/akinalp/oturum/models"
)

// SessionRepository, session satırları için CRUD interface'i.
//
// Her metod tek bir SQL statement'tır; atomiklik ve satır kilitleme
// tamamen SQLite'a aittir. Aynı key'e eşzamanlı iki UPDATE veritabanının
// isolation seviyesinde yarışır — last-writer-wins beklenen davranıştır.
type SessionRepository interface {
	// Create yeni bir satır ekler; rec.ID, rec.Created ve rec.Modified
	// insert sonrası doldurulur. Key çakışması pkg.ErrAlreadyExists döner.
	Create(ctx context.Context, rec *models.SessionRecord) error
	// GetByKey, key ile tek satır arar. Satır yoksa pkg.ErrNotFound.
	GetByKey(ctx context.Context, key string) (*models.SessionRecord, error)
	// UpdateData, data payload'unu değiştirir. Hiçbir satır eşleşmezse
	// pkg.ErrNotFound — UPSERT YAPMAZ. modified kolonuna dokunmaz;
	// onu şemanın trigger'ı yönetir.
	UpdateData(ctx context.Context, key string, data map[string]any) error
	// UpdateKey, satırın session token'ını değiştirir (rotation).
	UpdateKey(ctx context.Context, oldKey, newKey string) error
	// DeleteByKey, satırı siler. Satır yoksa hata DEĞİLDİR (idempotent).
	DeleteByKey(ctx context.Context, key string) error
	// DeleteIdle, modified'ı idleFor süresinden eski satırları siler ve
	// silinen satır sayısını döner.
	DeleteIdle(ctx context.Context, idleFor time.Duration) (int64, error)
	// Count, canlı session sayısını döner.
	Count(ctx context.Context) (int64, error)
}
