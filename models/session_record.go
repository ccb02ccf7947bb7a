// Package models, veritabanı satırlarını temsil eden struct'ları barındırır.
package models

import (
	"fmt"
	"time"

	"github.com/akinalp/oturum/pkg"
)

// SessionRecord, sessions tablosundaki tek bir satırı temsil eder.
//
// İki ayrı kimlik taşır:
//   - ID: satırın internal kimliği (UUID). Silinen bir satırın ID'si asla
//     tekrar kullanılmaz — her insert taze bir UUID üretir.
//   - Key: client'a verilen opak session token'ı. Client bu değeri cookie'de
//     saklar ve her istekte sunar; içeriğinden anlam ÇIKARMAMALIDIR.
//
// Data, framework'ün tanımladığı serbest JSON payload'dur — store için opaktır.
// Created insert anında set edilir ve bir daha değişmez. Modified, satır
// içeriği gerçekten değiştiğinde database trigger'ı tarafından ilerletilir
// (bkz. database.Schema) — uygulama kodu bu kolona asla yazmaz.
type SessionRecord struct {
	ID       string         `json:"id"`
	Key      string         `json:"-"` // session token — API'ye gönderilmez
	Data     map[string]any `json:"data"`
	ClientIP string         `json:"clientip,omitempty"`
	Created  time.Time      `json:"created"`
	Modified time.Time      `json:"modified"`
}

// Token, persist edilmiş bir kaydın session token'ını döner.
//
// Kayıt henüz veritabanına yazılmamışsa (ID boş) pkg.ErrNotPersisted döner.
// Burada sessizce Key dönmek tehlikeli olurdu: kaydedilmemiş bir record'un
// key'i hiçbir satıra karşılık gelmez ve cookie'ye yazılırsa client kalıcı
// olarak "anonim" kalır. Fail-fast tercih edilir.
func (r *SessionRecord) Token() (string, error) {
	if r.ID == "" {
		return "", fmt.Errorf("%w: session has no persisted id", pkg.ErrNotPersisted)
	}
	return r.Key, nil
}
