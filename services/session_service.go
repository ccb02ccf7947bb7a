// Package services, business logic katmanını barındırır.
//
// Service Layer Pattern: service, dış çağıran (web framework, auth
// middleware) ile Repository (DB) arasında oturur. Token üretim politikası
// ve retry kuralları burada yaşar.
//
// Service ASLA http.Request/Response bilmez — sadece payload map'leri ve
// opak token'lar alır/verir. Service ASLA doğrudan SQL çalıştırmaz —
// Repository interface'i kullanır.
package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/oturum/models"
	"github.com/akinalp/oturum/pkg"
	"github.com/akinalp/oturum/repository"
)

// PrincipalField, payload içinde principal kimliğinin arandığı alandır.
const PrincipalField = "user_id"

// SessionService interface'i — dışarıya açık API.
// Çağıran bu interface'e bağımlıdır, concrete struct'a değil.
//
// Create'in döndürdüğü token çağıranın persist etmesi gereken TEK
// artefakttır (ör. cookie değeri). Token opaktır: çağıran içeriğini
// parse etmemeli, içinden anlam çıkarmamalıdır.
type SessionService interface {
	// Create, yeni bir session açar ve token'ını döner.
	// clientIP opsiyonel diagnostic metadata'dır, boş geçilebilir.
	Create(ctx context.Context, payload map[string]any, clientIP string) (string, error)
	// Read, token'a karşılık gelen payload'u döner. Bilinmeyen token
	// (nil, nil) döner — yokluk bir arıza DEĞİLDİR, downstream auth bunu
	// "anonim" olarak yorumlar. Error sadece storage arızasında döner.
	Read(ctx context.Context, token string) (map[string]any, error)
	// Update, var olan session'ın payload'unu değiştirir. Bilinmeyen
	// token pkg.ErrNotFound döner; Update asla yeni satır OLUŞTURMAZ.
	Update(ctx context.Context, token string, payload map[string]any) error
	// Delete, session'ı kaldırır. Bilinmeyen token hata değildir —
	// ikinci kez silmek de başarılıdır (idempotent).
	Delete(ctx context.Context, token string) error
	// Rotate, session'ın token'ını yeniler ve yenisini döner
	// (session fixation savunması). Payload ve created değişmez.
	Rotate(ctx context.Context, token string) (string, error)
	// Sweep, idleFor süresince değişmemiş session'ları siler.
	// Otomatik expiry YOKTUR — bu, üstte katmanlanan harici politikadır
	// (ör. periyodik admin komutu).
	Sweep(ctx context.Context, idleFor time.Duration) (int64, error)
	// Authenticate, token'dan principal çözer: session'ı okur, payload'un
	// user_id alanını resolver'a verir. Bilinmeyen token (nil, nil) —
	// anonim. Store principal tipinden habersizdir.
	Authenticate(ctx context.Context, token string, resolver PrincipalResolver) (any, error)
}

// PrincipalResolver, session'daki principal kimliğini bir kullanıcı
// kaydına çözen dış katman sözleşmesidir. Store bunu sadece çağırır;
// implementasyon kullanıcı modelinin sahibine aittir.
type PrincipalResolver interface {
	ResolveByID(ctx context.Context, principalID string) (any, error)
}

// sessionService, SessionService interface'inin implementasyonu.
type sessionService struct {
	repo repository.SessionRepository
}

// NewSessionService, constructor.
//
// Store'un kapsamı repo'nun bağlı olduğu veritabanıdır — birden fazla
// mantıksal veritabanı kullanan deployment'lar her biri için
// database.Registry'den seçilen handle ile ayrı bir service kurar.
func NewSessionService(repo repository.SessionRepository) SessionService {
	return &sessionService{repo: repo}
}

// tokenBytes — 32 byte = 256 bit entropi. Bu genişlikte çakışma olasılığı
// pratikte sıfırdır; token'da sıralı veya tahmin edilebilir hiçbir bileşen
// yoktur.
const tokenBytes = 32

// newToken, kriptografik olarak güçlü bir session token'ı üretir.
//
// crypto/rand kullanılır, math/rand DEĞİL — session token'ı bir güvenlik
// artefaktıdır, deterministik bir generator kabul edilemez. 32 byte
// URL-safe base64 ile 44 karakterlik string olur (cookie'ye güvenle yazılır).
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: failed to generate session token: %v", pkg.ErrInternal, err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (s *sessionService) Create(ctx context.Context, payload map[string]any, clientIP string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	rec := &models.SessionRecord{
		Key:      token,
		Data:     payload,
		ClientIP: clientIP,
	}

	err = s.repo.Create(ctx, rec)
	if errors.Is(err, pkg.ErrAlreadyExists) {
		// 256-bit uzayda çakışma astronomik olarak nadirdir — ama olursa
		// taze bir token ile TAM BİR kez daha denenir. İkinci çakışma
		// yutulmaz, çağırana taşınır.
		if rec.Key, err = newToken(); err != nil {
			return "", err
		}
		err = s.repo.Create(ctx, rec)
	}
	if err != nil {
		return "", err
	}

	return rec.Token()
}

func (s *sessionService) Read(ctx context.Context, token string) (map[string]any, error) {
	rec, err := s.repo.GetByKey(ctx, token)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, nil // anonim — arıza değil
	}
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}

func (s *sessionService) Update(ctx context.Context, token string, payload map[string]any) error {
	return s.repo.UpdateData(ctx, token, payload)
}

func (s *sessionService) Delete(ctx context.Context, token string) error {
	return s.repo.DeleteByKey(ctx, token)
}

func (s *sessionService) Rotate(ctx context.Context, token string) (string, error) {
	next, err := newToken()
	if err != nil {
		return "", err
	}

	err = s.repo.UpdateKey(ctx, token, next)
	if errors.Is(err, pkg.ErrAlreadyExists) {
		// Create ile aynı kural: bir kez yenile, sonra pes et.
		if next, err = newToken(); err != nil {
			return "", err
		}
		err = s.repo.UpdateKey(ctx, token, next)
	}
	if err != nil {
		return "", err
	}

	return next, nil
}

func (s *sessionService) Sweep(ctx context.Context, idleFor time.Duration) (int64, error) {
	if idleFor <= 0 {
		return 0, fmt.Errorf("%w: sweep window must be positive", pkg.ErrInternal)
	}
	return s.repo.DeleteIdle(ctx, idleFor)
}

func (s *sessionService) Authenticate(ctx context.Context, token string, resolver PrincipalResolver) (any, error) {
	payload, err := s.Read(ctx, token)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil // anonim
	}

	id, ok := payload[PrincipalField].(string)
	if !ok || id == "" {
		// Session var ama principal taşımıyor — yine anonim.
		return nil, nil
	}

	return resolver.ResolveByID(ctx, id)
}
