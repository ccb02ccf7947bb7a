package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/akinalp/oturum/database"
	"github.com/akinalp/oturum/models"
	"github.com/akinalp/oturum/pkg"
	"github.com/akinalp/oturum/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestService, gerçek bir SQLite dosyası üzerinde çalışan service kurar.
func newTestService(t *testing.T) (SessionService, repository.SessionRepository, *database.DB) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := database.NewSchema("")
	require.NoError(t, err)
	require.NoError(t, schema.Prepare(context.Background(), db.Conn))

	repo := repository.NewSQLiteSessionRepo(db.Conn, schema)
	return NewSessionService(repo), repo, db
}

func TestCreateReadRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	payload := map[string]any{"user": "alice"}
	token, err := svc.Create(ctx, payload, "10.0.0.1")
	require.NoError(t, err)

	// 32 byte'ın URL-safe base64 hali 44 karakterdir.
	assert.Len(t, token, 44)

	got, err := svc.Read(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadUnknownTokenIsAnonymousNotError(t *testing.T) {
	svc, _, _ := newTestService(t)

	got, err := svc.Read(context.Background(), "never-issued")
	require.NoError(t, err, "absence must never surface as an error")
	assert.Nil(t, got)
}

func TestUpdateReplacesPayload(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.Create(ctx, map[string]any{"user": "alice"}, "")
	require.NoError(t, err)

	next := map[string]any{"user": "alice", "role": "admin"}
	require.NoError(t, svc.Update(ctx, token, next))

	got, err := svc.Read(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestUpdateUnknownTokenNeverUpserts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	err := svc.Update(ctx, "never-issued", map[string]any{"x": "y"})
	require.ErrorIs(t, err, pkg.ErrNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.Create(ctx, map[string]any{"user": "alice"}, "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, token))

	got, err := svc.Read(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, svc.Delete(ctx, token))
}

// TestSessionLifecycle, uçtan uca senaryo: create → read → update → read →
// delete → read.
func TestSessionLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.Create(ctx, map[string]any{"user": "alice"}, "")
	require.NoError(t, err)
	assert.Len(t, token, 44)

	got, err := svc.Read(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user": "alice"}, got)

	require.NoError(t, svc.Update(ctx, token, map[string]any{"user": "alice", "role": "admin"}))

	got, err = svc.Read(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user": "alice", "role": "admin"}, got)

	require.NoError(t, svc.Delete(ctx, token))

	got, err = svc.Read(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTwoCreatesSamePayloadDistinctTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	payload := map[string]any{"user": "alice"}
	a, err := svc.Create(ctx, payload, "")
	require.NoError(t, err)
	b, err := svc.Create(ctx, payload, "")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTokenEntropy(t *testing.T) {
	// 10.000 token: sıfır çakışma ve karakter sınıfı çeşitliliği beklenir.
	const n = 10000

	seen := make(map[string]bool, n)
	var hasUpper, hasLower, hasDigit bool

	for i := 0; i < n; i++ {
		token, err := newToken()
		require.NoError(t, err)
		require.Len(t, token, 44)
		require.False(t, seen[token], "token collision at %d", i)
		seen[token] = true

		for _, ch := range token {
			switch {
			case ch >= 'A' && ch <= 'Z':
				hasUpper = true
			case ch >= 'a' && ch <= 'z':
				hasLower = true
			case ch >= '0' && ch <= '9':
				hasDigit = true
			}
		}
	}

	assert.True(t, hasUpper && hasLower && hasDigit,
		"token sample must span base64 character classes")
}

func TestRotateIssuesFreshToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	payload := map[string]any{"user": "alice"}
	old, err := svc.Create(ctx, payload, "")
	require.NoError(t, err)

	next, err := svc.Rotate(ctx, old)
	require.NoError(t, err)
	assert.NotEqual(t, old, next)
	assert.Len(t, next, 44)

	// Eski token artık anonim, yenisi payload'u taşır.
	got, err := svc.Read(ctx, old)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Read(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestRotateUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Rotate(context.Background(), "never-issued")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSweepDeletesOnlyIdleSessions(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	fresh, err := svc.Create(ctx, map[string]any{"user": "alice"}, "")
	require.NoError(t, err)
	stale, err := svc.Create(ctx, map[string]any{"user": "bob"}, "")
	require.NoError(t, err)

	_, err = db.Conn.ExecContext(ctx,
		`UPDATE sessions SET modified = datetime('now', '-48 hours') WHERE key = ?`, stale)
	require.NoError(t, err)

	n, err := svc.Sweep(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := svc.Read(ctx, stale)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Read(ctx, fresh)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSweepRejectsNonPositiveWindow(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Sweep(context.Background(), 0)
	require.Error(t, err)
}

// stubResolver, principal lookup sözleşmesinin test implementasyonu.
type stubResolver struct {
	users map[string]any
}

func (r *stubResolver) ResolveByID(_ context.Context, id string) (any, error) {
	return r.users[id], nil
}

func TestAuthenticateResolvesPrincipal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resolver := &stubResolver{users: map[string]any{"u1": "alice's account"}}

	token, err := svc.Create(ctx, map[string]any{PrincipalField: "u1"}, "")
	require.NoError(t, err)

	principal, err := svc.Authenticate(ctx, token, resolver)
	require.NoError(t, err)
	assert.Equal(t, "alice's account", principal)
}

func TestAuthenticateUnknownTokenIsAnonymous(t *testing.T) {
	svc, _, _ := newTestService(t)

	principal, err := svc.Authenticate(context.Background(), "never-issued", &stubResolver{})
	require.NoError(t, err)
	assert.Nil(t, principal)
}

func TestAuthenticateSessionWithoutPrincipal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.Create(ctx, map[string]any{"theme": "dark"}, "")
	require.NoError(t, err)

	principal, err := svc.Authenticate(ctx, token, &stubResolver{})
	require.NoError(t, err)
	assert.Nil(t, principal)
}

// collidingRepo, ilk N Create denemesini key çakışması ile reddeden stub.
type collidingRepo struct {
	repository.SessionRepository
	failures int
	keys     []string
}

func (r *collidingRepo) Create(ctx context.Context, rec *models.SessionRecord) error {
	r.keys = append(r.keys, rec.Key)
	if r.failures > 0 {
		r.failures--
		return pkg.ErrAlreadyExists
	}
	return r.SessionRepository.Create(ctx, rec)
}

func TestCreateRetriesOnceOnCollision(t *testing.T) {
	_, real, _ := newTestService(t)
	ctx := context.Background()

	stub := &collidingRepo{SessionRepository: real, failures: 1}
	svc := NewSessionService(stub)

	token, err := svc.Create(ctx, map[string]any{"user": "alice"}, "")
	require.NoError(t, err)

	// İki deneme, iki FARKLI token — çakışan token asla tekrar kullanılmaz.
	require.Len(t, stub.keys, 2)
	assert.NotEqual(t, stub.keys[0], stub.keys[1])
	assert.Equal(t, stub.keys[1], token)
}

func TestCreateSurfacesRepeatedCollision(t *testing.T) {
	_, real, _ := newTestService(t)

	stub := &collidingRepo{SessionRepository: real, failures: 2}
	svc := NewSessionService(stub)

	_, err := svc.Create(context.Background(), nil, "")
	require.ErrorIs(t, err, pkg.ErrAlreadyExists)
	// Tam iki deneme — sessiz sonsuz retry yok.
	assert.Len(t, stub.keys, 2)
}
