// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir. errors.New() ile sabit error
// değişkenleri tanımlarız — karşılaştırma string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Store katmanı bu sentinel'leri fmt.Errorf("%w: ...") ile sarıp döner,
// çağıran taraf errors.Is ile dallanır. Hiçbir error store içinde
// loglanıp yutulmaz — her zaman çağırana taşınır.
package pkg

import "errors"

// Domain-level error'lar.
//
// ErrNotFound bir arıza değil, normal bir sonuçtur: bilinmeyen bir
// session key ile yapılan lookup "anonim" demektir. Connectivity
// hataları sentinel almaz — driver error'ı %w ile sarılıp aynen yukarı
// taşınır, retry kararını çağıran verir.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotPersisted  = errors.New("record not persisted")
	ErrSchema        = errors.New("schema operation failed")
	ErrInternal      = errors.New("internal error")
)
