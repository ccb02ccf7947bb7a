// Package database — Named database registry.
package database

import (
	"fmt"
	"sort"
)

// Registry, birden fazla mantıksal veritabanını ada göre tutar.
//
// Bir deployment session tablolarını ayrı SQLite dosyalarına ayırmak
// isteyebilir (ör. "default" ve "staging"). Store katmanı Registry'den
// seçilen TEK bir handle üzerine kurulur — dört CRUD operasyonu da seçilen
// kapsam içinde uygulanır.
//
// Registry açıldıktan sonra salt okunurdur; map'e eşzamanlı erişim bu
// yüzden güvenlidir.
type Registry struct {
	dbs map[string]*DB
}

// DefaultName, konfigürasyonda ad verilmeyen ana veritabanının adıdır.
const DefaultName = "default"

// OpenRegistry, ad → dosya yolu map'indeki her veritabanını açar.
// Herhangi biri açılamazsa o ana kadar açılanlar kapatılır ve hata döner —
// yarım açılmış bir registry dışarı sızmaz.
func OpenRegistry(paths map[string]string) (*Registry, error) {
	r := &Registry{dbs: make(map[string]*DB, len(paths))}

	for name, path := range paths {
		db, err := New(path)
		if err != nil {
			r.CloseAll()
			return nil, fmt.Errorf("failed to open database %q: %w", name, err)
		}
		r.dbs[name] = db
	}

	return r, nil
}

// Get, verilen addaki veritabanını döner.
// Bilinmeyen ad bir konfigürasyon hatasıdır — hangi adların mevcut olduğu
// hata mesajına yazılır ki operatör typo'yu hemen görsün.
func (r *Registry) Get(name string) (*DB, error) {
	if name == "" {
		name = DefaultName
	}
	db, ok := r.dbs[name]
	if !ok {
		return nil, fmt.Errorf("unknown database %q (configured: %v)", name, r.Names())
	}
	return db, nil
}

// Names, kayıtlı veritabanı adlarını sıralı döner.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.dbs))
	for name := range r.dbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll, tüm bağlantıları kapatır. İlk hata saklanır ama kapatma
// devam eder — tek bozuk handle diğerlerini açık bırakmamalı.
func (r *Registry) CloseAll() error {
	var firstErr error
	for name, db := range r.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close database %q: %w", name, err)
		}
	}
	return firstErr
}
