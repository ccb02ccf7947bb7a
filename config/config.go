// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar — her yerde ayrı ayrı
// os.Getenv() çağırmak yerine tek bir Config nesnesi taşınır.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/akinalp/oturum/database"
	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Database DatabaseConfig
	Session  SessionConfig
}

// DatabaseConfig, SQLite database ayarları.
//
// Paths her zaman en az "default" adlı ana veritabanını içerir.
// DB_NAMED ile ek mantıksal veritabanları tanımlanır — her biri kendi
// bağımsız session tablosunu barındırabilir.
type DatabaseConfig struct {
	Paths map[string]string // ad → SQLite dosya yolu
}

// SessionConfig, session store ayarları.
type SessionConfig struct {
	Table          string // session tablosunun adı (varsayılan: sessions)
	SweepIdleHours int    // sweep komutunun varsayılan idle penceresi
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
//
// Env değişkenleri:
//
//	DB_PATH           ana veritabanı dosyası (varsayılan: ./data/oturum.db)
//	DB_NAMED          ek veritabanları, "ad=yol" virgülle ayrılmış
//	SESSION_TABLE     tablo adı (varsayılan: sessions)
//	SWEEP_IDLE_HOURS  sweep penceresi saat cinsinden (varsayılan: 720 = 30 gün)
func Load() (*Config, error) {
	// .env dosyası yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	paths := map[string]string{
		database.DefaultName: getEnv("DB_PATH", "./data/oturum.db"),
	}
	if named := getEnv("DB_NAMED", ""); named != "" {
		extra, err := parseNamed(named)
		if err != nil {
			return nil, err
		}
		for name, path := range extra {
			paths[name] = path
		}
	}

	sweepHours, err := strconv.Atoi(getEnv("SWEEP_IDLE_HOURS", "720"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_IDLE_HOURS: %w", err)
	}
	if sweepHours <= 0 {
		return nil, fmt.Errorf("invalid SWEEP_IDLE_HOURS: must be positive, got %d", sweepHours)
	}

	return &Config{
		Database: DatabaseConfig{Paths: paths},
		Session: SessionConfig{
			Table:          getEnv("SESSION_TABLE", database.DefaultTable),
			SweepIdleHours: sweepHours,
		},
	}, nil
}

// parseNamed, "ad=yol,ad2=yol2" biçimindeki DB_NAMED değerini çözer.
func parseNamed(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, path, ok := strings.Cut(entry, "=")
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid DB_NAMED entry %q (expected name=path)", entry)
		}
		out[name] = path
	}
	return out, nil
}

// getEnv, environment variable okur; yoksa fallback döner.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
