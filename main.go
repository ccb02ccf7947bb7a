// Package main, oturum admin aracının giriş noktasıdır.
//
// Session store bir kütüphanedir — onu çağıran web/auth katmanı bu repoda
// DEĞİLDİR. Burada sadece sunucudan bağımsız çalışması gereken yönetim
// operasyonları var:
//
//	oturum prepare   şemayı kur (tablo + unique index + trigger)
//	oturum revert    şemayı düşür (prepare'in tam tersi, idempotent)
//	oturum sweep     idle session'ları sil (harici expiry politikası)
//	oturum status    canlı session sayısını yazdır
//
// Ortak flag'ler: -db <ad> mantıksal veritabanını seçer (varsayılan:
// "default"), -table <ad> tablo adını override eder.
//
// Global değişken YOK — her şey main içinde oluşturulup birbirine bağlanır:
// config → registry → schema → repository → service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/akinalp/oturum/config"
	"github.com/akinalp/oturum/database"
	"github.com/akinalp/oturum/repository"
	"github.com/akinalp/oturum/services"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	dbName := flags.String("db", database.DefaultName, "logical database name")
	table := flags.String("table", "", "session table name (default from config)")
	idleHours := flags.Int("idle", 0, "sweep window in hours (default from config)")
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	if *table == "" {
		*table = cfg.Session.Table
	}
	if *idleHours == 0 {
		*idleHours = cfg.Session.SweepIdleHours
	}

	// ─── 2. Database Registry ───
	registry, err := database.OpenRegistry(cfg.Database.Paths)
	if err != nil {
		log.Fatalf("[main] failed to open databases: %v", err)
	}
	defer registry.CloseAll()

	db, err := registry.Get(*dbName)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	// ─── 3. Schema ───
	schema, err := database.NewSchema(*table)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	ctx := context.Background()

	if err := run(ctx, command, db, schema, time.Duration(*idleHours)*time.Hour); err != nil {
		// Şema hataları dahil hiçbir hata retry EDİLMEZ — operatör görür,
		// karar verir.
		log.Fatalf("[main] %s failed: %v", command, err)
	}
}

// run, seçilen alt komutu çalıştırır.
func run(ctx context.Context, command string, db *database.DB, schema *database.Schema, idleFor time.Duration) error {
	switch command {
	case "prepare":
		if err := schema.Prepare(ctx, db.Conn); err != nil {
			return err
		}
		log.Printf("[schema] table %q prepared", schema.Table())
		return nil

	case "revert":
		if err := schema.Revert(ctx, db.Conn); err != nil {
			return err
		}
		log.Printf("[schema] table %q reverted", schema.Table())
		return nil

	case "sweep":
		svc := services.NewSessionService(repository.NewSQLiteSessionRepo(db.Conn, schema))
		n, err := svc.Sweep(ctx, idleFor)
		if err != nil {
			return err
		}
		log.Printf("[sweep] deleted %d sessions idle for more than %s", n, idleFor)
		return nil

	case "status":
		repo := repository.NewSQLiteSessionRepo(db.Conn, schema)
		n, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		log.Printf("[status] table %q holds %d live sessions", schema.Table(), n)
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: oturum <command> [flags]

commands:
  prepare   create the session table, unique key index and modified trigger
  revert    drop them again (no-op if already reverted)
  sweep     delete sessions idle beyond the window
  status    print live session count

flags:
  -db <name>      logical database (default "default")
  -table <name>   session table name
  -idle <hours>   sweep window in hours`)
}
