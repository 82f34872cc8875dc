package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"leetscore/internal/models"

	"github.com/redis/go-redis/v9"
)

// These tests need live services and are skipped unless TEST_REDIS_ADDR or
// TEST_DATABASE_URL is set.

func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := OpenRedis(ctx, &redis.Options{Addr: addr})
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	s := NewRedisStorage(client, "leetscore:test:"+t.Name()+":")
	defer s.Close()
	defer s.Reset()

	if v, err := s.Get("missing"); v != nil || err != nil {
		t.Errorf("missing key: got %q, %v", v, err)
	}
	if err := s.Set("k", []byte("1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := s.Get("k"); string(v) != "1" || err != nil {
		t.Errorf("Get: got %q, %v", v, err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if v, _ := s.Get("k"); v != nil {
		t.Errorf("after Delete: got %q", v)
	}

	s.Set("a", []byte("x"), 0)
	s.Set("b", []byte("y"), 0)
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if v, _ := s.Get("a"); v != nil {
		t.Errorf("after Reset: got %q", v)
	}
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := OpenPostgres(ctx, dsn, 1)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	repo := NewPostgresRepository(db)
	defer repo.Close()

	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	run := models.BatchRun{Source: "test", Total: 7, Active: 3, NotFound: 1, Degraded: 2, DurationMS: 42}
	if err := repo.InsertBatchRun(ctx, &run); err != nil {
		t.Fatalf("InsertBatchRun: %v", err)
	}
	if run.ID == 0 {
		t.Error("InsertBatchRun should assign an ID")
	}
	defer db.Delete(&models.BatchRun{}, run.ID)

	runs, err := repo.RecentBatchRuns(ctx, 1)
	if err != nil {
		t.Fatalf("RecentBatchRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID || runs[0].Total != 7 {
		t.Errorf("RecentBatchRuns: got %+v", runs)
	}
}
