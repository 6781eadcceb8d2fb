package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/slotwise/bookingd/internal/config"
	"github.com/slotwise/bookingd/pkg/logging"
)

func TestBuildRedisClientDisabledWithoutAddr(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.New("error"), false); client != nil {
		t.Fatalf("expected nil client when REDIS_ADDR empty")
	}
	if client := BuildRedisClient(context.Background(), nil, logging.New("error"), false); client != nil {
		t.Fatalf("expected nil client for nil config")
	}
}

func TestBuildRedisClientVerifiesPing(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &appconfig.Config{RedisAddr: mr.Addr()}
	client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	if client == nil {
		t.Fatalf("expected client for reachable redis")
	}
	defer client.Close()
}

func TestBuildRedisClientReturnsNilWhenUnreachable(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	if client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client when ping fails")
	}
}

func TestBuildDBPoolRequiresURL(t *testing.T) {
	if _, err := BuildDBPool(context.Background(), &appconfig.Config{}); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
	if _, err := BuildDBPool(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestBuildNotifyServiceWithoutKey(t *testing.T) {
	svc := BuildNotifyService(&appconfig.Config{}, logging.New("error"))
	if svc == nil {
		t.Fatalf("expected a notify service even with email disabled")
	}
}
