package db

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{Redis: config.RedisConfig{URL: "redis://" + mr.Addr()}}
	client, err := ConnectRedis(cfg)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 3*time.Second, client.Options().ReadTimeout)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	opt := &redis.Options{PoolSize: 50, DialTimeout: time.Second}
	applyDefaults(opt)

	assert.Equal(t, 50, opt.PoolSize)
	assert.Equal(t, time.Second, opt.DialTimeout)
	assert.Equal(t, 2, opt.MaxRetries)
}

func TestConnectRedis_BadURL(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{URL: "://nope"}}
	_, err := ConnectRedis(cfg)
	assert.Error(t, err)
}
