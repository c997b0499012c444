package cartstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Redisが落ちていてもリクエストを巻き込まないよう、短いtimeoutで接続する。
func TestNewRedisStore_SetsTimeouts(t *testing.T) {
	s := NewRedisStore("localhost:6379")

	opt := s.rdb.Options()
	assert.Equal(t, 2*time.Second, opt.DialTimeout)
	assert.Equal(t, 2*time.Second, opt.ReadTimeout)
	assert.Equal(t, 2*time.Second, opt.WriteTimeout)
}
