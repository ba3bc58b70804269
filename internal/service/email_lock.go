package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const emailClaimPrefix = "intake:email:"

// EmailLock claims an email for the duration of one submission. ok is false when
// another submission currently holds the claim.
type EmailLock interface {
	Claim(ctx context.Context, email string) (release func(), ok bool, err error)
}

type noopEmailLock struct{}

// NoopEmailLock grants every claim.
func NoopEmailLock() EmailLock {
	return noopEmailLock{}
}

func (noopEmailLock) Claim(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}

// releaseScript deletes the claim only if it still carries our token, so an
// expired claim taken over by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisEmailLock struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisEmailLock(client redis.Cmdable, ttl time.Duration) EmailLock {
	return &redisEmailLock{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisEmailLock) Claim(ctx context.Context, email string) (func(), bool, error) {
	key := emailClaimPrefix + strings.ToLower(email)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	release := func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Err()
	}
	return release, true, nil
}
