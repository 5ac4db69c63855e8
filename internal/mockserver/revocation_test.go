package mockserver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"playground/internal/testutil"

	"github.com/alicebob/miniredis/v2"
)

func TestExpiringSetExpiry(t *testing.T) {
	set := newExpiringSet(2)
	now := time.Now()
	set.now = func() time.Time { return now }
	set.Add("a", 10*time.Millisecond)

	testutil.AssertTrue(t, set.Contains("a"), "expected member")
	now = now.Add(20 * time.Millisecond)
	testutil.AssertFalse(t, set.Contains("a"), "expected member to expire")
	testutil.AssertEqual(t, set.Len(), 0)
}

func TestExpiringSetKeepsLiveMembersWhenFull(t *testing.T) {
	set := newExpiringSet(2)
	now := time.Now()
	set.now = func() time.Time { return now }
	testutil.MustNoError(t, set.Add("a", time.Minute))
	testutil.MustNoError(t, set.Add("b", time.Hour))

	err := set.Add("c", time.Hour)
	testutil.AssertTrue(t, errors.Is(err, errSetFull), "expected full set error")
	testutil.AssertTrue(t, set.Contains("a"), "live member must not be evicted")
	testutil.AssertTrue(t, set.Contains("b"), "live member must not be evicted")

	now = now.Add(2 * time.Minute)
	testutil.MustNoError(t, set.Add("c", time.Hour))
	testutil.AssertFalse(t, set.Contains("a"), "expired member should be pruned")
	testutil.AssertTrue(t, set.Contains("c"), "expected new member after pruning")
	testutil.AssertEqual(t, set.Len(), 2)
}

func TestExpiringSetAddIfAbsent(t *testing.T) {
	set := newExpiringSet(4)

	added, err := set.AddIfAbsent("a", time.Minute)
	testutil.MustNoError(t, err)
	testutil.AssertTrue(t, added, "first insert should add")

	added, err = set.AddIfAbsent("a", time.Minute)
	testutil.MustNoError(t, err)
	testutil.AssertFalse(t, added, "second insert should report existing member")
}

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore(8)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "h1")
	testutil.MustNoError(t, err)
	testutil.AssertFalse(t, revoked, "fresh hash should not be revoked")

	testutil.MustNoError(t, store.Revoke(ctx, "h1", time.Minute))
	revoked, err = store.IsRevoked(ctx, "h1")
	testutil.MustNoError(t, err)
	testutil.AssertTrue(t, revoked, "hash should be revoked")

	added, err := store.RevokeIfAbsent(ctx, "h1", time.Minute)
	testutil.MustNoError(t, err)
	testutil.AssertFalse(t, added, "already revoked hash should not be added again")
	added, err = store.RevokeIfAbsent(ctx, "h2", time.Minute)
	testutil.MustNoError(t, err)
	testutil.AssertTrue(t, added, "new hash should be revoked")
}

func TestMemoryRevocationStoreFull(t *testing.T) {
	store := NewMemoryRevocationStore(1)
	ctx := context.Background()

	testutil.MustNoError(t, store.Revoke(ctx, "h1", time.Hour))
	testutil.AssertTrue(t, store.Revoke(ctx, "h2", time.Hour) != nil, "expected error when store is full")
	_, err := store.RevokeIfAbsent(ctx, "h3", time.Hour)
	testutil.AssertTrue(t, err != nil, "expected error when store is full")

	revoked, err := store.IsRevoked(ctx, "h1")
	testutil.MustNoError(t, err)
	testutil.AssertTrue(t, revoked, "existing revocation must survive")
}

func TestRedisRevocationStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisRevocationStore(RedisConfig{Addr: mr.Addr()})
	testutil.MustNoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	testutil.MustNoError(t, store.Ping(ctx))

	revoked, err := store.IsRevoked(ctx, "h1")
	testutil.MustNoError(t, err)
	testutil.AssertFalse(t, revoked, "fresh hash should not be revoked")

	testutil.MustNoError(t, store.Revoke(ctx, "h1", time.Minute))
	revoked, err = store.IsRevoked(ctx, "h1")
	testutil.MustNoError(t, err)
	testutil.AssertTrue(t, revoked, "hash should be revoked")
	testutil.AssertTrue(t, mr.Exists(revokedKeyPrefix+"h1"), "key should be stored in redis")

	added, err := store.RevokeIfAbsent(ctx, "h1", time.Minute)
	testutil.MustNoError(t, err)
	testutil.AssertFalse(t, added, "already revoked hash should not be added again")

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "h1")
	testutil.MustNoError(t, err)
	testutil.AssertFalse(t, revoked, "revocation should expire with the token")
}

func TestRedisRevocationStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisRevocationStore(RedisConfig{Addr: mr.Addr(), ReadTimeout: 100 * time.Millisecond})
	testutil.MustNoError(t, err)
	defer func() { _ = store.Close() }()
	mr.Close()

	_, err = store.IsRevoked(context.Background(), "h1")
	testutil.AssertTrue(t, err != nil, "expected error when redis is down")
}

func TestRefreshWithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisRevocationStore(RedisConfig{Addr: mr.Addr()})
	testutil.MustNoError(t, err)
	defer func() { _ = store.Close() }()

	svc, err := NewAuthService(AuthConfig{JWTSecret: "s"}, store)
	testutil.MustNoError(t, err)
	ctx := context.Background()

	session, err := svc.Login(ctx, "vben", "123456")
	testutil.MustNoError(t, err)
	_, err = svc.Refresh(ctx, session.RefreshToken)
	testutil.MustNoError(t, err)
	_, err = svc.Refresh(ctx, session.RefreshToken)
	testutil.AssertTrue(t, err != nil, "reused refresh token must be rejected")
	testutil.AssertEqual(t, len(mr.Keys()), 1)
}

func TestRefreshRaceWithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisRevocationStore(RedisConfig{Addr: mr.Addr()})
	testutil.MustNoError(t, err)
	defer func() { _ = store.Close() }()

	svc, err := NewAuthService(AuthConfig{JWTSecret: "s"}, store)
	testutil.MustNoError(t, err)
	session, err := svc.Login(context.Background(), "vben", "123456")
	testutil.MustNoError(t, err)

	testutil.AssertEqual(t, countConcurrentRefreshes(svc, session.RefreshToken, 50), 1)
}

func countConcurrentRefreshes(svc *AuthService, raw string, workers int) int {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := svc.Refresh(context.Background(), raw); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()
	return succeeded
}
