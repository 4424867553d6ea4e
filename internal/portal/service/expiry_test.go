package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/store"
	"github.com/aussiebroadwan/dentaldesk/pkg/slogx"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestExpiryWatcher(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	s, kv := newTestSession(&fakeAPI{})
	require.NoError(t, kv.Set(ctx, store.KeyAuthToken, makeToken(t, "patient", testNow.Add(time.Minute))))
	s.Restore(ctx)

	var expired atomic.Bool
	s.Now = func() time.Time {
		if expired.Load() {
			return testNow.Add(time.Hour)
		}
		return testNow
	}

	ended := make(chan domain.Session, 1)
	s.Subscribe(func(sess domain.Session) { ended <- sess })

	w := NewExpiryWatcher(s, slogx.Discard(), 5*time.Millisecond)
	w.Start()
	defer w.Stop()

	expired.Store(true)

	select {
	case sess := <-ended:
		require.Equal(t, domain.Anonymous, sess.State)
	case <-time.After(2 * time.Second):
		t.Fatal("session was not expired")
	}
}

func TestExpiryWatcherPicksUpStoredLogin(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	s, kv := newTestSession(&fakeAPI{})
	s.Restore(ctx)

	signedIn := make(chan domain.Session, 1)
	s.Subscribe(func(sess domain.Session) {
		if sess.IsAuthenticated() {
			select {
			case signedIn <- sess:
			default:
			}
		}
	})

	w := NewExpiryWatcher(s, slogx.Discard(), 5*time.Millisecond)
	w.Start()
	defer w.Stop()

	require.NoError(t, kv.Set(ctx, store.KeyAuthToken, makeToken(t, "doctor", testNow.Add(time.Hour))))

	select {
	case sess := <-signedIn:
		require.Equal(t, domain.RoleDoctor, sess.Role())
	case <-time.After(2 * time.Second):
		t.Fatal("stored login was not picked up")
	}
}

func TestExpiryWatcherStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _ := newTestSession(&fakeAPI{})

	t.Run("never started", func(t *testing.T) {
		w := NewExpiryWatcher(s, slogx.Discard(), time.Hour)
		w.Stop()
		w.Start()
		w.Stop()
	})

	t.Run("twice", func(t *testing.T) {
		w := NewExpiryWatcher(s, slogx.Discard(), time.Hour)
		w.Start()
		w.Start()
		w.Stop()
		w.Stop()
	})
}
