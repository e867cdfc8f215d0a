package session

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestTracker_RoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker("secret", time.Hour, false).WithClock(fixedClock(now))

	st := tr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, st.ID)
	assert.Empty(t, st.SubmittedIDs())

	st.AddSubmitted("case-1")
	st.AddConfirmed("case-2")
	st.AddVoted("case-3")

	rec := httptest.NewRecorder()
	require.NoError(t, tr.Save(rec, st))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	got := tr.Load(req)

	assert.Equal(t, st.ID, got.ID)
	assert.Equal(t, []string{"case-1"}, got.SubmittedIDs())
	assert.True(t, got.HasConfirmed("case-2"))
	assert.False(t, got.HasConfirmed("case-1"))
	assert.True(t, got.HasVoted("case-3"))
}

func TestTracker_CookieAttributes(t *testing.T) {
	tr := NewTracker("secret", time.Hour, true)
	rec := httptest.NewRecorder()
	require.NoError(t, tr.Save(rec, State{ID: "abc"}))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestTracker_RejectsForeignSignature(t *testing.T) {
	token, err := NewTracker("other", time.Hour, false).Encode(State{ID: "abc"})
	require.NoError(t, err)

	_, err = NewTracker("secret", time.Hour, false).Decode(token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestTracker_RejectsExpired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	token, err := NewTracker("secret", time.Hour, false).WithClock(fixedClock(issued)).Encode(State{ID: "abc"})
	require.NoError(t, err)

	_, err = NewTracker("secret", time.Hour, false).Decode(token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestTracker_InvalidCookieStartsFreshSession(t *testing.T) {
	tr := NewTracker("secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})

	st := tr.Load(req)
	assert.NotEmpty(t, st.ID)
	assert.Empty(t, st.SubmittedIDs())
}

func TestState_TrackDedupesAndCaps(t *testing.T) {
	var st State
	st.AddSubmitted("a")
	st.AddSubmitted("a")
	st.AddSubmitted("")
	assert.Equal(t, []string{"a"}, st.SubmittedIDs())

	for i := 0; i < MaxTracked+5; i++ {
		st.AddConfirmed(fmt.Sprintf("c-%d", i))
	}
	assert.Len(t, st.Confirmed, MaxTracked)
	assert.False(t, st.HasConfirmed("c-0"))
	assert.True(t, st.HasConfirmed(fmt.Sprintf("c-%d", MaxTracked+4)))
}

func TestSubmitterHash(t *testing.T) {
	a := SubmitterHash("salt", "session-1")
	assert.Len(t, a, 64)
	assert.Equal(t, a, SubmitterHash("salt", "session-1"))
	assert.NotEqual(t, a, SubmitterHash("salt", "session-2"))
	assert.NotEqual(t, a, SubmitterHash("pepper", "session-1"))
	assert.Empty(t, SubmitterHash("salt", ""))
}
