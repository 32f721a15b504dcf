package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/roadmapper/internal/server"
	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestAPI runs the real server handler over miniredis
func setupTestAPI(t *testing.T) (*Client, *roadmap.Client) {
	mr := miniredis.RunT(t)

	store, err := roadmap.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := server.New(store, server.Options{
		Admin:       roadmap.AdminCredentials{Username: "admin", Password: "admin-pw"},
		DefaultUser: roadmap.User{Username: "owner", Password: "owner-pw", ProjectID: "vision-2026"},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return New(ts.URL+"/", 5*time.Second), store
}

func TestRoadmapRoundTrip(t *testing.T) {
	client, _ := setupTestAPI(t)
	ctx := context.Background()

	_, err := client.GetRoadmap(ctx, "vision-2026")
	assert.True(t, roadmap.IsNotFound(err))

	r := roadmap.NewDefault(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	r.Title = "Via API"
	require.NoError(t, client.SaveRoadmap(ctx, "vision-2026", r))

	got, err := client.GetRoadmap(ctx, "vision-2026")
	require.NoError(t, err)
	assert.Equal(t, "Via API", got.Title)
	assert.True(t, r.UpdatedAt.Equal(got.UpdatedAt))

	t.Run("project ids are escaped", func(t *testing.T) {
		require.NoError(t, client.SaveRoadmap(ctx, "team a&b", r))
		got, err := client.GetRoadmap(ctx, "team a&b")
		require.NoError(t, err)
		assert.Equal(t, r.ID, got.ID)
	})

	t.Run("rejected roadmap", func(t *testing.T) {
		bad := r.Clone()
		bad.ID = ""
		err := client.SaveRoadmap(ctx, "vision-2026", bad)
		require.Error(t, err)
		assert.True(t, IsStatus(err, http.StatusBadRequest))
	})
}

func TestAuthFlow(t *testing.T) {
	client, _ := setupTestAPI(t)
	ctx := context.Background()

	_, err := client.AdminLogin(ctx, "admin", "admin-pw")
	assert.ErrorIs(t, err, roadmap.ErrAdminNotInitialised)

	result, err := client.Setup(ctx)
	require.NoError(t, err)
	assert.False(t, result.Migrated)
	assert.Equal(t, "owner", result.DefaultUser)

	_, err = client.AdminLogin(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, roadmap.ErrInvalidCredentials)

	token, err := client.AdminLogin(ctx, "admin", "admin-pw")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	require.NoError(t, client.CreateUser(ctx, &roadmap.User{Username: "ann", Password: "pw", ProjectID: "vision-2026"}))
	err = client.CreateUser(ctx, &roadmap.User{Username: "ann", Password: "pw", ProjectID: "vision-2026"})
	assert.ErrorIs(t, err, roadmap.ErrUserExists)
	assert.True(t, IsStatus(err, http.StatusConflict))

	user, err := client.Login(ctx, "ann", "pw", "vision-2026")
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)
	assert.Empty(t, user.Password)

	_, err = client.Login(ctx, "ann", "wrong", "vision-2026")
	assert.ErrorIs(t, err, roadmap.ErrInvalidCredentials)

	_, err = client.Login(ctx, "ann", "", "vision-2026")
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestHealth(t *testing.T) {
	client, _ := setupTestAPI(t)
	assert.NoError(t, client.Health(context.Background()))

	t.Run("unreachable server", func(t *testing.T) {
		client := New("http://127.0.0.1:1", time.Second)
		err := client.Health(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to reach server")
	})
}

func TestStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to load data","details":"redis down"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, time.Second).GetRoadmap(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, "server returned status 500: Failed to load data (redis down)", err.Error())
	assert.False(t, roadmap.IsNotFound(err))
}
