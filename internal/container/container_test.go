package container_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/neekunjshah/petty-cash/internal/config"
	"github.com/neekunjshah/petty-cash/internal/container"
	"github.com/neekunjshah/petty-cash/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(dir, "test.db")}
	cfg.Signature.Root = filepath.Join(dir, "signatures")
	return cfg
}

func TestNewContainer(t *testing.T) {
	ctr, err := container.NewContainer(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer ctr.Close()

	assert.NotNil(t, ctr.DB())
	assert.NotNil(t, ctr.Persister())
	assert.NotNil(t, ctr.Sessions())
	assert.NotNil(t, ctr.AccountService())
	assert.NotNil(t, ctr.ExpenseService())

	count, err := ctr.AccountService().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	router, err := ctr.Router()
	require.NoError(t, err)
	assert.NotEmpty(t, router.Routes())
}

func TestNewContainer_InvalidSignatureRoot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Signature.Root = "gs://"

	_, err := container.NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestContainer_AccountsPersist(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	ctr, err := container.NewContainer(ctx, cfg)
	require.NoError(t, err)
	_, err = ctr.AccountService().Create(ctx, &service.CreateAccountRequest{
		Username: "dave",
		Email:    "dave@example.com",
		Password: "password123",
		Role:     "senior",
	})
	require.NoError(t, err)
	require.NoError(t, ctr.Close())

	// 重新打开同一数据库,迁移可重复执行
	ctr, err = container.NewContainer(ctx, cfg)
	require.NoError(t, err)
	defer ctr.Close()

	account, err := ctr.AccountService().Authenticate(ctx, "dave", "password123")
	require.NoError(t, err)
	assert.Equal(t, "dave@example.com", account.Email)
}
