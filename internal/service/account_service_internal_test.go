package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/neekunjshah/petty-cash/internal/config"
	"github.com/neekunjshah/petty-cash/internal/database"
	"github.com/neekunjshah/petty-cash/internal/repository"
	"github.com/neekunjshah/petty-cash/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAuthenticate_UnknownAccountComparesHash 测试账户不存在时同样执行一次密码比较
func TestAuthenticate_UnknownAccountComparesHash(t *testing.T) {
	db, err := database.Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	svc := NewAccountService(repository.NewAccountRepository(db), nil).(*accountService)
	_, err = svc.Create(context.Background(), &CreateAccountRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123", FullName: "Alice", Role: "employee",
	})
	require.NoError(t, err)

	var hashes []string
	svc.verifyPassword = func(password, hash string) bool {
		hashes = append(hashes, hash)
		return utils.VerifyPassword(password, hash)
	}

	for _, login := range []string{"nobody@example.com", "nobody"} {
		hashes = nil
		_, err = svc.Authenticate(context.Background(), login, "password123")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, []string{utils.DummyPasswordHash()}, hashes, login)
	}

	hashes = nil
	_, err = svc.Authenticate(context.Background(), "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.Len(t, hashes, 1)
	assert.NotEqual(t, utils.DummyPasswordHash(), hashes[0])
}
