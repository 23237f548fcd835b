package utils_test

import (
	"strings"
	"testing"

	"github.com/neekunjshah/petty-cash/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestHashPassword 测试密码哈希与校验
func TestHashPassword(t *testing.T) {
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.True(t, utils.VerifyPassword("password123", hash))
	assert.False(t, utils.VerifyPassword("password124", hash))

	_, err = utils.HashPassword("short")
	assert.ErrorIs(t, err, utils.ErrPasswordTooShort)
}

// TestDummyPasswordHash 测试占位哈希与真实哈希开销一致且不匹配常见密码
func TestDummyPasswordHash(t *testing.T) {
	hash := utils.DummyPasswordHash()
	require.NotEmpty(t, hash)
	assert.Equal(t, hash, utils.DummyPasswordHash())

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.False(t, utils.VerifyPassword("password123", hash))
}

// TestValidateID 测试 ID 解析
func TestValidateID(t *testing.T) {
	id, err := utils.ValidateID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "1; DROP TABLE expenses"} {
		_, err := utils.ValidateID(bad)
		assert.Error(t, err, bad)
	}
}

// TestTrimAndValidate 测试字符串清理
func TestTrimAndValidate(t *testing.T) {
	s, err := utils.TrimAndValidate("  Taxi\x00 ride ", 500)
	require.NoError(t, err)
	assert.Equal(t, "Taxi ride", s)

	_, err = utils.TrimAndValidate("   ", 10)
	assert.ErrorIs(t, err, utils.ErrEmptyString)

	// 按字符而非字节计算长度
	_, err = utils.TrimAndValidate(strings.Repeat("é", 120), 120)
	assert.NoError(t, err)
	_, err = utils.TrimAndValidate(strings.Repeat("é", 121), 120)
	assert.ErrorIs(t, err, utils.ErrStringTooLong)
}

// TestValidateEmailAndUsername 测试邮箱与用户名
func TestValidateEmailAndUsername(t *testing.T) {
	assert.NoError(t, utils.ValidateEmail("employee@example.com"))
	assert.Error(t, utils.ValidateEmail("Employee <employee@example.com>"))
	assert.Error(t, utils.ValidateEmail("nope"))

	assert.NoError(t, utils.ValidateUsername("jane.doe"))
	assert.Error(t, utils.ValidateUsername("jane doe"))
	assert.Error(t, utils.ValidateUsername(""))
}

// TestValidateSortField 测试排序字段白名单
func TestValidateSortField(t *testing.T) {
	col, err := utils.ValidateSortField("Amount")
	require.NoError(t, err)
	assert.Equal(t, "amount", col)

	_, err = utils.ValidateSortField("amount; DROP TABLE expenses")
	assert.Error(t, err)

	assert.Equal(t, "ASC", utils.SanitizeSortOrder("asc"))
	assert.Equal(t, "DESC", utils.SanitizeSortOrder("sideways"))
	assert.Error(t, utils.ValidateSortOrder("up"))
}
