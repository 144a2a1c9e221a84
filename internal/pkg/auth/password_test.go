package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashAndVerifyPassword(t *testing.T) {
	pm := NewPasswordManager(nil)

	hash, err := pm.HashPassword("admin@123")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := pm.VerifyPassword("admin@123", hash)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = pm.VerifyPassword("wrong-password", hash)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	pm := NewPasswordManager(nil)

	_, err := pm.HashPassword("")
	assert.Error(t, err)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	pm := NewPasswordManager(nil)

	h1, err := pm.HashPassword("same-input")
	assert.NoError(t, err)
	h2, err := pm.HashPassword("same-input")
	assert.NoError(t, err)

	// 随机盐,相同口令的两次哈希不应相同
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	pm := NewPasswordManager(nil)

	_, err := pm.VerifyPassword("whatever", "not-an-encoded-hash")
	assert.Error(t, err)
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("abc123"))
	assert.Error(t, ValidatePasswordStrength("abc"))       // 过短
	assert.Error(t, ValidatePasswordStrength("abcdef"))    // 缺数字
	assert.Error(t, ValidatePasswordStrength("123456"))    // 缺字母
	assert.Error(t, ValidatePasswordStrength(strings.Repeat("a1", 65))) // 过长
}

func TestGenerateRandomPassword(t *testing.T) {
	pwd, err := GenerateRandomPassword(16)
	assert.NoError(t, err)
	assert.Len(t, pwd, 16)

	// 低于下限时自动提升到最小长度
	pwd, err = GenerateRandomPassword(2)
	assert.NoError(t, err)
	assert.Len(t, pwd, 6)
}
