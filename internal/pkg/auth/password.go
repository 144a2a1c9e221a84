/**
 * 工具类:密码工具
 * @author: linkc
 * @date: 2025.12.03
 * @description: Argon2id口令哈希与校验,编码格式与PHC字符串约定一致
 * @func:
 * 	1.哈希密码
 * 	2.验证密码
 * 	3.密码强度校验
 */
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// 密码长度上下限,注册与重置共用
const (
	passwordMinLength = 6
	passwordMaxLength = 128
)

var (
	errEmptyPassword   = errors.New("password cannot be empty")
	errMalformedHash   = errors.New("invalid hash format")
	errUnknownAlgo     = errors.New("unsupported algorithm")
	errVersionMismatch = errors.New("incompatible version")
)

// PasswordConfig Argon2id参数
type PasswordConfig struct {
	Memory      uint32 // 内存使用量 (KB)
	Iterations  uint32 // 迭代次数
	Parallelism uint8  // 并行度
	SaltLength  uint32 // 盐长度
	KeyLength   uint32 // 密钥长度
}

// DefaultPasswordConfig 默认参数,64MB内存3次迭代
var DefaultPasswordConfig = &PasswordConfig{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordManager 密码管理器
type PasswordManager struct {
	config *PasswordConfig
}

// NewPasswordManager 创建密码管理器,config为空时使用默认参数
func NewPasswordManager(config *PasswordConfig) *PasswordManager {
	if config == nil {
		config = DefaultPasswordConfig
	}
	return &PasswordManager{config: config}
}

// HashPassword 生成随机盐并以Argon2id哈希口令
// 输出格式: $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
func (pm *PasswordManager) HashPassword(password string) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}

	salt, err := generateRandomBytes(pm.config.SaltLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		pm.config.Iterations,
		pm.config.Memory,
		pm.config.Parallelism,
		pm.config.KeyLength,
	)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		pm.config.Memory,
		pm.config.Iterations,
		pm.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// VerifyPassword 用哈希串中携带的参数重算并常量时间比较
func (pm *PasswordManager) VerifyPassword(password, encodedHash string) (bool, error) {
	if password == "" || encodedHash == "" {
		return false, errors.New("password and hash cannot be empty")
	}

	config, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	otherHash := argon2.IDKey(
		[]byte(password),
		salt,
		config.Iterations,
		config.Memory,
		config.Parallelism,
		config.KeyLength,
	)
	return subtle.ConstantTimeCompare(hash, otherHash) == 1, nil
}

// decodeHash 解析编码后的哈希串,取出参数/盐/哈希
func decodeHash(encodedHash string) (*PasswordConfig, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, nil, errMalformedHash
	}
	if parts[1] != "argon2id" {
		return nil, nil, nil, errUnknownAlgo
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, nil, errVersionMismatch
	}

	config := &PasswordConfig{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&config.Memory, &config.Iterations, &config.Parallelism); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid salt: %w", err)
	}
	config.SaltLength = uint32(len(salt))

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid hash: %w", err)
	}
	config.KeyLength = uint32(len(hash))

	return config, salt, hash, nil
}

// generateRandomBytes 生成密码学安全的随机字节
func generateRandomBytes(n uint32) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ValidatePasswordStrength 校验口令长度并要求同时包含字母和数字
func ValidatePasswordStrength(password string) error {
	if len(password) < passwordMinLength {
		return fmt.Errorf("password must be at least %d characters long", passwordMinLength)
	}
	if len(password) > passwordMaxLength {
		return fmt.Errorf("password must be no more than %d characters long", passwordMaxLength)
	}

	var hasLetter, hasDigit bool
	for _, char := range password {
		switch {
		case char >= 'a' && char <= 'z', char >= 'A' && char <= 'Z':
			hasLetter = true
		case char >= '0' && char <= '9':
			hasDigit = true
		}
		if hasLetter && hasDigit {
			return nil
		}
	}

	if !hasLetter {
		return errors.New("password must contain at least one letter")
	}
	return errors.New("password must contain at least one digit")
}

// GenerateRandomPassword 生成指定长度的随机密码,长度越界时收敛到上下限
func GenerateRandomPassword(length int) (string, error) {
	if length < passwordMinLength {
		length = passwordMinLength
	}
	if length > passwordMaxLength {
		length = passwordMaxLength
	}

	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"
	raw, err := generateRandomBytes(uint32(length))
	if err != nil {
		return "", err
	}
	b := make([]byte, length)
	for i, r := range raw {
		b[i] = charset[int(r)%len(charset)]
	}
	return string(b), nil
}
