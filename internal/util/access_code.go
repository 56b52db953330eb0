package util

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// AccessCodeAlphabet 去掉了 0/O、1/I 等易混字符；长度 32 可整除 256，取模无偏
const AccessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NormalizeAccessCode 学生输入的访问码统一去空格、转大写
func NormalizeAccessCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// DigestAccessCode 计算访问码的带密钥摘要（BLAKE2b-256，hex 编码），数据库只按摘要查询
func DigestAccessCode(code, secret string) string {
	key := blake2b.Sum256([]byte(secret))
	h, _ := blake2b.New256(key[:])
	h.Write([]byte(NormalizeAccessCode(code)))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateAccessCode 使用 crypto/rand 生成指定长度的访问码
func GenerateAccessCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultAccessCodeLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = AccessCodeAlphabet[int(b)%len(AccessCodeAlphabet)]
	}
	return string(buf), nil
}
