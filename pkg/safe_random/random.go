package safe_random

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Reader 密钥材料使用的随机源，默认为 crypto/rand.Reader。
// 测试中可替换为确定性的 Reader，生产代码不要修改。
var Reader io.Reader = rand.Reader

// GenerateRandomBytes 生成指定长度的安全随机字节切片。
// 只有读满 n 个字节才返回成功。
func GenerateRandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("随机字节长度必须为正数: %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, fmt.Errorf("生成随机字节失败: %w", err)
	}
	return b, nil
}

// Entropy 生成 BIP-39 熵，bitSize 必须是 [128, 256] 内 32 的倍数
func Entropy(bitSize int) ([]byte, error) {
	if bitSize%32 != 0 || bitSize < 128 || bitSize > 256 {
		return nil, fmt.Errorf("熵长度无效: %d bits", bitSize)
	}
	return GenerateRandomBytes(bitSize / 8)
}
