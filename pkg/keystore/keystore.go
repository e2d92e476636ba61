package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	"cosmos-core/pkg/errno"
	"cosmos-core/pkg/safe_random"
)

// EncryptedKeyJSON 遵循 Ethereum Keystore V3 的结构风格
// 但为了简单和通用，我们存储的是 "助记词" (Mnemonic) 而不是单个私钥
type EncryptedKeyJSON struct {
	Crypto  CryptoJSON `json:"crypto"`
	Id      string     `json:"id"`      // UUID
	Version int        `json:"version"` // 3
	Address string     `json:"address,omitempty"`
}

type CryptoJSON struct {
	Cipher       string       `json:"cipher"`       // "aes-256-gcm"
	CipherText   string       `json:"ciphertext"`   // Hex string
	CipherParams CipherParams `json:"cipherparams"` // IV
	KDF          string       `json:"kdf"`          // "scrypt"
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"` // Hex string
}

type CipherParams struct {
	IV string `json:"iv"` // Hex string
}

type KDFParams struct {
	DKLen int    `json:"dklen"` // Derived Key Length (32)
	N     int    `json:"n"`     // Scrypt N (262144)
	R     int    `json:"r"`     // Scrypt r (8)
	P     int    `json:"p"`     // Scrypt p (1)
	Salt  string `json:"salt"`  // Hex string
}

// ScryptParams scrypt 成本参数
type ScryptParams struct {
	N int
	R int
	P int
}

var (
	// StandardScrypt 生产使用
	StandardScrypt = ScryptParams{N: 262144, R: 8, P: 1}
	// LightScrypt 测试和低配设备使用
	LightScrypt = ScryptParams{N: 4096, R: 8, P: 1}
)

const (
	keystoreVersion = 3
	cipherName      = "aes-256-gcm"
	kdfName         = "scrypt"
	scryptDKLen     = 32
)

// EncryptMnemonic 将助记词使用密码加密为 JSON 结构
func EncryptMnemonic(mnemonic, password string) (*EncryptedKeyJSON, error) {
	return EncryptMnemonicWithParams(mnemonic, password, StandardScrypt)
}

// EncryptMnemonicWithParams 同 EncryptMnemonic，可指定 scrypt 参数
func EncryptMnemonicWithParams(mnemonic, password string, params ScryptParams) (*EncryptedKeyJSON, error) {
	// 1. 生成随机 Salt
	salt, err := safe_random.GenerateRandomBytes(32)
	if err != nil {
		return nil, err
	}

	// 2. 使用 Scrypt 派生密钥，直接用作 AES-256-GCM 的 Key
	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, scryptDKLen)
	if err != nil {
		return nil, errno.Wrap(errno.ErrKeystoreFormat, err, "scrypt params")
	}
	defer zero(derivedKey)

	// 3. 使用 AES-256-GCM 加密
	gcm, err := newGCM(derivedKey)
	if err != nil {
		return nil, err
	}
	nonce, err := safe_random.GenerateRandomBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, []byte(mnemonic), nil)

	// 4. MAC = SHA256(derivedKey + ciphertext)，解密前先用它区分密码错误
	mac := computeMAC(derivedKey, ciphertext)

	// 5. 构造 JSON
	return &EncryptedKeyJSON{
		Version: keystoreVersion,
		Id:      uuid.New().String(),
		Crypto: CryptoJSON{
			Cipher:     cipherName,
			CipherText: hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{
				IV: hex.EncodeToString(nonce),
			},
			KDF: kdfName,
			KDFParams: KDFParams{
				DKLen: scryptDKLen,
				N:     params.N,
				R:     params.R,
				P:     params.P,
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(mac),
		},
	}, nil
}

// DecryptMnemonic 解密 Keystore JSON 获取助记词
func DecryptMnemonic(keyJSON *EncryptedKeyJSON, password string) (string, error) {
	if keyJSON.Version != keystoreVersion || keyJSON.Crypto.Cipher != cipherName || keyJSON.Crypto.KDF != kdfName {
		return "", errno.Newf(errno.ErrKeystoreFormat, "version %d cipher %q kdf %q",
			keyJSON.Version, keyJSON.Crypto.Cipher, keyJSON.Crypto.KDF)
	}

	// 1. 解析 Hex 参数
	salt, err := parseHex("salt", keyJSON.Crypto.KDFParams.Salt)
	if err != nil {
		return "", err
	}
	nonce, err := parseHex("iv", keyJSON.Crypto.CipherParams.IV)
	if err != nil {
		return "", err
	}
	ciphertext, err := parseHex("ciphertext", keyJSON.Crypto.CipherText)
	if err != nil {
		return "", err
	}
	mac, err := parseHex("mac", keyJSON.Crypto.MAC)
	if err != nil {
		return "", err
	}

	// 2. 重新派生密钥
	p := keyJSON.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return "", errno.Wrap(errno.ErrKeystoreFormat, err, "scrypt params")
	}
	defer zero(derivedKey)

	// 3. 验证 MAC (常量时间比较)
	if subtle.ConstantTimeCompare(mac, computeMAC(derivedKey, ciphertext)) != 1 {
		return "", errno.New(errno.ErrKeystoreAuth, "MAC mismatch")
	}

	// 4. 解密
	gcm, err := newGCM(derivedKey)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", errno.Newf(errno.ErrKeystoreFormat, "iv is %d bytes", len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errno.Wrap(errno.ErrKeystoreAuth, err, "decrypt")
	}
	defer zero(plaintext)

	return string(plaintext), nil
}

// SaveToFile 保存到文件
func (k *EncryptedKeyJSON) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0600) // 0600 is important
}

// LoadFromFile 从文件加载
func LoadFromFile(filename string) (*EncryptedKeyJSON, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var k EncryptedKeyJSON
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, errno.Wrap(errno.ErrKeystoreFormat, err, filename)
	}
	return &k, nil
}

// --- Helpers ---

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errno.Wrap(errno.ErrKeystoreFormat, err, "aes key")
	}
	return cipher.NewGCM(block)
}

func computeMAC(derivedKey, ciphertext []byte) []byte {
	h := sha256.New()
	h.Write(derivedKey)
	h.Write(ciphertext)
	return h.Sum(nil)
}

func parseHex(field, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errno.Wrap(errno.ErrKeystoreFormat, err, field)
	}
	return b, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
