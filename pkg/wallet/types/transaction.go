package types

import (
	"encoding/base64"
	"encoding/json"
	"os"
)

// UnsignedTransaction represents a transaction waiting to be signed.
// It contains all necessary fields for a cold wallet to sign, plus metadata for the user to verify.
type UnsignedTransaction struct {
	ChainID       string `json:"chain_id"`                 // cosmoshub-4
	From          string `json:"from"`                     // Sender Address (bech32)
	To            string `json:"to"`                       // Recipient Address (bech32)
	Amount        string `json:"amount"`                   // Coins, e.g. "100uatom"
	Memo          string `json:"memo,omitempty"`           // Tx memo
	AccountNumber uint64 `json:"account_number"`           // On-chain account number
	Sequence      uint64 `json:"sequence"`                 // Account sequence (nonce)
	GasLimit      uint64 `json:"gas_limit"`                // Gas limit
	Fee           string `json:"fee"`                      // Coins, e.g. "5000uatom"
	TimeoutHeight uint64 `json:"timeout_height,omitempty"` // 0 = no timeout
	SignMode      string `json:"sign_mode"`                // "direct" or "legacy-json"

	// DerivationPath is crucial for the signer to know which key to use
	// e.g., "m/44'/118'/0'/0/0"
	DerivationPath string `json:"derivation_path"`
}

// SignedTransaction represents the result of the signing process.
type SignedTransaction struct {
	TxHash    string `json:"tx_hash"`   // Upper-case hex SHA-256 of TxBytes
	TxBytes   string `json:"tx_bytes"`  // Base64 TxRaw (ready to broadcast)
	SignMode  string `json:"sign_mode"` // Mode the signature was produced in
	Signature string `json:"signature"` // Hex r||s
	PubKey    string `json:"pub_key"`   // Hex compressed public key
}

// RawTx 解码广播用的 TxRaw 字节
func (s *SignedTransaction) RawTx() ([]byte, error) {
	return base64.StdEncoding.DecodeString(s.TxBytes)
}

// WriteFile 以缩进 JSON 写文件
func WriteFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile 读取 JSON 文件到 v
func ReadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
