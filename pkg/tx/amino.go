package tx

import (
	"bytes"
	"encoding/json"
	"strconv"

	"cosmos-core/pkg/errno"
)

// marshalLegacySignDoc 生成 StdSignDoc 的规范 JSON：键按字典序、无空白、数字用字符串
func marshalLegacySignDoc(signer SignerData, body Body, fee Fee) ([]byte, error) {
	msgs := make([]any, 0, len(body.Messages))
	for i, msg := range body.Messages {
		name := msg.AminoName()
		if name == "" {
			return nil, errno.Newf(errno.ErrInvalidTx, "message %d %s has no amino name", i, msg.TypeURL())
		}
		value, err := msg.AminoValue()
		if err != nil {
			return nil, errno.Wrapf(errno.ErrInvalidTx, err, "message %d %s", i, msg.TypeURL())
		}
		msgs = append(msgs, map[string]any{"type": name, "value": value})
	}

	stdFee := map[string]any{
		"amount": aminoCoins(fee.Amount),
		"gas":    strconv.FormatUint(fee.GasLimit, 10),
	}
	if fee.Payer != "" {
		stdFee["payer"] = fee.Payer
	}
	if fee.Granter != "" {
		stdFee["granter"] = fee.Granter
	}

	doc := map[string]any{
		"account_number": strconv.FormatUint(signer.AccountNumber, 10),
		"chain_id":       signer.ChainID,
		"fee":            stdFee,
		"memo":           body.Memo,
		"msgs":           msgs,
		"sequence":       strconv.FormatUint(signer.Sequence, 10),
	}
	if body.TimeoutHeight != 0 {
		doc["timeout_height"] = strconv.FormatUint(body.TimeoutHeight, 10)
	}

	return sortJSON(doc)
}

// sortJSON 编码后再解码成通用结构重新编码。
// encoding/json 对 map 按键排序，这样外部传入的 RawMessage 也会被排序。
func sortJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errno.Wrap(errno.ErrMalformedEncoding, err, "amino json")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, errno.Wrap(errno.ErrMalformedEncoding, err, "amino json")
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, errno.Wrap(errno.ErrMalformedEncoding, err, "amino json")
	}
	return out, nil
}
