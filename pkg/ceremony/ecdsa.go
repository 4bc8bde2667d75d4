package ceremony

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kzg-ceremony/sequencer/pkg/ethsig"
)

// BindECDSA checks an optional EIP-712 signature over a batch contribution's
// pot_pubkeys and powers against a claimed Ethereum address. Per spec, a
// missing or malformed signature is never an error: it is simply treated as
// absent. The signature is only carried forward when it decodes cleanly AND
// recovers to claimedAddr; any other outcome returns (false, nil).
func BindECDSA(chainID int64, potPubkeysHex, powersHex []string, sigHex string, claimedAddr common.Address) (accepted bool, err error) {
	if sigHex == "" {
		return false, nil
	}
	raw, decErr := hex.DecodeString(trimHexPrefix(sigHex))
	if decErr != nil || len(raw) != 65 {
		return false, nil
	}

	td := ethsig.ContributionTypedData(chainID, potPubkeysHex, powersHex)
	digest, hashErr := ethsig.Digest(td)
	if hashErr != nil {
		return false, nil
	}

	recovered, recErr := ethsig.RecoverAddress(digest, raw)
	if recErr != nil {
		return false, nil
	}
	return recovered == claimedAddr, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
