package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ardanlabs/milkchain/foundation/keystore"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// NodeSender asks the peer to sign and send the transaction with
// eth_sendTransaction. The account must be unlocked on the node.
type NodeSender struct {
	rpc *rpc.Client
}

// NewNodeSender constructs a sender that relies on node side signing.
func NewNodeSender(client *rpc.Client) *NodeSender {
	return &NodeSender{rpc: client}
}

// Send implements the Sender interface.
func (ns *NodeSender) Send(ctx context.Context, from common.Address, to common.Address, data []byte) (common.Hash, error) {
	args := struct {
		From common.Address `json:"from"`
		To   common.Address `json:"to"`
		Data hexutil.Bytes  `json:"data"`
	}{
		From: from,
		To:   to,
		Data: data,
	}

	var hash common.Hash
	if err := ns.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}

	return hash, nil
}

// =============================================================================

// KeySender signs transactions locally for accounts found in the key store
// and hands every other account to the fallback sender.
type KeySender struct {
	client   *ethclient.Client
	keys     *keystore.KeyStore
	chainID  *big.Int
	fallback Sender
}

// NewKeySender constructs a sender that signs with keys from the key store.
func NewKeySender(client *ethclient.Client, keys *keystore.KeyStore, chainID *big.Int, fallback Sender) *KeySender {
	return &KeySender{
		client:   client,
		keys:     keys,
		chainID:  chainID,
		fallback: fallback,
	}
}

// Send implements the Sender interface.
func (ks *KeySender) Send(ctx context.Context, from common.Address, to common.Address, data []byte) (common.Hash, error) {
	privateKey, exists := ks.keys.Key(from)
	if !exists {
		return ks.fallback.Send(ctx, from, to, data)
	}

	nonce, err := ks.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}

	gasPrice, err := ks.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}

	gas, err := ks.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(ks.chainID), privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}

	if err := ks.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, err
	}

	return signedTx.Hash(), nil
}
