package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/milkchain/foundation/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// DialConfig is the required properties to connect to the peer and bind the
// deployed contract.
type DialConfig struct {
	URL            string
	Address        string
	ABIPath        string
	Keys           *keystore.KeyStore
	PollInterval   time.Duration
	ReceiptTimeout time.Duration
}

// Dial connects to the peer, loads the contract interface and confirms the
// contract is deployed at the address. Any failure here is a startup failure.
func Dial(ctx context.Context, cfg DialConfig) (*Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("contract address is required")
	}

	if !common.IsHexAddress(cfg.Address) {
		return nil, fmt.Errorf("contract address %q is not a valid address", cfg.Address)
	}
	address := common.HexToAddress(cfg.Address)

	contractABI, err := LoadABI(cfg.ABIPath)
	if err != nil {
		return nil, fmt.Errorf("loading contract abi: %w", err)
	}

	rpcClient, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dialing peer: %w", err)
	}
	ethClient := ethclient.NewClient(rpcClient)

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("%w: reading chain id: %w", ErrPeerUnavailable, err)
	}

	code, err := ethClient.CodeAt(ctx, address, nil)
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("%w: reading contract code: %w", ErrPeerUnavailable, err)
	}

	if len(code) == 0 {
		ethClient.Close()
		return nil, fmt.Errorf("no contract deployed at %s on chain %s", address.Hex(), chainID)
	}

	var sender Sender = NewNodeSender(rpcClient)
	if cfg.Keys != nil && cfg.Keys.Len() > 0 {
		sender = NewKeySender(ethClient, cfg.Keys, chainID, sender)
	}

	c, err := New(Config{
		Backend:        ethClient,
		Sender:         sender,
		Address:        address,
		ABI:            contractABI,
		PollInterval:   cfg.PollInterval,
		ReceiptTimeout: cfg.ReceiptTimeout,
	})
	if err != nil {
		ethClient.Close()
		return nil, err
	}

	c.closer = ethClient.Close
	c.status = func(ctx context.Context) error {
		if _, err := ethClient.ChainID(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrPeerUnavailable, err)
		}
		return nil
	}

	return c, nil
}
