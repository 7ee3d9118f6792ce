// Package contract provides the support for calling and transacting against
// a single deployed contract on an EVM peer.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend represents the read side of the peer needed for simulation and
// receipt lookups. The ethclient.Client satisfies this interface.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Sender represents the behavior required to broadcast a state changing
// transaction on behalf of an account.
type Sender interface {
	Send(ctx context.Context, from common.Address, to common.Address, data []byte) (common.Hash, error)
}

// Config represents the mandatory settings for a contract client.
type Config struct {
	Backend        Backend
	Sender         Sender
	Address        common.Address
	ABI            abi.ABI
	PollInterval   time.Duration
	ReceiptTimeout time.Duration
}

// Client manages the interactions with one deployed contract.
type Client struct {
	backend        Backend
	sender         Sender
	address        common.Address
	abi            abi.ABI
	pollInterval   time.Duration
	receiptTimeout time.Duration
	closer         func()
	status         func(ctx context.Context) error
}

// New constructs a client for the contract at the configured address.
func New(cfg Config) (*Client, error) {
	if cfg.Backend == nil || cfg.Sender == nil {
		return nil, errors.New("backend and sender are required")
	}

	if cfg.Address == (common.Address{}) {
		return nil, errors.New("contract address is required")
	}

	if len(cfg.ABI.Methods) == 0 {
		return nil, errors.New("contract abi has no methods")
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = time.Minute
	}

	c := Client{
		backend:        cfg.Backend,
		sender:         cfg.Sender,
		address:        cfg.Address,
		abi:            cfg.ABI,
		pollInterval:   cfg.PollInterval,
		receiptTimeout: cfg.ReceiptTimeout,
		closer:         func() {},
		status:         func(context.Context) error { return nil },
	}

	return &c, nil
}

// Address returns the address of the contract.
func (c *Client) Address() common.Address {
	return c.address
}

// Methods returns the sorted list of method signatures the contract exposes.
func (c *Client) Methods() []string {
	sigs := make([]string, 0, len(c.abi.Methods))
	for _, m := range c.abi.Methods {
		sigs = append(sigs, m.Sig)
	}
	sort.Strings(sigs)
	return sigs
}

// Close releases the connection to the peer.
func (c *Client) Close() {
	c.closer()
}

// StatusCheck returns nil if it can successfully talk to the peer.
func (c *Client) StatusCheck(ctx context.Context) error {
	return c.status(ctx)
}

// Call executes the method as a read only simulation from the specified
// account and returns the decoded outputs. No state is changed.
func (c *Client) Call(ctx context.Context, from common.Address, method string, args ...any) ([]any, error) {
	m, data, err := c.pack(method, args...)
	if err != nil {
		return nil, err
	}

	msg := ethereum.CallMsg{
		From: from,
		To:   &c.address,
		Data: data,
	}

	out, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, classifyCall(method, err)
	}

	values, err := m.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: unpack: %w", ErrSimulationReverted, method, err)
	}

	return values, nil
}

// Transact broadcasts the method as a state changing transaction signed by
// the specified account and returns the transaction hash.
func (c *Client) Transact(ctx context.Context, from common.Address, method string, args ...any) (common.Hash, error) {
	_, data, err := c.pack(method, args...)
	if err != nil {
		return common.Hash{}, err
	}

	hash, err := c.sender.Send(ctx, from, c.address, data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %s: %w", ErrBroadcastFailed, method, err)
	}

	return hash, nil
}

// WaitForReceipt blocks until the transaction is mined or the receipt
// timeout expires. A mined transaction with a failed status is reported as
// ErrTransactionReverted along with the receipt.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w: tx %s", ErrTransactionReverted, hash.Hex())
			}
			return receipt, nil

		case !errors.Is(err, ethereum.NotFound):
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return nil, fmt.Errorf("%w: tx %s: %w: last error: %w", ErrReceiptTimeout, hash.Hex(), ctx.Err(), lastErr)
			}
			return nil, fmt.Errorf("%w: tx %s: %w", ErrReceiptTimeout, hash.Hex(), ctx.Err())

		case <-ticker.C:
		}
	}
}

// =============================================================================

func (c *Client) pack(method string, args ...any) (abi.Method, []byte, error) {
	m, exists := c.abi.Methods[method]
	if !exists {
		return abi.Method{}, nil, fmt.Errorf("%w: method %q not found", ErrInvalidArgs, method)
	}

	if len(args) != len(m.Inputs) {
		return abi.Method{}, nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidArgs, method, len(m.Inputs), len(args))
	}

	values := make([]any, len(args))
	for i, input := range m.Inputs {
		v, err := coerce(input.Type, args[i])
		if err != nil {
			return abi.Method{}, nil, fmt.Errorf("%w: %s: argument %q: %w", ErrInvalidArgs, method, input.Name, err)
		}
		values[i] = v
	}

	data, err := c.abi.Pack(method, values...)
	if err != nil {
		return abi.Method{}, nil, fmt.Errorf("%w: %s: %w", ErrInvalidArgs, method, err)
	}

	return m, data, nil
}
