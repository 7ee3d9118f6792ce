package contract_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/milkchain/foundation/contract"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	contractAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	callerAddr   = common.HexToAddress("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
)

type rpcError struct {
	msg  string
	data any
}

func (e rpcError) Error() string  { return e.msg }
func (e rpcError) ErrorCode() int { return 3 }
func (e rpcError) ErrorData() any { return e.data }

type fakeBackend struct {
	calls    []ethereum.CallMsg
	callOut  []byte
	callErr  error
	receipts []*types.Receipt
	lookups  int
}

func (fb *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	fb.calls = append(fb.calls, msg)
	return fb.callOut, fb.callErr
}

func (fb *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	fb.lookups++
	if len(fb.receipts) == 0 {
		return nil, ethereum.NotFound
	}
	r := fb.receipts[0]
	fb.receipts = fb.receipts[1:]
	if r == nil {
		return nil, ethereum.NotFound
	}
	return r, nil
}

type fakeSender struct {
	sends int
	data  []byte
	hash  common.Hash
	err   error
}

func (fs *fakeSender) Send(ctx context.Context, from common.Address, to common.Address, data []byte) (common.Hash, error) {
	fs.sends++
	fs.data = data
	return fs.hash, fs.err
}

func newClient(t *testing.T, backend *fakeBackend, sender *fakeSender) (*contract.Client, abi.ABI) {
	t.Helper()

	contractABI, err := contract.LoadABI("testdata/FarmerProcessorDelegate.json")
	require.NoError(t, err)

	c, err := contract.New(contract.Config{
		Backend:        backend,
		Sender:         sender,
		Address:        contractAddr,
		ABI:            contractABI,
		PollInterval:   5 * time.Millisecond,
		ReceiptTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	return c, contractABI
}

func TestParseABI(t *testing.T) {
	bare := `[{"type":"function","name":"viewOrder","stateMutability":"view","inputs":[{"name":"_orderId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}]`

	parsed, err := contract.ParseABI(strings.NewReader(bare))
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, "viewOrder")

	_, err = contract.ParseABI(strings.NewReader(`{"contractName":"x"}`))
	assert.Error(t, err, "artifact without an abi field must fail")

	_, err = contract.ParseABI(strings.NewReader("  "))
	assert.Error(t, err, "empty document must fail")
}

func TestNewRequiresAddress(t *testing.T) {
	contractABI, err := contract.LoadABI("testdata/FarmerProcessorDelegate.json")
	require.NoError(t, err)

	_, err = contract.New(contract.Config{
		Backend: &fakeBackend{},
		Sender:  &fakeSender{},
		ABI:     contractABI,
	})
	assert.Error(t, err)
}

func TestCall(t *testing.T) {
	backend := fakeBackend{}
	c, contractABI := newClient(t, &backend, &fakeSender{})

	out, err := contractABI.Methods["createOrder"].Outputs.Pack(big.NewInt(7))
	require.NoError(t, err)
	backend.callOut = out

	values, err := c.Call(context.Background(), callerAddr, "createOrder", json.Number("250"))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Zero(t, big.NewInt(7).Cmp(values[0].(*big.Int)))

	exp, err := contractABI.Pack("createOrder", big.NewInt(250))
	require.NoError(t, err)

	require.Len(t, backend.calls, 1)
	assert.Equal(t, callerAddr, backend.calls[0].From)
	assert.Equal(t, contractAddr, *backend.calls[0].To)
	assert.Equal(t, exp, backend.calls[0].Data)
}

func TestCallTupleOutputs(t *testing.T) {
	backend := fakeBackend{}
	c, contractABI := newClient(t, &backend, &fakeSender{})

	out, err := contractABI.Methods["viewOrder"].Outputs.Pack(callerAddr, big.NewInt(100), uint8(1))
	require.NoError(t, err)
	backend.callOut = out

	values, err := c.Call(context.Background(), common.Address{}, "viewOrder", "3")
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, callerAddr, values[0])
	assert.Zero(t, big.NewInt(100).Cmp(values[1].(*big.Int)))
	assert.Equal(t, uint8(1), values[2])
}

func TestCallFailures(t *testing.T) {
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)

	reason, err := abi.Arguments{{Type: stringType}}.Pack("only processors")
	require.NoError(t, err)
	revertData := hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, reason...))

	tt := []struct {
		name    string
		callErr error
		exp     error
		msg     string
	}{
		{
			name:    "revert",
			callErr: rpcError{msg: "execution reverted", data: revertData},
			exp:     contract.ErrSimulationReverted,
			msg:     "only processors",
		},
		{
			name:    "unreachable",
			callErr: errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"),
			exp:     contract.ErrPeerUnavailable,
			msg:     "connection refused",
		},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			backend := fakeBackend{callErr: tst.callErr}
			c, _ := newClient(t, &backend, &fakeSender{})

			_, err := c.Call(context.Background(), callerAddr, "cancelOrder", 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, tst.exp)
			assert.Contains(t, err.Error(), tst.msg)
			assert.True(t, contract.IsContractError(err))
		})
	}
}

func TestInvalidArguments(t *testing.T) {
	tt := []struct {
		name   string
		method string
		args   []any
	}{
		{name: "unknown method", method: "burnOrder", args: []any{1}},
		{name: "arg count", method: "acceptOffer", args: []any{1}},
		{name: "not a number", method: "cancelOrder", args: []any{"abc"}},
		{name: "negative uint", method: "cancelOrder", args: []any{json.Number("-1")}},
		{name: "fraction", method: "cancelOrder", args: []any{1.5}},
		{name: "uint8 overflow", method: "setGrade", args: []any{300, "0x01020304", callerAddr.Hex()}},
		{name: "bad address", method: "setGrade", args: []any{1, "0x01020304", "kennedy"}},
		{name: "bytes4 too long", method: "setGrade", args: []any{1, "0x0102030405", callerAddr.Hex()}},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			backend := fakeBackend{}
			c, _ := newClient(t, &backend, &fakeSender{})

			_, err := c.Call(context.Background(), callerAddr, tst.method, tst.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, contract.ErrInvalidArgs)
			assert.Empty(t, backend.calls, "peer must not be contacted")
			assert.Equal(t, "invalid_args", contract.Kind(err))
		})
	}
}

func TestCoercion(t *testing.T) {
	sender := fakeSender{hash: common.HexToHash("0x01")}
	c, contractABI := newClient(t, &fakeBackend{}, &sender)

	_, err := c.Transact(context.Background(), callerAddr, "setGrade", json.Number("7"), "0x0a0b0c0d", strings.ToLower(callerAddr.Hex()))
	require.NoError(t, err)

	exp, err := contractABI.Pack("setGrade", uint8(7), [4]byte{0x0a, 0x0b, 0x0c, 0x0d}, callerAddr)
	require.NoError(t, err)
	assert.Equal(t, exp, sender.data)

	_, err = c.Transact(context.Background(), callerAddr, "createOffer", 1, "1700000000", json.Number("42"), json.Number("12"))
	require.NoError(t, err)

	exp, err = contractABI.Pack("createOffer", big.NewInt(1), big.NewInt(1700000000), big.NewInt(42), "12")
	require.NoError(t, err)
	assert.Equal(t, exp, sender.data)
}

func TestSignedRange(t *testing.T) {
	sender := fakeSender{hash: common.HexToHash("0x01")}
	backend := fakeBackend{}
	c, contractABI := newClient(t, &backend, &sender)

	limit := new(big.Int).Lsh(big.NewInt(1), 255)
	minInt := new(big.Int).Neg(limit)
	maxInt := new(big.Int).Sub(limit, big.NewInt(1))

	for _, n := range []*big.Int{limit, new(big.Int).Sub(minInt, big.NewInt(1))} {
		_, err := c.Transact(context.Background(), callerAddr, "adjustPrice", 1, json.Number(n.String()))
		require.Error(t, err, n.String())
		assert.ErrorIs(t, err, contract.ErrInvalidArgs)
		assert.Contains(t, err.Error(), "overflows int256")
	}
	assert.Zero(t, sender.sends, "out of range values never reach the peer")
	assert.Empty(t, backend.calls)

	for _, n := range []*big.Int{minInt, maxInt} {
		_, err := c.Transact(context.Background(), callerAddr, "adjustPrice", 1, json.Number(n.String()))
		require.NoError(t, err, n.String())

		exp, err := contractABI.Pack("adjustPrice", big.NewInt(1), n)
		require.NoError(t, err)
		assert.Equal(t, exp, sender.data)
	}
}

func TestTransact(t *testing.T) {
	hash := common.HexToHash("0xabc")

	sender := fakeSender{hash: hash}
	c, _ := newClient(t, &fakeBackend{}, &sender)

	got, err := c.Transact(context.Background(), callerAddr, "cancelOffer", 9)
	require.NoError(t, err)
	assert.Equal(t, hash, got)
	assert.Equal(t, 1, sender.sends)

	sender.err = errors.New("nonce too low")
	_, err = c.Transact(context.Background(), callerAddr, "cancelOffer", 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrBroadcastFailed)
	assert.Equal(t, "broadcast_failed", contract.Kind(err))
}

func TestWaitForReceipt(t *testing.T) {
	hash := common.HexToHash("0xabc")

	t.Run("mined", func(t *testing.T) {
		backend := fakeBackend{
			receipts: []*types.Receipt{nil, nil, {Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(12)}},
		}
		c, _ := newClient(t, &backend, &fakeSender{})

		receipt, err := c.WaitForReceipt(context.Background(), hash)
		require.NoError(t, err)
		assert.Zero(t, big.NewInt(12).Cmp(receipt.BlockNumber))
		assert.Equal(t, 3, backend.lookups)
	})

	t.Run("reverted", func(t *testing.T) {
		backend := fakeBackend{
			receipts: []*types.Receipt{{Status: types.ReceiptStatusFailed}},
		}
		c, _ := newClient(t, &backend, &fakeSender{})

		receipt, err := c.WaitForReceipt(context.Background(), hash)
		require.Error(t, err)
		assert.NotNil(t, receipt)
		assert.ErrorIs(t, err, contract.ErrTransactionReverted)
	})

	t.Run("timeout", func(t *testing.T) {
		backend := fakeBackend{}
		c, _ := newClient(t, &backend, &fakeSender{})

		_, err := c.WaitForReceipt(context.Background(), hash)
		require.Error(t, err)
		assert.ErrorIs(t, err, contract.ErrReceiptTimeout)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, "receipt_timeout", contract.Kind(err))
	})
}
