package contract

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Set of error variables for the different stages of a contract interaction.
var (
	ErrInvalidArgs         = errors.New("invalid contract arguments")
	ErrPeerUnavailable     = errors.New("peer unavailable")
	ErrSimulationReverted  = errors.New("simulation reverted")
	ErrBroadcastFailed     = errors.New("broadcast failed")
	ErrReceiptTimeout      = errors.New("receipt timeout")
	ErrTransactionReverted = errors.New("transaction reverted")
)

// Kind returns a short label for the stage that produced the error. It is
// used as the log and metric label for contract failures.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidArgs):
		return "invalid_args"
	case errors.Is(err, ErrReceiptTimeout):
		return "receipt_timeout"
	case errors.Is(err, ErrTransactionReverted):
		return "transaction_reverted"
	case errors.Is(err, ErrSimulationReverted):
		return "simulation_reverted"
	case errors.Is(err, ErrBroadcastFailed):
		return "broadcast_failed"
	case errors.Is(err, ErrPeerUnavailable):
		return "peer_unavailable"
	}
	return "unknown"
}

// IsContractError reports whether the error was produced by the peer
// interaction rather than by bad input.
func IsContractError(err error) bool {
	switch Kind(err) {
	case "none", "invalid_args", "unknown":
		return false
	}
	return true
}

// classifyCall separates errors reported by the peer while executing the
// call from errors reaching the peer at all. A JSON-RPC error means the node
// answered, so the call itself failed.
func classifyCall(method string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if reason := revertReason(err); reason != "" {
			return fmt.Errorf("%w: %s: %s: %w", ErrSimulationReverted, method, reason, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrSimulationReverted, method, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrPeerUnavailable, method, err)
}

// revertReason extracts the Error(string) reason from the revert data when
// the node returns it.
func revertReason(err error) string {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return ""
	}

	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return ""
	}

	data, err := hexutil.Decode(hexData)
	if err != nil {
		return ""
	}

	reason, err := abi.UnpackRevert(data)
	if err != nil {
		return ""
	}

	return reason
}
