// Package relay provides the core business API for forwarding supply chain
// operations to the deployed contract.
package relay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ardanlabs/milkchain/business/core/guard"
	"github.com/ardanlabs/milkchain/business/core/order"
	"github.com/ardanlabs/milkchain/business/core/user"
	"github.com/ardanlabs/milkchain/business/sys/metrics"
	"github.com/ardanlabs/milkchain/foundation/contract"
	"github.com/ardanlabs/milkchain/foundation/events"
	"github.com/ardanlabs/milkchain/foundation/web"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Contract declares the behavior the relay needs from the contract client.
type Contract interface {
	Call(ctx context.Context, from common.Address, method string, args ...any) ([]any, error)
	Transact(ctx context.Context, from common.Address, method string, args ...any) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Authorizer declares the role check performed before a submission.
type Authorizer interface {
	Check(ctx context.Context, address string, required user.Role) (guard.Decision, error)
}

// OrderRecorder declares the bookkeeping performed after a confirmed order.
type OrderRecorder interface {
	Create(ctx context.Context, no order.NewOrder, now time.Time) (order.Order, error)
}

// Operation describes a state changing contract method.
type Operation struct {
	Method string
	Role   user.Role
	Status string
}

// Set of operations the relay submits.
var (
	CreateOrder = Operation{Method: "createOrder", Role: user.RoleProcessor, Status: "Order Created!!!"}
	CancelOrder = Operation{Method: "cancelOrder", Role: user.RoleProcessor, Status: "Order Cancelled!!!"}
	CreateOffer = Operation{Method: "createOffer", Role: user.RoleFarmer, Status: "Offer Created!!!"}
	CancelOffer = Operation{Method: "cancelOffer", Role: user.RoleFarmer, Status: "Offer Cancelled!!!"}
	AcceptOffer = Operation{Method: "acceptOffer", Role: user.RoleProcessor, Status: "Offer Accepted!!!"}
)

// Set of read only contract methods.
const (
	MethodViewOrder          = "viewOrder"
	MethodViewOffers         = "viewOffers"
	MethodGetAllTransactions = "getAllTransactions"
)

// Set of stages reported through events.
const (
	StageRejected   = "rejected"
	StageSimulated  = "simulated"
	StageBroadcast  = "broadcast"
	StageConfirmed  = "confirmed"
	StageFailed     = "failed"
	StageUnrecorded = "unrecorded"
)

// Result is what a successful submission produced.
type Result struct {
	Status      string
	Response    any
	TxHash      common.Hash
	BlockNumber uint64
	Decision    guard.Decision
}

// NewOffer contains the arguments for creating an offer. The values are
// passed to the contract as decoded from the request and converted to the
// ABI types there.
type NewOffer struct {
	OrderID        *big.Int
	ProductionDate any
	PricePerLiter  any
	Origin         any
}

// Config represents the dependencies the relay needs.
type Config struct {
	Log      *zap.SugaredLogger
	Guard    Authorizer
	Contract Contract
	Orders   OrderRecorder
	Events   *events.Events
}

// Core manages the set of APIs for relaying operations.
type Core struct {
	log      *zap.SugaredLogger
	guard    Authorizer
	contract Contract
	orders   OrderRecorder
	evts     *events.Events
}

// NewCore constructs a core for relay api access.
func NewCore(cfg Config) *Core {
	return &Core{
		log:      cfg.Log,
		guard:    cfg.Guard,
		contract: cfg.Contract,
		orders:   cfg.Orders,
		evts:     cfg.Events,
	}
}

// CreateOrder submits a new order for the processor and records a local
// summary once the transaction is confirmed.
func (c *Core) CreateOrder(ctx context.Context, caller string, quantity int64) (Result, error) {
	bookkeeping := func(ctx context.Context, res Result) error {
		no := order.NewOrder{
			ProcessorAddress: caller,
			Quantity:         quantity,
			TxHash:           res.TxHash.Hex(),
		}
		_, err := c.orders.Create(ctx, no, time.Now())
		return err
	}

	return c.Submit(ctx, CreateOrder, caller, bookkeeping, big.NewInt(quantity))
}

// CancelOrder submits the cancellation of an order.
func (c *Core) CancelOrder(ctx context.Context, caller string, orderID *big.Int) (Result, error) {
	return c.Submit(ctx, CancelOrder, caller, nil, orderID)
}

// CreateOffer submits a farmer's offer against an order.
func (c *Core) CreateOffer(ctx context.Context, caller string, no NewOffer) (Result, error) {
	return c.Submit(ctx, CreateOffer, caller, nil, no.OrderID, no.ProductionDate, no.PricePerLiter, no.Origin)
}

// CancelOffer submits the cancellation of an offer.
func (c *Core) CancelOffer(ctx context.Context, caller string, offerID *big.Int) (Result, error) {
	return c.Submit(ctx, CancelOffer, caller, nil, offerID)
}

// AcceptOffer submits the processor's acceptance of an offer.
func (c *Core) AcceptOffer(ctx context.Context, caller string, orderID *big.Int, offerID *big.Int) (Result, error) {
	return c.Submit(ctx, AcceptOffer, caller, nil, orderID, offerID)
}

// Query runs a read only method without a role check.
func (c *Core) Query(ctx context.Context, method string, args ...any) (any, error) {
	values, err := c.contract.Call(ctx, common.Address{}, method, args...)
	metrics.AddRelayOutcome(method, contract.Kind(err))
	if err != nil {
		c.log.Errorw("relay", "traceid", web.GetTraceID(ctx), "method", method, "kind", contract.Kind(err), "ERROR", err)
		return nil, err
	}

	return collapse(values), nil
}

// Submit runs the submission protocol for the operation: role check,
// simulation, broadcast, receipt wait and then the optional bookkeeping. A
// failure at any step stops the protocol and nothing after it runs.
// Bookkeeping failures are logged and never undo a confirmed transaction.
func (c *Core) Submit(ctx context.Context, op Operation, caller string, bookkeeping func(context.Context, Result) error, args ...any) (Result, error) {
	if !common.IsHexAddress(caller) {
		return Result{}, fmt.Errorf("%w: caller %q is not an address", contract.ErrInvalidArgs, caller)
	}
	from := common.HexToAddress(caller)

	decision, err := c.guard.Check(ctx, caller, op.Role)
	if err != nil {
		c.emit(ctx, op, caller, StageRejected, common.Hash{}, err)
		return Result{}, err
	}

	values, err := c.contract.Call(ctx, from, op.Method, args...)
	if err != nil {
		return Result{}, c.fail(ctx, op, caller, common.Hash{}, err)
	}
	c.emit(ctx, op, caller, StageSimulated, common.Hash{}, nil)

	hash, err := c.contract.Transact(ctx, from, op.Method, args...)
	if err != nil {
		return Result{}, c.fail(ctx, op, caller, common.Hash{}, err)
	}
	c.emit(ctx, op, caller, StageBroadcast, hash, nil)

	// The transaction is on its way. A client going away must not cut the
	// receipt wait or the bookkeeping short. The receipt timeout still
	// bounds the wait.
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	receipt, err := c.contract.WaitForReceipt(ctx, hash)
	metrics.ObserveReceiptWait(op.Method, time.Since(start))
	if err != nil {
		err = c.fail(ctx, op, caller, hash, err)
		if bookkeeping != nil && !errors.Is(err, contract.ErrTransactionReverted) {
			c.gap(ctx, op, caller, hash, err)
		}
		return Result{TxHash: hash}, err
	}

	res := Result{
		Status:   op.Status,
		Response: collapse(values),
		TxHash:   hash,
		Decision: decision,
	}
	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.Uint64()
	}

	metrics.AddRelayOutcome(op.Method, contract.Kind(nil))
	c.emit(ctx, op, caller, StageConfirmed, hash, nil)

	c.log.Infow("relay", "traceid", web.GetTraceID(ctx), "method", op.Method, "caller", caller, "decision", decision, "txhash", hash.Hex(), "block", res.BlockNumber)

	if bookkeeping != nil {
		if err := bookkeeping(ctx, res); err != nil {
			c.gap(ctx, op, caller, hash, err)
		}
	}

	return res, nil
}

// =============================================================================

func (c *Core) fail(ctx context.Context, op Operation, caller string, hash common.Hash, err error) error {
	kind := contract.Kind(err)

	metrics.AddRelayOutcome(op.Method, kind)
	c.emit(ctx, op, caller, StageFailed, hash, err)

	c.log.Errorw("relay", "traceid", web.GetTraceID(ctx), "method", op.Method, "caller", caller, "kind", kind, "txhash", hashOrEmpty(hash), "ERROR", err)

	return err
}

// gap records a broadcast transaction whose local bookkeeping never ran or
// failed, so an operator can reconcile it against the chain.
func (c *Core) gap(ctx context.Context, op Operation, caller string, hash common.Hash, err error) {
	metrics.AddReconciliationGap(op.Method)
	c.emit(ctx, op, caller, StageUnrecorded, hash, err)

	c.log.Errorw("reconciliation gap", "traceid", web.GetTraceID(ctx), "method", op.Method, "caller", caller, "txhash", hash.Hex(), "ERROR", err)
}

func (c *Core) emit(ctx context.Context, op Operation, caller string, stage string, hash common.Hash, err error) {
	if c.evts == nil {
		return
	}

	e := events.Event{
		TraceID:   web.GetTraceID(ctx),
		Operation: op.Method,
		Caller:    caller,
		Stage:     stage,
		TxHash:    hashOrEmpty(hash),
		Time:      time.Now().UTC(),
	}
	if err != nil {
		e.Error = err.Error()
	}

	c.evts.Send(e)
}

// collapse returns a single output as itself and multiple outputs as a
// slice, matching how the contract client reports call results.
func collapse(values []any) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	}
	return values
}

func hashOrEmpty(hash common.Hash) string {
	if hash == (common.Hash{}) {
		return ""
	}
	return hash.Hex()
}
