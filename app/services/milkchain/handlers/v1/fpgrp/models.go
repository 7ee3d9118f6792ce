package fpgrp

import (
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ardanlabs/milkchain/business/core/relay"
	"github.com/ardanlabs/milkchain/foundation/validate"
)

// AppCreateOrder is the payload for a processor placing an order.
type AppCreateOrder struct {
	Quantity        json.Number `json:"quantity" validate:"required"`
	ContractAddress string      `json:"contractAddress" validate:"required,eth_addr"`
}

// AppCancelOrder is the payload for a processor cancelling an order.
type AppCancelOrder struct {
	OrderID         json.Number `json:"orderId" validate:"required"`
	ContractAddress string      `json:"contractAddress" validate:"required,eth_addr"`
}

// AppCreateOffer is the payload for a farmer making an offer on an order.
type AppCreateOffer struct {
	OrderID         json.Number `json:"orderId" validate:"required"`
	ProductionDate  any         `json:"productionDate" validate:"required"`
	PricePerLiter   any         `json:"pricePerLiter" validate:"required"`
	Origin          any         `json:"origin" validate:"required"`
	ContractAddress string      `json:"contractAddress" validate:"required,eth_addr"`
}

// AppCancelOffer is the payload for a farmer withdrawing an offer.
type AppCancelOffer struct {
	OfferID         json.Number `json:"offerId" validate:"required"`
	ContractAddress string      `json:"contractAddress" validate:"required,eth_addr"`
}

// AppAcceptOffer is the payload for a processor accepting an offer.
type AppAcceptOffer struct {
	OrderID         json.Number `json:"orderId" validate:"required"`
	OfferID         json.Number `json:"offerId" validate:"required"`
	ContractAddress string      `json:"contractAddress" validate:"required,eth_addr"`
}

// AppSubmitResult is returned for every confirmed submission.
type AppSubmitResult struct {
	Status              string `json:"status"`
	TransactionResponse any    `json:"transactionResponse"`
	TransactionHash     string `json:"transactionHash"`
	BlockNumber         uint64 `json:"blockNumber"`
}

func toAppSubmitResult(res relay.Result) AppSubmitResult {
	return AppSubmitResult{
		Status:              res.Status,
		TransactionResponse: res.Response,
		TransactionHash:     res.TxHash.Hex(),
		BlockNumber:         res.BlockNumber,
	}
}

// =============================================================================

var errNotUint = errors.New("must be a non-negative integer")

// toUint parses an identifier the contract declares as uint256.
func toUint(field string, s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, validate.NewFieldsError(field, errNotUint)
	}
	return n, nil
}

func toQuantity(s json.Number) (int64, error) {
	n, err := s.Int64()
	if err != nil || n < 0 {
		return 0, validate.NewFieldsError("quantity", errNotUint)
	}
	return n, nil
}
