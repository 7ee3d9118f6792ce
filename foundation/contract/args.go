package contract

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// coerce converts a value decoded from JSON into the Go type the ABI packer
// expects for the given input type.
func coerce(typ abi.Type, val any) (any, error) {
	switch typ.T {
	case abi.IntTy, abi.UintTy:
		return coerceInteger(typ, val)

	case abi.BoolTy:
		switch v := val.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(v)
		}

	case abi.StringTy:
		switch v := val.(type) {
		case string:
			return v, nil
		case json.Number:
			return v.String(), nil
		case fmt.Stringer:
			return v.String(), nil
		case int, int64, uint64, float64:
			return fmt.Sprint(v), nil
		}

	case abi.AddressTy:
		switch v := val.(type) {
		case common.Address:
			return v, nil
		case string:
			if !common.IsHexAddress(v) {
				return nil, fmt.Errorf("%q is not an address", v)
			}
			return common.HexToAddress(v), nil
		}

	case abi.BytesTy:
		switch v := val.(type) {
		case []byte:
			return v, nil
		case string:
			return hexutil.Decode(v)
		}

	case abi.FixedBytesTy:
		var raw []byte
		switch v := val.(type) {
		case []byte:
			raw = v
		case string:
			b, err := hexutil.Decode(v)
			if err != nil {
				return nil, err
			}
			raw = b
		default:
			return val, nil
		}
		if len(raw) > typ.Size {
			return nil, fmt.Errorf("value has %d bytes, %s holds %d", len(raw), typ.String(), typ.Size)
		}
		arr := reflect.New(typ.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(raw))
		return arr.Interface(), nil

	default:
		return val, nil
	}

	return nil, fmt.Errorf("cannot use %T as %s", val, typ.String())
}

// coerceInteger produces a *big.Int for wide integers and the exact sized Go
// integer for the rest, which is what the packer requires.
func coerceInteger(typ abi.Type, val any) (any, error) {
	n, err := toBigInt(val)
	if err != nil {
		return nil, err
	}

	if typ.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("%s cannot be negative", typ.String())
	}

	// Sizes without a native Go integer are packed from a *big.Int.
	rt := typ.GetType()
	switch rt.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		if !fitsWide(typ, n) {
			return nil, fmt.Errorf("%s overflows %s", n.String(), typ.String())
		}
		return n, nil
	}

	rv := reflect.New(rt).Elem()
	switch typ.T {
	case abi.UintTy:
		if !n.IsUint64() || rv.OverflowUint(n.Uint64()) {
			return nil, fmt.Errorf("%s overflows %s", n.String(), typ.String())
		}
		rv.SetUint(n.Uint64())

	default:
		if !n.IsInt64() || rv.OverflowInt(n.Int64()) {
			return nil, fmt.Errorf("%s overflows %s", n.String(), typ.String())
		}
		rv.SetInt(n.Int64())
	}

	return rv.Interface(), nil
}

// fitsWide reports whether n is inside the two's complement range of a
// signed type, or the plain range of an unsigned one.
func fitsWide(typ abi.Type, n *big.Int) bool {
	if typ.T == abi.UintTy {
		return n.BitLen() <= typ.Size
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(typ.Size-1))
	if n.Sign() < 0 {
		return n.CmpAbs(limit) <= 0
	}
	return n.Cmp(limit) < 0
}

func toBigInt(val any) (*big.Int, error) {
	switch v := val.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		n, _ := big.NewFloat(v).Int(nil)
		return n, nil
	case json.Number:
		return parseBigInt(v.String())
	case string:
		return parseBigInt(v)
	}

	return nil, fmt.Errorf("cannot use %T as an integer", val)
}

func parseBigInt(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}
