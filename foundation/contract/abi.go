package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// LoadABI reads the contract interface from disk. The file can be a build
// artifact with an "abi" field or a bare ABI array.
func LoadABI(path string) (abi.ABI, error) {
	f, err := os.Open(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("open abi: %w", err)
	}
	defer f.Close()

	return ParseABI(f)
}

// ParseABI decodes the contract interface from the reader.
func ParseABI(r io.Reader) (abi.ABI, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read abi: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return abi.ABI{}, errors.New("abi document is empty")
	}

	if data[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return abi.ABI{}, fmt.Errorf("decode artifact: %w", err)
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, errors.New("artifact has no abi field")
		}
		data = artifact.ABI
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}

	return parsed, nil
}
