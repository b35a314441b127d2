package uniswap

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// RecipientRouter is the router's sentinel recipient meaning "keep the
// output inside the router". Intermediate legs of a multi-path trade and
// swaps whose output is unwrapped afterwards are routed here.
var RecipientRouter = common.HexToAddress("0x0000000000000000000000000000000000000002")

// MaxUint256 is the unlimited approval amount.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

const routerABI = `[
{"inputs":[{"name":"data","type":"bytes[]"}],"name":"multicall","outputs":[{"name":"results","type":"bytes[]"}],"stateMutability":"payable","type":"function"},
{"inputs":[{"components":[{"name":"path","type":"bytes"},{"name":"recipient","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"amountOutMinimum","type":"uint256"}],"name":"params","type":"tuple"}],"name":"exactInput","outputs":[{"name":"amountOut","type":"uint256"}],"stateMutability":"payable","type":"function"},
{"inputs":[{"components":[{"name":"path","type":"bytes"},{"name":"recipient","type":"address"},{"name":"amountOut","type":"uint256"},{"name":"amountInMaximum","type":"uint256"}],"name":"params","type":"tuple"}],"name":"exactOutput","outputs":[{"name":"amountIn","type":"uint256"}],"stateMutability":"payable","type":"function"},
{"inputs":[],"name":"refundETH","outputs":[],"stateMutability":"payable","type":"function"},
{"inputs":[{"name":"amountMinimum","type":"uint256"},{"name":"recipient","type":"address"}],"name":"unwrapWETH9","outputs":[],"stateMutability":"payable","type":"function"}
]`

const erc20ABI = `[{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

// exactInputParams mirrors the router's exactInput tuple.
type exactInputParams struct {
	Path             []byte
	Recipient        common.Address
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

// exactOutputParams mirrors the router's exactOutput tuple.
type exactOutputParams struct {
	Path            []byte
	Recipient       common.Address
	AmountOut       *big.Int
	AmountInMaximum *big.Int
}

// Codec encodes and decodes router and ERC-20 calldata.
type Codec struct {
	router abi.ABI
	erc20  abi.ABI
}

// NewCodec parses the contract interfaces.
func NewCodec() (*Codec, error) {
	router, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}
	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	return &Codec{router: router, erc20: erc20}, nil
}

// EncodeApprove builds an ERC-20 approval for spender.
func (c *Codec) EncodeApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	data, err := c.erc20.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve data: %w", err)
	}
	return data, nil
}

// EncodeExactInput builds one exactInput call for a packed path.
func (c *Codec) EncodeExactInput(path []byte, recipient common.Address, amountIn, amountOutMinimum *big.Int) ([]byte, error) {
	data, err := c.router.Pack("exactInput", exactInputParams{
		Path:             path,
		Recipient:        recipient,
		AmountIn:         amountIn,
		AmountOutMinimum: amountOutMinimum,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pack exactInput data: %w", err)
	}
	return data, nil
}

// EncodeExactOutput builds one exactOutput call for a packed path.
func (c *Codec) EncodeExactOutput(path []byte, recipient common.Address, amountOut, amountInMaximum *big.Int) ([]byte, error) {
	data, err := c.router.Pack("exactOutput", exactOutputParams{
		Path:            path,
		Recipient:       recipient,
		AmountOut:       amountOut,
		AmountInMaximum: amountInMaximum,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pack exactOutput data: %w", err)
	}
	return data, nil
}

// EncodeRefundETH builds the trailing refund call for native-input
// trades.
func (c *Codec) EncodeRefundETH() ([]byte, error) {
	data, err := c.router.Pack("refundETH")
	if err != nil {
		return nil, fmt.Errorf("failed to pack refundETH data: %w", err)
	}
	return data, nil
}

// EncodeUnwrapWETH9 builds the unwrap call for native-output trades.
func (c *Codec) EncodeUnwrapWETH9(amountMinimum *big.Int, recipient common.Address) ([]byte, error) {
	data, err := c.router.Pack("unwrapWETH9", amountMinimum, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to pack unwrapWETH9 data: %w", err)
	}
	return data, nil
}

// EncodeMulticall batches encoded calls into one atomic transaction.
func (c *Codec) EncodeMulticall(calls [][]byte) ([]byte, error) {
	data, err := c.router.Pack("multicall", calls)
	if err != nil {
		return nil, fmt.Errorf("failed to pack multicall data: %w", err)
	}
	return data, nil
}

// DecodeCall identifies a router call by selector and unpacks its
// arguments. Used by display code and tests to inspect built calldata.
func (c *Codec) DecodeCall(data []byte) (string, []interface{}, error) {
	if len(data) < 4 {
		return "", nil, fmt.Errorf("calldata too short")
	}
	method, err := c.router.MethodById(data[:4])
	if err != nil {
		return "", nil, fmt.Errorf("unknown router method: %w", err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", nil, fmt.Errorf("failed to unpack %s arguments: %w", method.Name, err)
	}
	return method.Name, args, nil
}
