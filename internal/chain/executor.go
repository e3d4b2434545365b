// Package chain talks to the settlement chain: ERC-1155 balance queries
// against the conditional tokens contract and mergePositions transactions
// that recombine matched YES/NO share pairs back into collateral.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/lumemarkets/lumebot/internal/crypto"
)

// Minimal ABI fragments for the two contracts the bot touches. Binary
// markets always merge the [1, 2] partition under the root collection.
const (
	ctfABIJSON = `[
		{"name":"balanceOfBatch","type":"function","stateMutability":"view",
		 "inputs":[{"name":"owners","type":"address[]"},{"name":"ids","type":"uint256[]"}],
		 "outputs":[{"name":"","type":"uint256[]"}]},
		{"name":"mergePositions","type":"function","stateMutability":"nonpayable",
		 "inputs":[{"name":"collateralToken","type":"address"},
		           {"name":"parentCollectionId","type":"bytes32"},
		           {"name":"conditionId","type":"bytes32"},
		           {"name":"partition","type":"uint256[]"},
		           {"name":"amount","type":"uint256"}],
		 "outputs":[]}
	]`

	negRiskABIJSON = `[
		{"name":"mergePositions","type":"function","stateMutability":"nonpayable",
		 "inputs":[{"name":"conditionId","type":"bytes32"},{"name":"amount","type":"uint256"}],
		 "outputs":[]}
	]`
)

var binaryPartition = []*big.Int{big.NewInt(1), big.NewInt(2)}

// Config holds the contract addresses the executor binds to.
type Config struct {
	RPCURL          string
	CTFAddress      string
	NegRiskAdapter  string
	CollateralToken string

	// GasLimit is the fallback when gas estimation fails, typically on
	// RPC nodes that refuse eth_estimateGas for untracked accounts.
	GasLimit uint64
}

// Executor submits on-chain calls from the signer's EOA. It is process-wide
// and safe to share; the merge loop serializes merge execution itself by
// iterating markets sequentially.
type Executor struct {
	eth    *ethclient.Client
	signer *crypto.Signer
	cfg    Config
	ctfABI abi.ABI
	negABI abi.ABI
	log    *slog.Logger
}

// NewExecutor dials the RPC endpoint and parses the contract ABIs.
func NewExecutor(cfg Config, signer *crypto.Signer, logger *slog.Logger) (*Executor, error) {
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, err)
	}

	ctfABI, err := abi.JSON(strings.NewReader(ctfABIJSON))
	if err != nil {
		return nil, fmt.Errorf("chain: parse ctf abi: %w", err)
	}
	negABI, err := abi.JSON(strings.NewReader(negRiskABIJSON))
	if err != nil {
		return nil, fmt.Errorf("chain: parse neg-risk abi: %w", err)
	}

	return &Executor{
		eth:    eth,
		signer: signer,
		cfg:    cfg,
		ctfABI: ctfABI,
		negABI: negABI,
		log:    logger.With("component", "chain"),
	}, nil
}

// Close releases the RPC connection.
func (e *Executor) Close() {
	e.eth.Close()
}

// GetTokenBalances queries balanceOfBatch for the owner across the given
// ERC-1155 token ids, in order.
func (e *Executor) GetTokenBalances(ctx context.Context, owner string, tokenIDs []*big.Int) ([]*big.Int, error) {
	owners := make([]common.Address, len(tokenIDs))
	for i := range owners {
		owners[i] = common.HexToAddress(owner)
	}

	calldata, err := e.ctfABI.Pack("balanceOfBatch", owners, tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("chain: pack balanceOfBatch: %w", err)
	}

	ctf := common.HexToAddress(e.cfg.CTFAddress)
	raw, err := e.eth.CallContract(ctx, ethereum.CallMsg{To: &ctf, Data: calldata}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: balanceOfBatch call: %w", err)
	}

	out, err := e.ctfABI.Unpack("balanceOfBatch", raw)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack balanceOfBatch: %w", err)
	}
	balances, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: balanceOfBatch returned %T", out[0])
	}
	return balances, nil
}

// ExecuteMerge merges amount matched YES/NO share pairs back into
// collateral and returns the transaction hash. Neg-risk markets go through
// the adapter, which carries collateral and partition implicitly; plain
// markets call the conditional tokens contract directly.
func (e *Executor) ExecuteMerge(ctx context.Context, conditionID string, negRisk bool, amount *big.Int) (string, error) {
	var (
		target   common.Address
		calldata []byte
		err      error
	)
	if negRisk {
		target = common.HexToAddress(e.cfg.NegRiskAdapter)
		calldata, err = e.negABI.Pack("mergePositions",
			common.HexToHash(conditionID),
			amount,
		)
	} else {
		target = common.HexToAddress(e.cfg.CTFAddress)
		calldata, err = e.ctfABI.Pack("mergePositions",
			common.HexToAddress(e.cfg.CollateralToken),
			common.Hash{}, // parentCollectionId = bytes32(0)
			common.HexToHash(conditionID),
			binaryPartition,
			amount,
		)
	}
	if err != nil {
		return "", fmt.Errorf("chain: pack mergePositions: %w", err)
	}

	txHash, err := e.sendTx(ctx, target, calldata)
	if err != nil {
		return "", fmt.Errorf("chain: merge %s: %w", conditionID, err)
	}

	e.log.Info("merge submitted",
		"condition_id", conditionID,
		"neg_risk", negRisk,
		"amount", amount,
		"tx_hash", txHash)
	return txHash, nil
}

// sendTx signs and broadcasts a contract call from the signer's EOA.
func (e *Executor) sendTx(ctx context.Context, to common.Address, calldata []byte) (string, error) {
	from := e.signer.Address()

	nonce, err := e.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}

	gasPrice, err := e.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}

	gasLimit, err := e.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: calldata,
	})
	if err != nil {
		if e.cfg.GasLimit == 0 {
			return "", fmt.Errorf("estimate gas: %w", err)
		}
		e.log.Warn("gas estimation failed, using configured limit",
			"gas_limit", e.cfg.GasLimit, "error", err)
		gasLimit = e.cfg.GasLimit
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})

	signed, err := e.signer.SignTx(tx)
	if err != nil {
		return "", err
	}

	if err := e.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return signed.Hash().Hex(), nil
}
