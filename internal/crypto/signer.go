// Package crypto provides key management and EIP-712 signing for the Lume
// CTF exchange and its wallet-authenticated subscription API.
package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/lumemarkets/lumebot/internal/domain"
)

// EIP-712 domain parameters for the Lume CTF exchange.
const (
	DomainName    = "Lume CTF Exchange"
	DomainVersion = "1"
)

// ZeroAddress is the open-taker address used on every order.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// --------------------------------------------------------------------------
// EIP-712 type hashes (pre-computed keccak256 of the canonical type strings).
// --------------------------------------------------------------------------

var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	orderDomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)

	// EIP712Domain(string name,string version,uint256 chainId)
	authDomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId)"),
	)

	// AuthMessage(string nonce,address wallet,uint256 timestamp)
	authMessageTypeHash = ethcrypto.Keccak256(
		[]byte("AuthMessage(string nonce,address wallet,uint256 timestamp)"),
	)

	// Order(uint256 salt,address maker,address signer,address taker,uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration,uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)
	orderTypeHash = ethcrypto.Keccak256(
		[]byte("Order(uint256 salt,address maker,address signer,address taker,uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration,uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)"),
	)
)

// Signer provides EIP-712 signing over a secp256k1 private key. It is the
// only component with access to raw key material; everything else holds a
// *Signer and asks for signatures.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    int
}

// NewSigner creates a Signer from a hex-encoded secp256k1 private key and
// the target chain ID.
func NewSigner(privateKeyHex string, chainID int) (*Signer, error) {
	keyHex := strings.TrimPrefix(privateKeyHex, "0x")
	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: invalid private key: %w", err)
	}

	return &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
		chainID:    chainID,
	}, nil
}

// Address returns the Ethereum address derived from the signer's private key.
func (s *Signer) Address() common.Address {
	return s.address
}

// ChainID returns the chain the signer's EIP-712 domains bind to.
func (s *Signer) ChainID() int {
	return s.chainID
}

// SignAuthMessage signs the wallet-auth challenge used by the subscription
// API. The domain carries no verifying contract; name and version come from
// the server's challenge response. The returned string is a hex-encoded
// 65-byte signature.
func (s *Signer) SignAuthMessage(domainName, domainVersion, nonce string, timestamp int64) (string, error) {
	domainSep := ethcrypto.Keccak256(
		concatBytes(
			authDomainTypeHash,
			ethcrypto.Keccak256([]byte(domainName)),
			ethcrypto.Keccak256([]byte(domainVersion)),
			bigIntTo32Bytes(big.NewInt(int64(s.chainID))),
		),
	)

	structHash := ethcrypto.Keccak256(
		concatBytes(
			authMessageTypeHash,
			ethcrypto.Keccak256([]byte(nonce)),
			common.LeftPadBytes(s.address.Bytes(), 32),
			bigIntTo32Bytes(big.NewInt(timestamp)),
		),
	)

	return s.signDigest(eip712Hash(domainSep, structHash))
}

// SignTx signs an Ethereum transaction for the signer's chain. Key
// material never leaves this package; on-chain callers hand in an unsigned
// transaction and get back a signed one.
func (s *Signer) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(int64(s.chainID))), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: %w: %s", domain.ErrSigningFailed, err)
	}
	return signed, nil
}

// SignOrder signs an Order EIP-712 struct bound to the given exchange
// contract (CTF exchange, or the neg-risk exchange for neg-risk markets).
// It returns a hex-encoded 65-byte signature.
func (s *Signer) SignOrder(order domain.SignedOrder, exchangeAddress string) (string, error) {
	domainSep := s.orderDomainSeparator(exchangeAddress)

	structHash, err := orderStructHash(order)
	if err != nil {
		return "", err
	}

	return s.signDigest(eip712Hash(domainSep, structHash))
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// orderDomainSeparator returns
// keccak256(abi.encode(typeHash, nameHash, versionHash, chainId, verifyingContract)).
func (s *Signer) orderDomainSeparator(exchangeAddress string) []byte {
	verifying := common.HexToAddress(exchangeAddress)
	return ethcrypto.Keccak256(
		concatBytes(
			orderDomainTypeHash,
			ethcrypto.Keccak256([]byte(DomainName)),
			ethcrypto.Keccak256([]byte(DomainVersion)),
			bigIntTo32Bytes(big.NewInt(int64(s.chainID))),
			common.LeftPadBytes(verifying.Bytes(), 32),
		),
	)
}

// eip712Hash computes the final EIP-712 digest:
//
//	keccak256("\x19\x01" || domainSeparator || structHash)
func eip712Hash(domainSep, structHash []byte) []byte {
	return ethcrypto.Keccak256(
		concatBytes(
			[]byte{0x19, 0x01},
			domainSep,
			structHash,
		),
	)
}

// signDigest signs a 32-byte digest using secp256k1 and returns the
// hex-encoded signature (r || s || v, 65 bytes).
func (s *Signer) signDigest(digest []byte) (string, error) {
	sig, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("crypto/signer: %w: %s", domain.ErrSigningFailed, err)
	}

	// go-ethereum returns v in {0,1}; EIP-712 expects v in {27,28}.
	if sig[64] < 27 {
		sig[64] += 27
	}

	return "0x" + hex.EncodeToString(sig), nil
}

// orderStructHash encodes and hashes an order's signed fields according to
// EIP-712.
func orderStructHash(o domain.SignedOrder) ([]byte, error) {
	nums := make([]*big.Int, 0, 7)
	for _, f := range []struct {
		name  string
		value string
	}{
		{"salt", o.Salt},
		{"tokenId", o.TokenID},
		{"makerAmount", o.MakerAmount},
		{"takerAmount", o.TakerAmount},
		{"expiration", o.Expiration},
		{"nonce", o.Nonce},
		{"feeRateBps", o.FeeRateBps},
	} {
		n, ok := new(big.Int).SetString(f.value, 10)
		if !ok {
			return nil, fmt.Errorf("crypto/signer: invalid %s %q", f.name, f.value)
		}
		nums = append(nums, n)
	}

	maker := common.HexToAddress(o.Maker)
	signer := common.HexToAddress(o.Signer)
	taker := common.HexToAddress(o.Taker)

	return ethcrypto.Keccak256(
		concatBytes(
			orderTypeHash,
			bigIntTo32Bytes(nums[0]), // salt
			common.LeftPadBytes(maker.Bytes(), 32),
			common.LeftPadBytes(signer.Bytes(), 32),
			common.LeftPadBytes(taker.Bytes(), 32),
			bigIntTo32Bytes(nums[1]), // tokenId
			bigIntTo32Bytes(nums[2]), // makerAmount
			bigIntTo32Bytes(nums[3]), // takerAmount
			bigIntTo32Bytes(nums[4]), // expiration
			bigIntTo32Bytes(nums[5]), // nonce
			bigIntTo32Bytes(nums[6]), // feeRateBps
			bigIntTo32Bytes(big.NewInt(int64(o.Side))),
			bigIntTo32Bytes(big.NewInt(int64(o.SignatureType))),
		),
	), nil
}

// bigIntTo32Bytes returns a 32-byte big-endian representation of n.
func bigIntTo32Bytes(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= 32 {
		return b[:32]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

// concatBytes concatenates multiple byte slices into one.
func concatBytes(slices ...[]byte) []byte {
	total := 0
	for _, s := range slices {
		total += len(s)
	}
	buf := make([]byte, 0, total)
	for _, s := range slices {
		buf = append(buf, s...)
	}
	return buf
}
