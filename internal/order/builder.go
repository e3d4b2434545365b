package order

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/lumemarkets/lumebot/internal/crypto"
	"github.com/lumemarkets/lumebot/internal/domain"
)

// defaultExpiration is applied when OrderArgs carries no expiration.
const defaultExpiration = 365 * 24 * time.Hour

// Builder assembles the canonical order record and signs it. The builder
// never touches raw key material; it delegates to the crypto.Signer it was
// constructed with.
type Builder struct {
	signer        *crypto.Signer
	calc          Calculator
	feeRateBps    int
	signatureType int

	mu       sync.Mutex
	lastSalt int64
}

// NewBuilder creates an order builder signing with the given signer.
// signatureType identifies the wallet scheme (0 EOA, 1 proxy, 2 Safe) and
// is echoed opaquely into every signed payload.
func NewBuilder(signer *crypto.Signer, feeRateBps, signatureType int) *Builder {
	return &Builder{
		signer:        signer,
		feeRateBps:    feeRateBps,
		signatureType: signatureType,
	}
}

// BuildAndSignOrder derives aligned atomic amounts from args, fills in the
// canonical order fields, and signs the result against exchangeAddress.
// makerWallet is the funding wallet (proxy or EOA); outcomeID is carried
// only for error context, it is not part of the signed payload.
func (b *Builder) BuildAndSignOrder(
	makerWallet string,
	args domain.OrderArgs,
	outcomeID string,
	tokenID string,
	exchangeAddress string,
	nonce int64,
) (domain.SignedOrder, error) {
	amounts, err := b.calc.CalculateAmounts(args.Side, args.Price, args.Size)
	if err != nil {
		return domain.SignedOrder{}, fmt.Errorf("order: outcome %s: %w", outcomeID, err)
	}

	side := 0
	if args.Side == domain.OrderSideSell {
		side = 1
	}

	expiration := args.Expiration
	if expiration == 0 {
		expiration = time.Now().Add(defaultExpiration).Unix()
	}

	signed := domain.SignedOrder{
		Salt:          strconv.FormatInt(b.nextSalt(), 10),
		Maker:         makerWallet,
		Signer:        b.signer.Address().Hex(),
		Taker:         crypto.ZeroAddress,
		TokenID:       tokenID,
		MakerAmount:   strconv.FormatInt(amounts.MakerAmount, 10),
		TakerAmount:   strconv.FormatInt(amounts.TakerAmount, 10),
		Expiration:    strconv.FormatInt(expiration, 10),
		Nonce:         strconv.FormatInt(nonce, 10),
		FeeRateBps:    strconv.Itoa(b.feeRateBps),
		Side:          side,
		SignatureType: b.signatureType,
	}

	sig, err := b.signer.SignOrder(signed, exchangeAddress)
	if err != nil {
		return domain.SignedOrder{}, fmt.Errorf("order: sign outcome %s: %w", outcomeID, err)
	}
	signed.Signature = sig

	return signed, nil
}

// nextSalt returns the current time in nanoseconds, bumped past the
// previous salt when the clock reports a repeat. Uniqueness across orders
// from one signer is the only hard requirement.
func (b *Builder) nextSalt() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	salt := time.Now().UnixNano()
	if salt <= b.lastSalt {
		salt = b.lastSalt + 1
	}
	b.lastSalt = salt
	return salt
}
