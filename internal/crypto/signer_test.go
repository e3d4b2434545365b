package crypto

import (
	"strings"
	"testing"

	"github.com/lumemarkets/lumebot/internal/domain"
)

// Well-known throwaway development key, never funded.
const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const testExchange = "0x56C79347e95530c01A2FC76E732f9566dA16E113"

func testOrder() domain.SignedOrder {
	return domain.SignedOrder{
		Salt:          "1700000000000000000",
		Maker:         "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Signer:        "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Taker:         ZeroAddress,
		TokenID:       "12345",
		MakerAmount:   "5728800",
		TakerAmount:   "1023000",
		Expiration:    "1790000000",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          0,
		SignatureType: 2,
	}
}

func TestNewSignerDerivesAddress(t *testing.T) {
	s, err := NewSigner(testKey, 10143)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	if got := s.Address().Hex(); got != "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" {
		t.Errorf("address = %s", got)
	}
	if s.ChainID() != 10143 {
		t.Errorf("chain id = %d, want 10143", s.ChainID())
	}
}

func TestNewSignerAcceptsBareHex(t *testing.T) {
	if _, err := NewSigner(strings.TrimPrefix(testKey, "0x"), 1); err != nil {
		t.Errorf("NewSigner without 0x prefix: %v", err)
	}
}

func TestNewSignerRejectsGarbage(t *testing.T) {
	if _, err := NewSigner("not-a-key", 1); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestSignOrderFormat(t *testing.T) {
	s, err := NewSigner(testKey, 10143)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	sig, err := s.SignOrder(testOrder(), testExchange)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	if !strings.HasPrefix(sig, "0x") || len(sig) != 132 {
		t.Fatalf("signature %q is not a 65-byte hex string", sig)
	}
	// v lands in the legacy {27, 28} range: last byte is 0x1b or 0x1c.
	v := sig[len(sig)-2:]
	if v != "1b" && v != "1c" {
		t.Errorf("recovery byte = %s, want 1b or 1c", v)
	}
}

func TestSignOrderDeterministic(t *testing.T) {
	s, err := NewSigner(testKey, 10143)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	first, err := s.SignOrder(testOrder(), testExchange)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	second, err := s.SignOrder(testOrder(), testExchange)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	if first != second {
		t.Error("identical orders produced different signatures")
	}
}

func TestSignOrderBindsExchangeAddress(t *testing.T) {
	s, err := NewSigner(testKey, 10143)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	ctf, err := s.SignOrder(testOrder(), testExchange)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	negRisk, err := s.SignOrder(testOrder(), "0x6a3796C21e733a3016Bc0bA41edF763016247e72")
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	if ctf == negRisk {
		t.Error("different verifying contracts produced identical signatures")
	}
}

func TestSignOrderBindsChainID(t *testing.T) {
	a, _ := NewSigner(testKey, 10143)
	b, _ := NewSigner(testKey, 1)

	sigA, err := a.SignOrder(testOrder(), testExchange)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	sigB, err := b.SignOrder(testOrder(), testExchange)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	if sigA == sigB {
		t.Error("different chain ids produced identical signatures")
	}
}

func TestSignOrderRejectsNonNumericField(t *testing.T) {
	s, err := NewSigner(testKey, 10143)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	bad := testOrder()
	bad.MakerAmount = "5.7288"
	if _, err := s.SignOrder(bad, testExchange); err == nil {
		t.Error("expected error for non-integer makerAmount")
	}
}

func TestSignAuthMessage(t *testing.T) {
	s, err := NewSigner(testKey, 10143)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	sig, err := s.SignAuthMessage("Lume Wallet Auth", "1", "nonce-abc", 1756500000)
	if err != nil {
		t.Fatalf("SignAuthMessage: %v", err)
	}
	if !strings.HasPrefix(sig, "0x") || len(sig) != 132 {
		t.Fatalf("signature %q is not a 65-byte hex string", sig)
	}

	// The nonce is part of the signed challenge.
	other, err := s.SignAuthMessage("Lume Wallet Auth", "1", "nonce-xyz", 1756500000)
	if err != nil {
		t.Fatalf("SignAuthMessage: %v", err)
	}
	if sig == other {
		t.Error("different nonces produced identical signatures")
	}
}
