package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// PaymentMethod selects how a purchase is paid: with the chain's native
// currency or with an ERC-20 token. The contract encodes native payment as
// the zero address on the wire; that sentinel stays confined to Wire().
type PaymentMethod struct {
	token *common.Address
}

// NativePayment pays with the chain's native currency.
func NativePayment() PaymentMethod {
	return PaymentMethod{}
}

// TokenPayment pays with the ERC-20 at addr.
func TokenPayment(addr common.Address) PaymentMethod {
	return PaymentMethod{token: &addr}
}

// IsNative reports whether this is a native-currency payment.
func (p PaymentMethod) IsNative() bool {
	return p.token == nil
}

// Token returns the payment token address. Only valid when !IsNative().
func (p PaymentMethod) Token() common.Address {
	if p.token == nil {
		return common.Address{}
	}
	return *p.token
}

// Wire returns the address the contract expects: the token address, or the
// zero address for native payment.
func (p PaymentMethod) Wire() common.Address {
	if p.token == nil {
		return common.Address{}
	}
	return *p.token
}

func (p PaymentMethod) String() string {
	if p.token == nil {
		return "native"
	}
	return p.token.Hex()
}

// ParsePaymentMethod parses a user-supplied payment selector: empty or
// "native" for native currency, otherwise a hex token address. The zero
// address is accepted as native for callers still speaking the wire sentinel.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native", "eth":
		return NativePayment(), nil
	}
	if !common.IsHexAddress(s) {
		return PaymentMethod{}, fmt.Errorf("%w: %q is not a token address", ErrUnsupportedPayment, s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return NativePayment(), nil
	}
	return TokenPayment(addr), nil
}
