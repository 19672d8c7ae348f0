package types

import (
	"encoding/json"
	"fmt"
)

// EvmNetworkKind discriminates the EvmNetwork variants.
type EvmNetworkKind int

const (
	// EvmArbitrumOne selects the Arbitrum One mainnet.
	EvmArbitrumOne EvmNetworkKind = iota
	// EvmArbitrumSepolia selects the Arbitrum Sepolia testnet.
	EvmArbitrumSepolia
	// EvmCustom selects a custom EVM-compatible network.
	EvmCustom
)

func (k EvmNetworkKind) String() string {
	switch k {
	case EvmArbitrumOne:
		return "arbitrum-one"
	case EvmArbitrumSepolia:
		return "arbitrum-sepolia"
	case EvmCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// EvmNetwork is the tagged payment-network variant carried by a
// NodeEntry. Only EvmCustom carries payload; the other variants are
// identified by Kind alone.
type EvmNetwork struct {
	Kind                EvmNetworkKind
	RPCURL              string // EvmCustom only
	PaymentTokenAddress string // EvmCustom only, 20-byte hex address
	DataPaymentsAddress string // EvmCustom only, 20-byte hex address
}

// evmNetworkWire is the on-disk shape: a type tag plus the Custom-only
// fields, omitted for the two parameterless variants.
type evmNetworkWire struct {
	Type                string `json:"type"`
	RPCURL              string `json:"rpc_url,omitempty"`
	PaymentTokenAddress string `json:"payment_token_address,omitempty"`
	DataPaymentsAddress string `json:"data_payments_address,omitempty"`
}

func (n EvmNetwork) MarshalJSON() ([]byte, error) {
	wire := evmNetworkWire{Type: n.Kind.String()}
	if n.Kind == EvmCustom {
		wire.RPCURL = n.RPCURL
		wire.PaymentTokenAddress = n.PaymentTokenAddress
		wire.DataPaymentsAddress = n.DataPaymentsAddress
	}
	return json.Marshal(wire)
}

func (n *EvmNetwork) UnmarshalJSON(data []byte) error {
	var wire evmNetworkWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode evm_network: %w", err)
	}
	switch wire.Type {
	case "arbitrum-one":
		*n = ArbitrumOne()
	case "arbitrum-sepolia":
		*n = ArbitrumSepolia()
	case "custom":
		*n = CustomEvm(wire.RPCURL, wire.PaymentTokenAddress, wire.DataPaymentsAddress)
	default:
		return fmt.Errorf("decode evm_network: unknown type %q", wire.Type)
	}
	return nil
}

// ArbitrumOne constructs the ArbitrumOne variant.
func ArbitrumOne() EvmNetwork { return EvmNetwork{Kind: EvmArbitrumOne} }

// ArbitrumSepolia constructs the ArbitrumSepolia variant.
func ArbitrumSepolia() EvmNetwork { return EvmNetwork{Kind: EvmArbitrumSepolia} }

// CustomEvm constructs the EvmCustom variant.
func CustomEvm(rpcURL, paymentToken, dataPayments string) EvmNetwork {
	return EvmNetwork{
		Kind:                EvmCustom,
		RPCURL:              rpcURL,
		PaymentTokenAddress: paymentToken,
		DataPaymentsAddress: dataPayments,
	}
}
