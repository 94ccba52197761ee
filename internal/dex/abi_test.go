package dex

import (
	"math/big"
	"testing"
)

func TestV3PoolABIMethods(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	outputs := map[string]int{
		"token0":      1,
		"token1":      1,
		"fee":         1,
		"tickSpacing": 1,
		"liquidity":   1,
		"slot0":       7,
		"tickBitmap":  1,
		"ticks":       8,
	}
	for name, want := range outputs {
		method, ok := poolABI.Methods[name]
		if !ok {
			t.Fatalf("method %s missing", name)
		}
		if len(method.Outputs) != want {
			t.Fatalf("method %s: %d outputs, want %d", name, len(method.Outputs), want)
		}
	}

	if _, err := poolABI.Pack("tickBitmap", int16(-58)); err != nil {
		t.Fatalf("pack tickBitmap: %v", err)
	}
	if _, err := poolABI.Pack("ticks", big.NewInt(-887272)); err != nil {
		t.Fatalf("pack ticks: %v", err)
	}
}

func TestTicksOutputCoercion(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	blob, err := poolABI.Methods["ticks"].Outputs.Pack(
		big.NewInt(500000000000000000),
		new(big.Int).Neg(big.NewInt(500000000000000000)),
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(0),
		uint32(0),
		true,
	)
	if err != nil {
		t.Fatalf("pack ticks outputs: %v", err)
	}

	values, err := poolABI.Unpack("ticks", blob)
	if err != nil {
		t.Fatalf("unpack ticks: %v", err)
	}
	if len(values) != 8 {
		t.Fatalf("unexpected output count: %d", len(values))
	}

	grossBig, err := asBigInt(values[0])
	if err != nil {
		t.Fatalf("gross: %v", err)
	}
	gross, err := uint256FromBig(grossBig)
	if err != nil {
		t.Fatalf("gross convert: %v", err)
	}
	if gross.Dec() != "500000000000000000" {
		t.Fatalf("gross mismatch: %s", gross.Dec())
	}

	netBig, err := asBigInt(values[1])
	if err != nil {
		t.Fatalf("net: %v", err)
	}
	net, err := uint256FromSignedBig(netBig)
	if err != nil {
		t.Fatalf("net convert: %v", err)
	}
	if net.Sign() >= 0 {
		t.Fatalf("net lost its sign")
	}
	if neg := net.Neg(net); neg.Dec() != "500000000000000000" {
		t.Fatalf("net magnitude mismatch: %s", neg.Dec())
	}

	if initialized, _ := values[7].(bool); !initialized {
		t.Fatalf("initialized flag lost")
	}
}

func TestCoercionBounds(t *testing.T) {
	if _, err := int24FromBig(big.NewInt(8388607)); err != nil {
		t.Fatalf("int24 max rejected: %v", err)
	}
	if _, err := int24FromBig(big.NewInt(8388608)); err == nil {
		t.Fatalf("int24 overflow accepted")
	}
	if _, err := int24FromBig(big.NewInt(-8388608)); err != nil {
		t.Fatalf("int24 min rejected: %v", err)
	}
	if _, err := int24FromBig(big.NewInt(-8388609)); err == nil {
		t.Fatalf("int24 underflow accepted")
	}

	if _, err := uint256FromBig(big.NewInt(-1)); err == nil {
		t.Fatalf("negative unsigned accepted")
	}

	if got, ok := bytes32ToString([32]byte{'U', 'S', 'D', 'C'}); !ok || got != "USDC" {
		t.Fatalf("bytes32 symbol mismatch: %q %v", got, ok)
	}
}
