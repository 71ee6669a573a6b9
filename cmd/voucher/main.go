package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"ghost-backend/internal/types"
	"ghost-backend/internal/utils"
	"ghost-backend/internal/voucher"
)

// voucherOutput is the JSON handed to wallets. Secret and rho are the
// private opening; everything else is safe to share.
type voucherOutput struct {
	Secret     string `json:"secret"`
	Rho        string `json:"rho"`
	Amount     string `json:"amount"`
	AssetID    string `json:"asset_id"`
	Nullifier  string `json:"nullifier"`
	Commitment string `json:"commitment"`
}

func main() {
	amountStr := flag.String("amount", "", "voucher amount, 256-bit decimal")
	assetStr := flag.String("asset", "", "asset identifier, 32-byte hex")
	secretStr := flag.String("secret", "", "optional: re-derive from an existing secret")
	rhoStr := flag.String("rho", "", "optional: re-derive from existing rho")
	flag.Parse()

	amount, err := types.ParseAmount(*amountStr)
	if err != nil {
		fail("amount must be a positive 256-bit decimal string")
	}
	asset, err := utils.ParseHash(*assetStr)
	if err != nil {
		fail("asset must be 32-byte hex")
	}

	var v *voucher.Voucher
	if *secretStr != "" || *rhoStr != "" {
		secret, err := utils.ParseHash(*secretStr)
		if err != nil {
			fail("secret must be 32-byte hex")
		}
		rho, err := utils.ParseHash(*rhoStr)
		if err != nil {
			fail("rho must be 32-byte hex")
		}
		v, err = voucher.Derive(secret, rho, amount, asset)
		if err != nil {
			fail(fmt.Sprintf("derivation failed: %v", err))
		}
	} else {
		v, err = voucher.New(amount, asset)
		if err != nil {
			fail(fmt.Sprintf("voucher generation failed: %v", err))
		}
	}

	out := voucherOutput{
		Secret:     v.Secret.Hex(),
		Rho:        v.Rho.Hex(),
		Amount:     v.Amount.String(),
		AssetID:    v.AssetID.Hex(),
		Nullifier:  v.Nullifier.Hex(),
		Commitment: v.Commitment.Hex(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fail(err.Error())
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "error:", msg)
	os.Exit(1)
}
