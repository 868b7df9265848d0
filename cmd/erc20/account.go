package main

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// parseAccount decodes account given as Neo address, script hash in LE hex
// or base58-encoded script hash bytes (BE).
func parseAccount(s string) (util.Uint160, error) {
	if acc, err := address.StringToUint160(s); err == nil {
		return acc, nil
	}

	if acc, err := util.Uint160DecodeStringLE(s); err == nil {
		return acc, nil
	}

	b, err := base58.Decode(s)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid account '%s'", s)
	}

	acc, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid account '%s': %w", s, err)
	}

	return acc, nil
}
