// Package parser turns resolved raw transactions into typed domain events:
// swaps (balance-delta inference, spec §4.3), LP touches (program-ID-gated
// scaffold, spec §4.4), and authority scaffolding (spec §4.1's original
// parser_authority.py). All three share the same cursor discipline: strictly
// ascending by slot, watermarked per-signature in parsed_sig, batch-bounded.
package parser

import "encoding/json"

// txEnvelope is the minimal shape this pipeline needs out of a jsonParsed
// getTransaction response. Solana's full schema carries much more; anything
// not read here is left on the floor by design.
type txEnvelope struct {
	Slot int64 `json:"slot"`
	Meta struct {
		Err               json.RawMessage     `json:"err"`
		PreTokenBalances  []tokenBalance      `json:"preTokenBalances"`
		PostTokenBalances []tokenBalance      `json:"postTokenBalances"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys  []accountKey   `json:"accountKeys"`
			Instructions []instruction  `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

type tokenBalance struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UiTokenAmount struct {
		Amount   string  `json:"amount"`
		UiAmount float64 `json:"uiAmount"`
	} `json:"uiTokenAmount"`
}

type accountKey struct {
	Pubkey string `json:"pubkey"`
}

type instruction struct {
	ProgramID string `json:"programId"`
}

func parseEnvelope(raw []byte) (txEnvelope, error) {
	var env txEnvelope
	err := json.Unmarshal(raw, &env)
	return env, err
}

// failed reports whether the transaction errored on-chain.
func (e txEnvelope) failed() bool {
	return len(e.Meta.Err) > 0 && string(e.Meta.Err) != "null"
}

// touchesProgram reports whether any top-level instruction invokes one of
// the given program IDs.
func (e txEnvelope) touchesProgram(programs map[string]string) (string, bool) {
	for _, ix := range e.Transaction.Message.Instructions {
		if _, ok := programs[ix.ProgramID]; ok {
			return ix.ProgramID, true
		}
	}
	return "", false
}

// poolAccount resolves the pool identity for this transaction per spec §4.3
// step 7: prefer the configured AMM program id the transaction touched; when
// no configured program matched (unlisted program, aggregator, nested CPI),
// fall back to the base_mint-quote_mint concatenation so the swap still gets
// a stable pool identity instead of being dropped.
func (e txEnvelope) poolAccount(programID, baseMint, quoteMint string) string {
	if programID != "" {
		return programID
	}
	if baseMint != "" && quoteMint != "" {
		return baseMint + "-" + quoteMint
	}
	return ""
}
