package parser

import "testing"

func uiBalance(amount float64) struct {
	Amount   string  `json:"amount"`
	UiAmount float64 `json:"uiAmount"`
} {
	return struct {
		Amount   string  `json:"amount"`
		UiAmount float64 `json:"uiAmount"`
	}{UiAmount: amount}
}

func exampleEnvelope() txEnvelope {
	var env txEnvelope
	env.Meta.PreTokenBalances = []tokenBalance{
		{Mint: "USDC", Owner: "wallet1", UiTokenAmount: uiBalance(100)},
		{Mint: "TOKX", Owner: "wallet1", UiTokenAmount: uiBalance(0)},
	}
	env.Meta.PostTokenBalances = []tokenBalance{
		{Mint: "USDC", Owner: "wallet1", UiTokenAmount: uiBalance(90)},
		{Mint: "TOKX", Owner: "wallet1", UiTokenAmount: uiBalance(50)},
	}
	return env
}

func TestBalanceDeltas_TwoLegs(t *testing.T) {
	env := exampleEnvelope()
	deltas := balanceDeltas(env)
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(deltas))
	}
	var sold, bought *tokenDelta
	for i := range deltas {
		if deltas[i].amount.IsNegative() {
			sold = &deltas[i]
		} else {
			bought = &deltas[i]
		}
	}
	if sold == nil || bought == nil {
		t.Fatalf("expected one negative and one positive delta, got %+v", deltas)
	}
	if sold.mint != "USDC" {
		t.Fatalf("expected USDC sold, got %s", sold.mint)
	}
	if bought.mint != "TOKX" {
		t.Fatalf("expected TOKX bought, got %s", bought.mint)
	}
}

func TestBalanceDeltas_NoChangeSkipped(t *testing.T) {
	env := txEnvelope{}
	env.Meta.PreTokenBalances = []tokenBalance{{Mint: "USDC", Owner: "w", UiTokenAmount: uiBalance(10)}}
	env.Meta.PostTokenBalances = []tokenBalance{{Mint: "USDC", Owner: "w", UiTokenAmount: uiBalance(10)}}
	deltas := balanceDeltas(env)
	if len(deltas) != 0 {
		t.Fatalf("expected no deltas for unchanged balance, got %d", len(deltas))
	}
}

func TestTouchesProgram(t *testing.T) {
	env := txEnvelope{}
	env.Transaction.Message.Instructions = []instruction{{ProgramID: "AMM1"}, {ProgramID: "OTHER"}}
	programs := map[string]string{"AMM1": "test_amm"}
	id, ok := env.touchesProgram(programs)
	if !ok || id != "AMM1" {
		t.Fatalf("expected to match AMM1, got %q ok=%v", id, ok)
	}

	programs2 := map[string]string{"NOPE": "x"}
	if _, ok := env.touchesProgram(programs2); ok {
		t.Fatalf("expected no match")
	}
}
