package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPartialTag_Tag(t *testing.T) {
	tag := PartialTag{Side: PartialTP, Level: decimal.NewFromFloat(0.25)}
	if got, want := tag.Tag(), "partial_TP_0.25"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPositionMeta_HasTaken_InitiallyFalse(t *testing.T) {
	var meta PositionMeta
	tag := PartialTag{Side: PartialSL, Level: decimal.NewFromFloat(0.1)}
	if meta.HasTaken(tag) {
		t.Fatalf("expected fresh PositionMeta to report no partials taken")
	}
}

func TestPositionMeta_MarkTaken_IsNonMutating(t *testing.T) {
	orig := PositionMeta{Source: "detector"}
	tag := PartialTag{Side: PartialTP, Level: decimal.NewFromFloat(0.1)}

	updated := orig.MarkTaken(tag)

	if orig.HasTaken(tag) {
		t.Fatalf("MarkTaken must not mutate the receiver")
	}
	if !updated.HasTaken(tag) {
		t.Fatalf("expected the returned copy to record the tag as taken")
	}
	if orig.PartialsTaken != nil {
		t.Fatalf("expected original PartialsTaken map to remain nil, got %v", orig.PartialsTaken)
	}
}

func TestPositionMeta_MarkTaken_PreservesExistingTags(t *testing.T) {
	tagA := PartialTag{Side: PartialTP, Level: decimal.NewFromFloat(0.1)}
	tagB := PartialTag{Side: PartialSL, Level: decimal.NewFromFloat(0.2)}

	meta := PositionMeta{}.MarkTaken(tagA)
	meta = meta.MarkTaken(tagB)

	if !meta.HasTaken(tagA) || !meta.HasTaken(tagB) {
		t.Fatalf("expected both tags recorded, got %v", meta.PartialsTaken)
	}
}
