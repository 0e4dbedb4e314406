// Package models holds the row types shared by every pipeline stage.
// Each type mirrors one relation from the store (see internal/store/schema.sql);
// stages never share state except through these rows persisted in Postgres.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxQueueStatus is the lifecycle state of a TxQueue row.
type TxQueueStatus string

const (
	TxQueued    TxQueueStatus = "queued"
	TxResolving TxQueueStatus = "resolving"
	TxResolved  TxQueueStatus = "resolved"
	TxError     TxQueueStatus = "error"
)

// MaxResolveRetries is the retry ceiling after which a TxQueue row moves to TxError.
const MaxResolveRetries = 5

// TxQueue is one observed transaction signature awaiting resolution.
type TxQueue struct {
	Signature   string
	ProgramID   *string
	Slot        int64
	Status      TxQueueStatus
	Retries     int
	LastError   *string
	EnqueuedAt  time.Time
}

// TxRaw is a resolved transaction payload, stored verbatim.
type TxRaw struct {
	Signature string
	Slot      int64
	Payload   []byte // raw getTransaction JSON response
}

// ParsedSig is the per-signature parsing watermark.
type ParsedSig struct {
	Signature string
	HasSwap   bool
	HasLP     bool
	HasAuth   bool
}

// SwapSide is the inferred trade direction.
type SwapSide int

const (
	SideSell    SwapSide = -1
	SideUnknown SwapSide = 0
	SideBuy     SwapSide = 1
)

// SwapEvent is one inferred swap, append-only.
type SwapEvent struct {
	ID        int64
	TS        time.Time
	Sig       string
	Slot      int64
	Pool      string
	Token     string
	Side      SwapSide
	Price     decimal.Decimal
	BaseAmt   decimal.Decimal
	QuoteAmt  decimal.Decimal
}

// LpEventKind describes what changed about a pool in one LpEvent row.
type LpEventKind string

const LpKindUpdate LpEventKind = "update"

// LpEvent is one liquidity-pool-touching transaction, append-only.
// XReserve/YReserve are nil in this scaffold — the spec explicitly forbids
// inferring them here (see spec §4.4).
type LpEvent struct {
	ID       int64
	Sig      string
	TS       time.Time
	Slot     int64
	Pool     string
	XReserve *decimal.Decimal
	YReserve *decimal.Decimal
	FeeBps   *int
	Kind     LpEventKind
}

// AuthorityEvent is append-only scaffolding for future authority/mint-permission tracking.
type AuthorityEvent struct {
	ID         int64
	TS         time.Time
	Mint       string
	Pool       *string
	FeeSwitch  *bool
	TaxFlag    *bool
	MintAuth   *string
	FreezeAuth *string
}

// FeatureSnapshot is the typed view over one FeaturesLatest row: the spec's
// "dynamically typed feature row" (read by candidate column name) resolved
// into concrete optional fields at the detector's lookup boundary (see
// internal/detector.FeatureView).
type FeatureSnapshot struct {
	Pool               string
	TS                 time.Time
	ATRPct15m          *decimal.Decimal
	ATRPct24h          *decimal.Decimal
	VCRatio            *decimal.Decimal
	CVDSlope5m         *decimal.Decimal
	QuoteVolume24h     *decimal.Decimal
	WinConsistency     *decimal.Decimal
	ReversionQuotient  *decimal.Decimal
	Obs                int

	// Raw holds every column in the row (including the five SCF5 candidate
	// columns this pool's schema happens to expose), keyed by column name,
	// for the detector's feature_snapshot JSON and for candidate lookup.
	Raw map[string]any
}

// SignalType enumerates DetectorSignal.signal_type values. SCF is long-only.
type SignalType string

const SignalLong SignalType = "long"

// DetectorSignal is one emitted trade signal, append-only.
type DetectorSignal struct {
	ID              int64
	Pool            string
	SignalType      SignalType
	Reason          string
	FeatureSnapshot map[string]any
	CreatedAt       time.Time
}

// PositionState is the coarse OPEN/CLOSED lifecycle state of a Position.
type PositionState string

const (
	PositionOpen   PositionState = "OPEN"
	PositionClosed PositionState = "CLOSED"
)

// ExecMode distinguishes how a Position was opened.
type ExecMode string

const (
	ExecModePaper    ExecMode = "paper"
	ExecModeLiveStub ExecMode = "live_stub"
)

// PartialSide is which bound (take-profit or stop-loss) a PartialTag belongs to.
type PartialSide string

const (
	PartialTP PartialSide = "TP"
	PartialSL PartialSide = "SL"
)

// PartialTag records one already-fired partial-exit level for a position.
// Re-expressed per spec §9 from the original's ad-hoc `partial_{TP|SL}_{level}`
// string-keyed map entry into a typed value; Tag() reproduces that exact
// string so the on-disk JSON representation (and the idempotence guarantee
// it encodes) is unchanged.
type PartialTag struct {
	Side  PartialSide
	Level decimal.Decimal
}

// Tag renders the canonical partial_{side}_{level} string key.
func (t PartialTag) Tag() string {
	return "partial_" + string(t.Side) + "_" + t.Level.String()
}

// PositionMeta is Position.meta, typed per spec §9's redesign note instead of
// an ad-hoc JSON blob. PartialsTaken is the set of partial-exit tags that
// have already fired for this position, keyed by PartialTag.Tag().
type PositionMeta struct {
	SignalID      string                `json:"signal_id"`
	Source        string                `json:"source"`
	Mode          ExecMode              `json:"mode"`
	PartialsTaken map[string]bool       `json:"partials_taken,omitempty"`
}

// HasTaken reports whether the given partial level has already fired.
func (m PositionMeta) HasTaken(tag PartialTag) bool {
	return m.PartialsTaken[tag.Tag()]
}

// MarkTaken returns a copy of m with tag recorded as fired.
func (m PositionMeta) MarkTaken(tag PartialTag) PositionMeta {
	out := m
	taken := make(map[string]bool, len(m.PartialsTaken)+1)
	for k, v := range m.PartialsTaken {
		taken[k] = v
	}
	taken[tag.Tag()] = true
	out.PartialsTaken = taken
	return out
}

// Position is one simulated or live trade position.
type Position struct {
	ID           uuid.UUID
	OpenedAt     time.Time
	Pool         string
	Token        string
	Size         decimal.Decimal
	EntryPx      decimal.Decimal
	SlippageBps  int
	State        PositionState
	Status       string
	SignalType   SignalType
	Reason       string
	EntryPrice   decimal.Decimal
	Meta         PositionMeta
}

// FillSide enumerates Fill.side values.
type FillSide string

const (
	FillEntry FillSide = "entry"
	FillSell  FillSide = "SELL"
)

// Fill is one entry/exit execution against a Position, append-only.
type Fill struct {
	ID    int64
	TS    time.Time
	PosID uuid.UUID
	Side  FillSide
	Px    decimal.Decimal
	Qty   decimal.Decimal
	Tx    *string
}

// ExitReason enumerates ExitEvent.reason values.
type ExitReason string

const (
	ExitTPHit     ExitReason = "TP_HIT"
	ExitSLHit     ExitReason = "SL_HIT"
	ExitTPPartial ExitReason = "TP_PARTIAL"
	ExitSLPartial ExitReason = "SL_PARTIAL"
)

// ExitEvent is one exit decision applied to a Position, append-only.
type ExitEvent struct {
	ID     int64
	TS     time.Time
	PosID  uuid.UUID
	Reason ExitReason
	Meta   map[string]any
}

// HealthSnapshot is the row-count + freshness summary the Health ticker prints.
type HealthSnapshot struct {
	TxQueue         int64
	TxRaw           int64
	SwapEvent       int64
	LpEvent         int64
	AuthorityEvent  int64
	FeaturesLatest  int64
	DetectorSignal  int64
	Position        int64
	SwapEventMaxAge *time.Duration
	LpEventMaxAge   *time.Duration
}
