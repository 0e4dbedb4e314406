// Package config loads the pipeline's environment configuration, mirroring
// the Python original's app/scf_config.py and its per-module .env loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// ProgramIDs is the configured set of AMM/CLMM trading program IDs, keyed by
// their on-chain address, valued by a short human label used in logs.
type ProgramIDs map[string]string

// Thresholds holds the SCF5 rule's five tunables (spec §4.6).
type Thresholds struct {
	VCMax  decimal.Decimal `json:"vc_max"`
	OFSMax decimal.Decimal `json:"ofs_max"`
	LTMax  decimal.Decimal `json:"lt_max"`
	WCMin  decimal.Decimal `json:"wc_min"`
	RQMax  decimal.Decimal `json:"rq_max"`
}

// PartialLevel is one (level, ratio) pair from a TP_PARTIALS/SL_PARTIALS spec.
type PartialLevel struct {
	Level decimal.Decimal
	Ratio decimal.Decimal
}

// Config is the fully-resolved process configuration.
type Config struct {
	DBURL string

	RPCWS        string
	RPCHTTP      string
	RPCWSBackup  string

	Programs ProgramIDs

	Thresholds Thresholds

	DetectorPollInterval time.Duration
	DetectorDedupSec     int

	ExecutorPollInterval time.Duration
	ExecutorWindowMin    int
	ExecutorBatch        int

	ExitPollInterval time.Duration
	TPMult           decimal.Decimal
	SLMult           decimal.Decimal
	TPPartials       []PartialLevel
	SLPartials       []PartialLevel

	ParserBatch        int
	ParserPollInterval time.Duration

	ResolvePollInterval time.Duration

	HealthInterval time.Duration

	DashboardAddr string
	WebhookURL    string

	ShadowVCMultiplier decimal.Decimal
}

// defaultPrograms mirrors the defaults baked into the Python original's
// scf_runner.py / parser_swap.py / parser_lp.py.
var defaultPrograms = ProgramIDs{
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": "raydium_amm",
	"4hGdEStwqyqZkG2tZibsSDQ7SBy7xH2sVQ2QJVV5o4Ck": "raydium_clmm",
	"9WwG7VJp49r4bgx1mVQqzKkGKuX3sX5Y3F9F6w8vG8bS": "orca_amm",
	"whirLbMiicVq4SCVZxdrmB9otnE8u6VYzG9xH8Wc7so":  "orca_whirl",
}

// Load reads .env (if present) then the process environment, returning a
// resolved Config. DATABASE_URL missing is fatal-at-startup (spec §7);
// every other field has a documented default (spec §6).
func Load() (*Config, error) {
	_ = godotenv.Load() // best-effort; absence of .env is not an error

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DB_URL")
	}
	if dbURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL (or DB_URL) is required")
	}

	cfg := &Config{
		DBURL:       dbURL,
		RPCWS:       firstNonEmpty(os.Getenv("RPC_PRIMARY"), os.Getenv("RPC_WS")),
		RPCHTTP:     os.Getenv("RPC_HTTP_PRIMARY"),
		RPCWSBackup: os.Getenv("RPC_BACKUP"),
		Programs:    loadPrograms(),

		DetectorPollInterval: envDuration("SCF_DETECTOR_POLL_SEC", 2*time.Second),
		DetectorDedupSec:     envInt("SCF_DETECTOR_DEDUP_SEC", 300),

		ExecutorPollInterval: envDuration("SCF_EXECUTOR_POLL_SEC", 2*time.Second),
		ExecutorWindowMin:    envInt("SCF_EXECUTOR_WINDOW_MIN", 10),
		ExecutorBatch:        envInt("SCF_EXECUTOR_BATCH", 200),

		ExitPollInterval: envDuration("SCF_EXIT_POLL_SEC", 5*time.Second),
		TPMult:           envDecimal("SCF_TP_MULT", decimal.NewFromFloat(2.0)),
		SLMult:           envDecimal("SCF_SL_MULT", decimal.NewFromFloat(0.30)),

		ParserBatch:        envInt("PARSER_BATCH", 500),
		ParserPollInterval: envDuration("SCF_PARSER_POLL_SEC", 2*time.Second),

		ResolvePollInterval: envDuration("SCF_RESOLVE_POLL_SEC", 1*time.Second),

		HealthInterval: 5 * time.Second,

		DashboardAddr: firstNonEmpty(os.Getenv("DASHBOARD_ADDR"), ":8080"),
		WebhookURL:    os.Getenv("SCF_WEBHOOK_URL"),

		ShadowVCMultiplier: envDecimal("SCF_SHADOW_VC_MULT", decimal.NewFromFloat(1.1)),
	}

	cfg.TPPartials = parsePartials(os.Getenv("SCF_TP_PARTIAL"))
	cfg.SLPartials = parsePartials(os.Getenv("SCF_SL_PARTIAL"))

	th, err := loadThresholds()
	if err != nil {
		return nil, err
	}
	cfg.Thresholds = th

	if key := os.Getenv("HELIUS_KEY"); key != "" {
		if cfg.RPCWS == "" {
			cfg.RPCWS = "wss://mainnet.helius-rpc.com/?api-key=" + key
		}
		if cfg.RPCHTTP == "" {
			cfg.RPCHTTP = "https://mainnet.helius-rpc.com/?api-key=" + key
		}
	}

	return cfg, nil
}

func loadPrograms() ProgramIDs {
	out := make(ProgramIDs, len(defaultPrograms))
	for k, v := range defaultPrograms {
		out[k] = v
	}
	overrides := map[string]string{
		"RAYDIUM_AMM":  "raydium_amm",
		"RAYDIUM_CLMM": "raydium_clmm",
		"ORCA_AMM":     "orca_amm",
		"ORCA_WHIRL":   "orca_whirl",
	}
	for env, label := range overrides {
		if v := os.Getenv(env); v != "" {
			out[v] = label
		}
	}
	return out
}

// loadThresholds resolves SCF5 thresholds from individual env vars, then
// applies a JSON override file if SCF_THRESHOLDS_FILE is set — restoring the
// dropped scf_config.py: load_thresholds() behavior (spec SPEC_FULL.md §12).
func loadThresholds() (Thresholds, error) {
	th := Thresholds{
		VCMax:  envDecimal("SCF_VC_MAX", decimal.NewFromFloat(0.015)),
		OFSMax: envDecimal("SCF_OFS_MAX", decimal.NewFromFloat(0.001)),
		LTMax:  envDecimal("SCF_LT_MAX", decimal.NewFromInt(5000)),
		WCMin:  envDecimal("SCF_WC_MIN", decimal.NewFromFloat(0.6)),
		RQMax:  envDecimal("SCF_RQ_MAX", decimal.NewFromFloat(0.5)),
	}

	path := os.Getenv("SCF_THRESHOLDS_FILE")
	if path == "" {
		return th, nil
	}
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return th, fmt.Errorf("config: reading thresholds file %s: %w", path, err)
	}
	var override struct {
		VCMax  *float64 `json:"vc_max"`
		OFSMax *float64 `json:"ofs_max"`
		LTMax  *float64 `json:"lt_max"`
		WCMin  *float64 `json:"wc_min"`
		RQMax  *float64 `json:"rq_max"`
	}
	if err := json.Unmarshal(raw, &override); err != nil {
		return th, fmt.Errorf("config: parsing thresholds file %s: %w", path, err)
	}
	if override.VCMax != nil {
		th.VCMax = decimal.NewFromFloat(*override.VCMax)
	}
	if override.OFSMax != nil {
		th.OFSMax = decimal.NewFromFloat(*override.OFSMax)
	}
	if override.LTMax != nil {
		th.LTMax = decimal.NewFromFloat(*override.LTMax)
	}
	if override.WCMin != nil {
		th.WCMin = decimal.NewFromFloat(*override.WCMin)
	}
	if override.RQMax != nil {
		th.RQMax = decimal.NewFromFloat(*override.RQMax)
	}
	return th, nil
}

// parsePartials parses a "level:ratio,level:ratio" spec into ordered pairs,
// per spec §4.8. Malformed entries are skipped, not fatal.
func parsePartials(spec string) []PartialLevel {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}
	var out []PartialLevel
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" || !strings.Contains(item, ":") {
			continue
		}
		parts := strings.SplitN(item, ":", 2)
		lvl, err1 := decimal.NewFromString(strings.TrimSpace(parts[0]))
		rat, err2 := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			continue
		}
		if lvl.LessThanOrEqual(decimal.Zero) {
			continue
		}
		if rat.LessThanOrEqual(decimal.Zero) || rat.GreaterThan(decimal.NewFromInt(1)) {
			continue
		}
		out = append(out, PartialLevel{Level: lvl, Ratio: rat})
	}
	sortPartials(out)
	return out
}

func sortPartials(levels []PartialLevel) {
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0 && levels[j].Level.LessThan(levels[j-1].Level); j-- {
			levels[j], levels[j-1] = levels[j-1], levels[j]
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(time.Second))
		}
	}
	return fallback
}

func envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return fallback
}
