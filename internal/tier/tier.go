// Package tier classifies model identifiers into cost tiers and
// resolves their effective daily quota. It is pure: overrides and
// pattern sets are injected, nothing here touches the network or the
// database.
package tier

import (
	"github.com/dlclark/regexp2"
)

type Tier string

const (
	TierFree     Tier = "free"
	TierStandard Tier = "standard"
	TierHeavy    Tier = "heavy"
)

// Tier defaults, requests per day. 0 means unlimited.
const (
	DefaultLimitFree     = 0
	DefaultLimitHeavy    = 5
	DefaultLimitStandard = 15
)

// Override is one row of the injectable per-model table. Nil fields
// fall through to pattern classification / tier defaults.
type Override struct {
	Tier       *Tier
	DailyLimit *int
}

// Default identifier patterns. Case-insensitive substring semantics,
// same matching engine the rest of the project uses.
var (
	defaultFreePatterns = []string{
		`(?i)flash`,
		`(?i)-mini`,
		`(?i)lite`,
		`(?i):free$`,
	}
	defaultHeavyPatterns = []string{
		`(?i)opus`,
		`(?i)-pro`,
		`(?i)^o[13](-|$)`,
	}
)

type Resolver struct {
	overrides map[string]Override
	free      []*regexp2.Regexp
	heavy     []*regexp2.Regexp
}

type Option func(*Resolver)

// WithFreePatterns replaces the default free-tier identifier patterns.
func WithFreePatterns(patterns []string) Option {
	return func(r *Resolver) { r.free = compile(patterns) }
}

// WithHeavyPatterns replaces the default heavy-tier identifier patterns.
func WithHeavyPatterns(patterns []string) Option {
	return func(r *Resolver) { r.heavy = compile(patterns) }
}

func NewResolver(overrides map[string]Override, opts ...Option) *Resolver {
	r := &Resolver{
		overrides: overrides,
		free:      compile(defaultFreePatterns),
		heavy:     compile(defaultHeavyPatterns),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func compile(patterns []string) []*regexp2.Regexp {
	compiled := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.None)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

func matchAny(patterns []*regexp2.Regexp, s string) bool {
	for _, re := range patterns {
		if ok, _ := re.MatchString(s); ok {
			return true
		}
	}
	return false
}

// Classify resolves the tier of a model identifier.
// Precedence: explicit override tier, free patterns, heavy patterns,
// standard.
func (r *Resolver) Classify(modelID string) Tier {
	if o, ok := r.overrides[modelID]; ok && o.Tier != nil {
		return *o.Tier
	}
	if matchAny(r.free, modelID) {
		return TierFree
	}
	if matchAny(r.heavy, modelID) {
		return TierHeavy
	}
	return TierStandard
}

// DailyLimit resolves the effective daily quota of a model.
// An explicit override limit wins even when it contradicts the tier;
// 0 means unlimited.
func (r *Resolver) DailyLimit(modelID string) int {
	if o, ok := r.overrides[modelID]; ok && o.DailyLimit != nil {
		if *o.DailyLimit < 0 {
			return 0
		}
		return *o.DailyLimit
	}
	switch r.Classify(modelID) {
	case TierFree:
		return DefaultLimitFree
	case TierHeavy:
		return DefaultLimitHeavy
	default:
		return DefaultLimitStandard
	}
}
