package matching

import "fmt"

// State is a step of query resolution.
//
//	Unresolved -> Tier1Hit | Tier2Hit | Tier3Hit | NoHit
//	Tier2Hit | Tier3Hit | NoHit -> FallbackAttempted -> Resolved | StillUnresolved
type State int

const (
	Unresolved State = iota
	Tier1Hit
	Tier2Hit
	Tier3Hit
	NoHit
	FallbackAttempted
	Resolved
	StillUnresolved
)

var stateNames = map[State]string{
	Unresolved:        "unresolved",
	Tier1Hit:          "tier1_hit",
	Tier2Hit:          "tier2_hit",
	Tier3Hit:          "tier3_hit",
	NoHit:             "no_hit",
	FallbackAttempted: "fallback_attempted",
	Resolved:          "resolved",
	StillUnresolved:   "still_unresolved",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var transitions = map[State][]State{
	Unresolved:        {Tier1Hit, Tier2Hit, Tier3Hit, NoHit},
	Tier2Hit:          {FallbackAttempted},
	Tier3Hit:          {FallbackAttempted},
	NoHit:             {FallbackAttempted},
	FallbackAttempted: {Resolved, StillUnresolved},
}

// CanTransition reports whether next may follow s.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NeedsFallback reports whether the live fallback must be attempted from s.
func (s State) NeedsFallback() bool {
	return s.CanTransition(FallbackAttempted)
}

// Tier identifies the strategy that produced a match.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierKeyword
	TierSimilarity
	TierLive
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierKeyword:
		return "keyword"
	case TierSimilarity:
		return "similarity"
	case TierLive:
		return "live"
	default:
		return "none"
	}
}
