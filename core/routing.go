package core

// RoutingStrategy selects the dispatcher algorithm for a request.
type RoutingStrategy string

const (
	StrategyPrimary          RoutingStrategy = "primary"
	StrategyFallback         RoutingStrategy = "fallback"
	StrategyConsensus        RoutingStrategy = "consensus"
	StrategyLoadBalance      RoutingStrategy = "load-balance"
	StrategyLatencyOptimized RoutingStrategy = "latency-optimized"
	StrategyCostOptimized    RoutingStrategy = "cost-optimized"
)

// Strategies lists every supported strategy in declaration order.
var Strategies = []RoutingStrategy{
	StrategyPrimary,
	StrategyFallback,
	StrategyConsensus,
	StrategyLoadBalance,
	StrategyLatencyOptimized,
	StrategyCostOptimized,
}

// ParseRoutingStrategy validates a strategy name. The empty string maps to
// StrategyPrimary.
func ParseRoutingStrategy(s string) (RoutingStrategy, error) {
	if s == "" {
		return StrategyPrimary, nil
	}
	for _, st := range Strategies {
		if string(st) == s {
			return st, nil
		}
	}
	return "", NewValidationError("Unknown routing strategy: "+s, nil)
}
