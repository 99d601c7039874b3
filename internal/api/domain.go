package api

import (
	"github.com/JaimeStill/assent/internal/directives"
	"github.com/JaimeStill/assent/internal/policies"
	"github.com/JaimeStill/assent/internal/reasoning"
	"github.com/JaimeStill/assent/internal/rules"
	"github.com/JaimeStill/assent/internal/verification"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Policies     policies.System
	Directives   directives.System
	Verification *verification.Engine
}

// NewDomain creates all domain systems from the API runtime. Free-text
// evaluation reaches the configured agent through the reasoning throttle preset.
func NewDomain(runtime *Runtime) *Domain {
	policiesSystem := policies.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	directivesSystem := directives.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	reasoner := reasoning.New(
		reasoning.NewAgentBackend(runtime.Agent),
		runtime.Throttle,
		runtime.ReasoningLimit,
		directivesSystem,
		reasoning.Options{
			Timeout:     runtime.Engine.BackendTimeoutDuration(),
			CharBudget:  runtime.Engine.PolicyCharBudget,
			Temperature: runtime.Engine.TemperatureValue(),
			Structured:  runtime.Engine.Structured(),
		},
		runtime.Logger,
		reasoning.WithMetrics(reasoning.NewMetrics(runtime.Metrics)),
	)

	engine := verification.New(
		policiesSystem,
		rules.New(runtime.Logger),
		reasoner,
		runtime.Logger,
		verification.WithMetrics(verification.NewMetrics(runtime.Metrics)),
	)

	return &Domain{
		Policies:     policiesSystem,
		Directives:   directivesSystem,
		Verification: engine,
	}
}
