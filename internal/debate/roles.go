// Package debate defines the 17-step, 5-round investment committee plan and
// executes it sequentially against a StepRunner.
package debate

// The eight council roles.
const (
	RoleMarketResearcher = "market_researcher"
	RoleFounderEvaluator = "founder_evaluator"
	RoleProductCritic    = "product_critic"
	RoleFinancialAnalyst = "financial_analyst"
	RoleRiskAssessor     = "risk_assessor"
	RoleBull             = "bull"
	RoleBear             = "bear"
	RoleLeadPartner      = "lead_partner"
)

// Round topics in execution order.
const (
	TopicMarket    = "market"
	TopicTeam      = "team"
	TopicProduct   = "product"
	TopicFinancial = "financial"
	TopicDecision  = "decision"
)

// Topics returns the round topics indexed by round number (1..5).
func Topics() []string {
	return []string{TopicMarket, TopicTeam, TopicProduct, TopicFinancial, TopicDecision}
}
