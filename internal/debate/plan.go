package debate

// contextRule determines which prior step outputs a step may see.
type contextRule int

const (
	// contextFresh starts the step with no prior outputs. Every round except
	// the last opens this way: the team debate deliberately cannot see the
	// market debate. This cross-round blindness is a product decision, not
	// an accident.
	contextFresh contextRule = iota
	// contextRound exposes the preceding steps of the same round, in order.
	contextRound
	// contextAll exposes every prior step. Only the final decision step
	// uses this.
	contextAll
)

// Step is one planned unit of council work.
type Step struct {
	Index     int    // 1..17
	Round     int    // 1..5
	Topic     string // round topic
	Role      string
	PromptKey string // key into the debate prompt templates
	rule      contextRule
}

// TotalSteps is the fixed length of the council plan.
const TotalSteps = 17

// Plan returns the static 17-step council plan.
//
// Rounds 1-4 each run four steps: a topic specialist opens, the bull and
// bear argue, and a closer weighs in. Round 5 is the lead partner's
// decision, the only step that sees the full debate history.
func Plan() []Step {
	rounds := []struct {
		topic  string
		opener string
		closer string
	}{
		{TopicMarket, RoleMarketResearcher, RoleRiskAssessor},
		{TopicTeam, RoleFounderEvaluator, RoleRiskAssessor},
		{TopicProduct, RoleProductCritic, RoleMarketResearcher},
		{TopicFinancial, RoleFinancialAnalyst, RoleRiskAssessor},
	}

	plan := make([]Step, 0, TotalSteps)
	index := 1
	for r, round := range rounds {
		roles := []string{round.opener, RoleBull, RoleBear, round.closer}
		keys := []string{"open", "bull", "bear", "close"}
		for p, role := range roles {
			rule := contextRound
			if p == 0 {
				rule = contextFresh
			}
			plan = append(plan, Step{
				Index:     index,
				Round:     r + 1,
				Topic:     round.topic,
				Role:      role,
				PromptKey: round.topic + "." + keys[p],
				rule:      rule,
			})
			index++
		}
	}

	plan = append(plan, Step{
		Index:     TotalSteps,
		Round:     5,
		Topic:     TopicDecision,
		Role:      RoleLeadPartner,
		PromptKey: "decision.final",
		rule:      contextAll,
	})
	return plan
}

// ContextFor computes the indexes of the prior steps visible to step i.
// Pure and deterministic: fresh-start steps see nothing, in-round steps see
// the preceding steps of their round, and the final step sees everything.
func ContextFor(step Step) []int {
	switch step.rule {
	case contextFresh:
		return nil
	case contextAll:
		visible := make([]int, 0, step.Index-1)
		for i := 1; i < step.Index; i++ {
			visible = append(visible, i)
		}
		return visible
	default:
		roundStart := (step.Round-1)*4 + 1
		visible := make([]int, 0, step.Index-roundStart)
		for i := roundStart; i < step.Index; i++ {
			visible = append(visible, i)
		}
		return visible
	}
}
