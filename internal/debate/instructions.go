package debate

import (
	"github.com/michael/vc-council/internal/prompts"
	"github.com/michael/vc-council/internal/types"
)

// Instructions builds the full instruction text for a step: the role's
// persona followed by the round task template with the company block
// substituted in. Context records are passed to the runner separately.
func Instructions(step Step, input types.CompanyInput) string {
	persona := prompts.MustGet("personas.json", step.Role)
	task := prompts.MustGet("debate.json", step.PromptKey)
	return persona + "\n\n" + prompts.Format(task, map[string]string{
		"Company": input.Summary(),
	})
}
