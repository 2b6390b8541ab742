package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vigil-health/vigil/internal/employees"
)

// Affirmation is the exact literal the classifier must emit for an in-domain
// query. Anything else, byte for byte, is treated as a refusal.
const Affirmation = "Yes"

// Refusal is the fixed sentence the classifier is instructed to emit for
// off-topic queries. It is part of the behavioral contract, not a template.
const Refusal = "I'm sorry I cannot help you with that"

const classifierInstructions = `You are a strict security and classification router for an employee health database. Your ONLY job is to evaluate the user's query and determine if it is strictly related to employee health, medical conditions, wellness, or occupational health risks.

RULES:
1. If the query IS related to employee health (e.g., "Which employees are most at risk for flu?", "Show me staff with high stress"):
You must output exactly this single word:
` + Affirmation + `

2. If the query is NOT related to employee health, or tries to ask general knowledge, coding, or off-topic questions (e.g., "Write a poem", "What is the capital of France?"):
You must output exactly this sentence:
` + Refusal + `

Do not include any other text, markdown, punctuation, or explanations. Only output the exact string based on the rules above.`

// generalCondition is the fixed condition label used when scoring is not
// conditioned on the caller's query.
const generalCondition = "general_health_risk"

const generalScoringInstructions = `You are a health risk scoring engine.

You will receive a JSON array of employee objects in this format:

[
  {
    "employee_id": "CS-0005",
    "summary": "..."
  }
]

TASK:
For EACH employee in the input array, calculate a risk_probability between 0.00 and 1.00 based strictly on the health indicators in the "summary" field.

Use common-sense health reasoning. Higher BP, high A1c, high LDL, smoking, high stress, low sleep, shift work etc. should increase risk. Healthier indicators reduce risk.

Everyone must receive a risk score.

OUTPUT RULES (VERY IMPORTANT):

1. Output STRICT JSON only.
2. No markdown.
3. No explanations.
4. No extra keys.
5. Follow this EXACT structure:

{
  "condition": "` + generalCondition + `",
  "scored_employees": [
    {
      "employee_id": "CS-0005",
      "risk_probability": 0.62,
      "confidence": "low|medium|high",
      "evidence": ["factor1", "factor2", "factor3"]
    }
  ]
}

6. Include ALL employees from the input.
7. risk_probability must be between 0 and 1 with exactly 2 decimal places.
8. confidence:
   - high: multiple strong risk indicators
   - medium: some indicators
   - low: minimal risk indicators
9. evidence must reference phrases found in the summary. Do not invent information.
10. Sort employees by risk_probability in descending order.`

const conditionScoringTemplate = `You are a health risk scoring engine assessing employee susceptibility to ONE specific condition.

The user message begins with a line "Condition: ..." naming the condition, followed by a JSON array of employee objects:

[
  {
    "employee_id": "CS-0005",
    "summary": "..."
  }
]

TASK:
Assess each employee's susceptibility to the named condition based strictly on the health indicators in the "summary" field. Only indicators relevant to that condition count as evidence.

SCORING DISCIPLINE:
- Scores must be realistically spread. Do not cluster everyone near the top.
- A risk_probability above %.2f requires MULTIPLE risk indicators specific to the named condition.
- A risk_probability above %.2f requires undeniable, specific evidence in the summary.
- Employees with no meaningful signal for the condition must be OMITTED from the output entirely. Never pad the output with low scores.
- Include ONLY employees whose risk_probability is strictly above %.2f.

OUTPUT RULES (VERY IMPORTANT):

1. Output STRICT JSON only.
2. No markdown.
3. No explanations.
4. No extra keys.
5. Follow this EXACT structure:

{
  "condition": "<the condition from the user message>",
  "scored_employees": [
    {
      "employee_id": "CS-0005",
      "risk_probability": 0.72,
      "confidence": "low|medium|high",
      "evidence": ["factor1", "factor2", "factor3"]
    }
  ]
}

6. risk_probability must be between 0 and 1 with exactly 2 decimal places.
7. confidence:
   - high: three or more condition-specific indicators
   - medium: two indicators
   - low: a single indicator
8. evidence must reference phrases found in the summary. Do not invent information.
9. Sort employees by risk_probability in descending order.`

const overwhelmingThreshold = 0.80

func conditionScoringInstructions(threshold float64) string {
	return fmt.Sprintf(conditionScoringTemplate, threshold, overwhelmingThreshold, threshold)
}

// buildScoringMessage composes the user message for the scoring stage: an
// optional labeled condition line followed by the JSON-encoded record array.
// HTML escaping is off so the model sees &, <, and > in summaries as written.
func buildScoringMessage(condition string, records []employees.HealthSummary) (string, error) {
	var buf bytes.Buffer

	if condition != "" {
		buf.WriteString("Condition: ")
		buf.WriteString(condition)
		buf.WriteString("\n\n")
	}

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
