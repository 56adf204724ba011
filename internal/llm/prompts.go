package llm

import "fmt"

const evaluationSystemPrompt = "You are an expert in software requirements analysis. You respond only with valid JSON."

// BuildEvaluationPrompt constructs the context-evaluation prompt for a term
func BuildEvaluationPrompt(req EvaluationRequest) string {
	return fmt.Sprintf(`You are an expert in software requirements analysis. Your task is to determine if a term is ambiguous or vague in the given context.

A term is considered AMBIGUOUS if:
- It is subjective or open to interpretation
- It lacks specific, measurable criteria
- Different people might interpret it differently
- It uses relative or qualitative language without quantification

A term is considered CLEAR if:
- It has a specific, well-defined meaning in the context
- It is a domain-specific technical term with precise meaning
- The context provides sufficient specificity
- It is quantifiable or measurable

Term to evaluate: "%s"

Sentence:
%s

Surrounding context:
%s

Analyze whether the term "%s" is ambiguous in this specific context.

Respond with a JSON object in the following format:
{
    "is_ambiguous": true or false,
    "confidence": 0.0 to 1.0,
    "reasoning": "Brief explanation of your decision"
}

Important:
- confidence should be between 0.0 (not confident) and 1.0 (very confident)
- reasoning should be 1-2 sentences explaining why the term is or isn't ambiguous
- Consider the specific context, not just the term in isolation
- Domain-specific technical terms should generally not be flagged as ambiguous

Respond ONLY with the JSON object, no additional text.`,
		req.Term, SanitizeForPrompt(req.Sentence), SanitizeForPrompt(req.ContextWindow), req.Term)
}

const suggestionSystemPrompt = "You are an expert requirements engineer. You respond only with valid JSON."

// BuildSuggestionPrompt constructs the replacement-suggestion prompt for a
// confirmed-ambiguous term
func BuildSuggestionPrompt(req SuggestionRequest) string {
	return fmt.Sprintf(`You are an expert requirements engineer. The term "%s" has been identified as ambiguous in a software requirement.

The sentence containing the term:
%s

The full requirement text:
%s

Your task:
1. Propose 2 to 5 concrete, specific, measurable replacement phrasings for "%s" that would remove the ambiguity. Each suggestion must be a complete phrase that could be substituted into the requirement.
2. Write exactly one clarification question whose answer would resolve the ambiguity (e.g. asking for a threshold, a standard, or a measurable criterion).

Respond with a JSON object in the following format:
{
    "suggestions": ["replacement 1", "replacement 2"],
    "clarification_prompt": "One specific question?"
}

Important:
- Each suggestion must be specific and measurable, not another vague phrase
- Suggestions must fit the context of the requirement
- Respond ONLY with the JSON object, no additional text.`,
		req.Term, SanitizeForPrompt(req.Sentence), SanitizeForPrompt(req.FullText), req.Term)
}
