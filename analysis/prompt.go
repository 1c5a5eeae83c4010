package analysis

import "strings"

const codePlaceholder = "{{CODE}}"

const promptTemplate = `You are an expert competitive programmer and computer science instructor.

Analyze the following solution and provide:
1. Time complexity (worst case)
2. Space complexity (worst case)
3. A short, clear explanation

Rules:
- Use Big-O notation
- Assume input size n
- Be conservative (worst case)
- If multiple variables exist, express them clearly
- Do NOT explain language syntax

Return STRICT JSON only:

{
	"time": "O(...)",
	"space": "O(...)",
	"explanation": "..."
}

Code:
` + codePlaceholder

// BuildPrompt returns the instruction sent to the model for code. The output
// depends on code alone.
func BuildPrompt(code string) string {
	return strings.Replace(promptTemplate, codePlaceholder, code, 1)
}
