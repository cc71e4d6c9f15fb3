// ABOUTME: Prompt assembly for grounded answer generation
// ABOUTME: Produces the system and user messages sent to chat models
package llm

import "strings"

// NoContextMessage stands in for retrieved text when nothing matched
const NoContextMessage = "No relevant document found in the database."

const systemPrompt = `You answer questions using the relevant information supplied with each query.
If the information does not contain the answer, say so plainly instead of guessing.`

// BuildPrompt returns the system and user messages for req
func BuildPrompt(req GenerateRequest) (system, user string) {
	system = systemPrompt
	if req.Instruction != "" {
		system = system + "\n" + req.Instruction
	}

	data := NoContextMessage
	if len(req.Context) > 0 {
		data = strings.Join(req.Context, "\n\n")
	}

	var sb strings.Builder
	sb.WriteString("User query: ")
	sb.WriteString(req.Query)
	sb.WriteString("\nRelevant information: ")
	sb.WriteString(data)
	return system, sb.String()
}
