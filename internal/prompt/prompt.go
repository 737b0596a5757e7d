// Package prompt builds the role-tagged messages sent to the chat capability.
package prompt

import "strings"

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role
	Content string
}

// Kind selects one of the fixed templates.
type Kind int

const (
	Summarize Kind = iota + 1
	Answer
	Visualize
)

func (k Kind) String() string {
	switch k {
	case Summarize:
		return "summarize"
	case Answer:
		return "answer"
	case Visualize:
		return "visualize"
	default:
		return "unknown"
	}
}

const (
	SummarizeSystem = "Summarize the text clearly."
	AnswerSystem    = "You are a helpful assistant. Use only the provided document text to answer."
	ChartSystem     = `You are a data extraction assistant.
If the user asks for a chart, analyze the document and return ONLY valid JSON in this format:
{"labels": ["label1", "label2"], "values": [10,20], "chart_type": "pie" or "bar"}
No explanation, just raw JSON.`
	TableSystem = "When asked to make a table, return it in Markdown format."
)

// WantsChart reports chart intent: the instruction mentions "chart" in any case.
// "table of chart data" therefore asks for a chart.
func WantsChart(instruction string) bool {
	return strings.Contains(strings.ToLower(instruction), "chart")
}

// Build returns the system and user messages for kind. instruction is the
// question for Answer and the table/chart request for Visualize; Summarize
// ignores it.
func Build(kind Kind, text, instruction string) []Message {
	switch kind {
	case Summarize:
		return pair(SummarizeSystem, text)
	case Answer:
		return pair(AnswerSystem, "Document:\n"+text+"\n\nQuestion: "+instruction)
	case Visualize:
		system := TableSystem
		if WantsChart(instruction) {
			system = ChartSystem
		}
		return pair(system, "Document:\n"+text+"\n\nInstruction: "+instruction)
	default:
		return nil
	}
}

func pair(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}
