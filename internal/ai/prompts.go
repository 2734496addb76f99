package ai

import (
	"fmt"
	"strings"
)

const persona = `You are "Health Buddy", an empathetic and knowledgeable medical AI assistant talking to a patient.`

// Turn is one line of chat history.
type Turn struct {
	FromUser bool
	Text     string
}

func lengthHint(detailed bool) string {
	if detailed {
		return "Give a thorough explanation, covering likely causes and reasoning."
	}
	return "Keep it concise, under 100 words."
}

// SymptomPrompt asks for a JSON object with title, severity, summary and advice.
func SymptomPrompt(symptoms string, detailed bool) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\nThe patient describes these symptoms:\n")
	fmt.Fprintf(&b, "%q\n\n", symptoms)
	b.WriteString("Provide a balanced clinical analysis. Respond with a single JSON object and nothing else, with these fields:\n")
	b.WriteString(`- "title": a professional or descriptive name for the likely condition` + "\n")
	b.WriteString(`- "severity": exactly one of "Low", "Moderate", "High"` + "\n")
	b.WriteString(`- "summary": possible causes` + "\n")
	b.WriteString(`- "advice": practical self-care steps and when to see a doctor` + "\n")
	b.WriteString(lengthHint(detailed))
	b.WriteString("\nDo not wrap the JSON in Markdown code blocks.")
	return b.String()
}

// ChatPrompt includes prior turns so the reply stays in context.
func ChatPrompt(message string, history []Turn, detailed bool) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n")
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range history {
			who := "Assistant"
			if t.FromUser {
				who = "Patient"
			}
			fmt.Fprintf(&b, "%s: %s\n", who, t.Text)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Patient message: %q\n\n", message)
	b.WriteString("Provide a helpful, safe and medically sound response. ")
	b.WriteString(lengthHint(detailed))
	b.WriteString(" If the patient asks for a diagnosis, give information but always advise consulting a real doctor.")
	return b.String()
}

// ReportPrompt asks for a plain-text health summary built from facts.
func ReportPrompt(facts []string, detailed bool) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\nWrite a personal health summary report for the patient from these records:\n")
	for _, f := range facts {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\nStructure it with the sections Overview, Current Conditions, Medications, Recommendations. Use plain text without Markdown. ")
	b.WriteString(lengthHint(detailed))
	b.WriteString(" End with a reminder that this report does not replace a consultation.")
	return b.String()
}
