package provider

import "strings"

// SystemPrompt is the instruction placed in each provider's system slot.
const SystemPrompt = "You are the Sculpt compiler AI. Generate target IR JSON that conforms to the provided schema. Output only JSON."

const promptPreamble = "You are the Sculpt compiler AI. Generate target IR JSON that conforms to the provided schema.\n" +
	"Do not include explanations. Output only JSON.\n\n"

// PromptInput carries the pre-rendered sections of a generation prompt.
// Empty optional fields are omitted from the output.
type PromptInput struct {
	// StandardIR is the target IR family identifier, e.g. "cli-ir".
	StandardIR string
	// SchemaJSON is the compiled compact schema, already pretty-printed.
	SchemaJSON string
	// SourceJSON is the validated source module, already pretty-printed.
	SourceJSON string
	// Report is the rendered nondeterminism report.
	Report string
	// PreviousIR is the prior attempt's target IR on a retry.
	PreviousIR string
	// Advisory lists convergence control lines for retries.
	Advisory []string
}

// BuildPrompt assembles the generation prompt. Section order is fixed so
// identical inputs always produce identical prompts.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("STANDARD_IR:\n")
	b.WriteString(in.StandardIR)
	if in.SchemaJSON != "" {
		b.WriteString("\n\nSCHEMA:\n")
		b.WriteString(in.SchemaJSON)
	}
	b.WriteString("\n\nSCULPT_IR_JSON:\n")
	b.WriteString(in.SourceJSON)
	b.WriteString("\n\nNONDET_REPORT:\n")
	b.WriteString(in.Report)
	if in.PreviousIR != "" {
		b.WriteString("\n\nPREVIOUS_TARGET_IR:\n")
		b.WriteString(in.PreviousIR)
	}
	if len(in.Advisory) > 0 {
		b.WriteString("\n\nCONVERGENCE_CONTROLS:\n")
		b.WriteString(strings.Join(in.Advisory, "\n"))
	}
	return b.String()
}
