package investigator

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/soyeahso/alarmhound/internal/domain"
)

// DefaultTask is the instruction that opens every investigation.
const DefaultTask = "Please investigate this alarm and provide a root cause analysis."

// Brief is the immutable input to one investigation run.
type Brief struct {
	ID           string
	AlarmName    string
	Task         string
	SystemPrompt string
}

// NewBrief builds the brief for an alarm. An empty task uses DefaultTask.
func NewBrief(alarm domain.Alarm, task string) Brief {
	if task == "" {
		task = DefaultTask
	}
	return Brief{
		ID:           uuid.NewString(),
		AlarmName:    alarm.Name,
		Task:         task,
		SystemPrompt: BuildSystemPrompt(alarm),
	}
}

// BuildSystemPrompt renders the alarm into the instructions given to the
// reasoning service. It is the model's only source of alarm context.
func BuildSystemPrompt(a domain.Alarm) string {
	var b strings.Builder

	b.WriteString("You are an AWS infrastructure expert investigating a CloudWatch alarm.\n\n")

	b.WriteString("## Alarm Details\n")
	fmt.Fprintf(&b, "- **Alarm Name:** %s\n", a.Name)
	fmt.Fprintf(&b, "- **State:** %s\n", a.State)
	fmt.Fprintf(&b, "- **Previous State:** %s\n", a.PreviousState)
	fmt.Fprintf(&b, "- **Reason:** %s\n", a.Reason)
	fmt.Fprintf(&b, "- **Namespace:** %s\n", orNA(a.Namespace))
	fmt.Fprintf(&b, "- **Metric:** %s\n", orNA(a.MetricName))
	fmt.Fprintf(&b, "- **Dimensions:** %s\n", domain.FormatDimensions(a.Dimensions))
	fmt.Fprintf(&b, "- **Account:** %s\n", a.AccountID)
	fmt.Fprintf(&b, "- **Region:** %s\n", a.Region)

	b.WriteString("\n## Your Task\n")
	b.WriteString("1. Use the available tools to gather information about the affected resources\n")
	b.WriteString("2. Analyze metrics, configurations, and related resources\n")
	b.WriteString("3. Identify the root cause of the alarm\n")
	b.WriteString("4. Provide a clear, actionable report\n")

	b.WriteString("\n## Output Format\n")
	b.WriteString("Provide your analysis as a structured report with:\n")
	b.WriteString("- **Summary:** One-sentence description of the issue\n")
	b.WriteString("- **Root Cause:** What caused the alarm to trigger\n")
	b.WriteString("- **Evidence:** Data points that support your conclusion\n")
	b.WriteString("- **Recommendations:** Suggested actions to resolve or prevent the issue\n")
	b.WriteString("\nBe concise but thorough. Focus on actionable insights.")

	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
