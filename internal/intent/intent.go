// Package intent classifies a user turn into one of a closed set of
// categories by delegating to the generative text service. Dispatch is
// closed-world: an unrecognized label maps to Unknown, never to an error
// surfaced to the end user.
package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theboatbrokers/brokerchat/internal/llm"
)

// Intent is the classified purpose of a user turn.
type Intent int

const (
	Unknown Intent = iota
	Query
	Conversation
	Report
	Brochure
)

// ErrUnclassified is returned when the oracle's label matches no known
// category.
var ErrUnclassified = errors.New("intent: unclassified")

func (i Intent) String() string {
	switch i {
	case Query:
		return "query"
	case Conversation:
		return "conversation"
	case Report:
		return "report"
	case Brochure:
		return "brochure"
	default:
		return "unknown"
	}
}

const promptTemplate = `You are an intelligent assistant for a boat broker website called **THE BOAT BROKERS**.
Your job is to classify the user input into **one of the following categories**:

1. **query** - The user is asking for business-related data, often requiring database queries.
   Examples:
   - "Show me all buyers from last month"
   - "How many leads came from California?"
   - "List vendor emails"

2. **conversation** - The user is engaging in casual or non-technical conversation.
   Examples:
   - "Hi, how are you?"
   - "Can you help me?"
   - "Thanks a lot!"

3. **report** - The user wants to generate or download a report (usually in Excel format).
   Look for words like: generate, download, create, excel, xlsx, report.
   Examples:
   - "Download a report of all vendors"
   - "Generate buyer report in Excel"
   - "Create xlsx file for this month's sales"

4. **brochure** - The user wants a brochure (PDF or summary document) for a vendor or seller.
   Examples:
   - "Generate a brochure for this vendor"
   - "Can you make a seller brochure?"
   - "I need a brochure for boat 123"

Classify the following input into one of these four categories and return only the label:

User Input: ` + "`%s`" + `
`

// Prompt builds the fixed classification instruction for a user turn.
func Prompt(userText string) string {
	return fmt.Sprintf(promptTemplate, userText)
}

// Parse maps a raw oracle label onto the closed category set.
func Parse(label string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "query":
		return Query, nil
	case "conversation":
		return Conversation, nil
	case "report":
		return Report, nil
	case "brochure":
		return Brochure, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnclassified, label)
	}
}

// Classify asks the oracle to label the user turn. Oracle transport errors
// are returned as-is; an unknown label yields (Unknown, ErrUnclassified).
func Classify(ctx context.Context, oracle llm.Client, userText string) (Intent, error) {
	label, err := oracle.Generate(ctx, Prompt(userText))
	if err != nil {
		return Unknown, err
	}
	return Parse(label)
}
