// Package sqlgen builds the natural-language-to-SQL generation prompt,
// extracts the statement from the oracle's reply, and gates what is
// allowed to execute.
package sqlgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/theboatbrokers/brokerchat/internal/timephrase"
)

// forbiddenKeywords is a coarse substring denylist, not a parser. It can
// be fooled by obfuscated keywords and fires on keywords inside string
// literals or identifiers; that trade-off is the documented contract of
// this gate. Layer a real statement-kind parser behind IsSafe if stronger
// guarantees are needed.
var forbiddenKeywords = []string{"delete", "drop", "truncate", "update", "alter"}

// IsSafe reports whether the statement clears the mutating-keyword
// denylist. Matching is case-insensitive.
func IsSafe(stmt string) bool {
	lowered := strings.ToLower(stmt)
	for _, kw := range forbiddenKeywords {
		if strings.Contains(lowered, kw) {
			return false
		}
	}
	return true
}

var fenceRe = regexp.MustCompile("(?s)```sql\n(.*?)\n```")

// Extract pulls the statement out of a ```sql fenced block in the raw
// oracle reply. An absent fence yields the empty string.
func Extract(raw string) string {
	m := fenceRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// BuildPrompt assembles the synthesis instruction. The domain synonym
// rules (vendor means seller, sales live in the deals table, status value
// spellings) are baked into the text and must be kept in sync with the
// live data model by hand; they are not discovered dynamically.
func BuildPrompt(userText, schema, history string, tr *timephrase.Range) string {
	timeInfo := ""
	if tr != nil {
		timeInfo = fmt.Sprintf(`
NOTE:
Based on user's input, the following time context was detected:
Start Date: %s
End Date: %s

If dates are relevant, use them in your WHERE clause.
`, tr.StartDate(), tr.EndDate())
	}

	return fmt.Sprintf(`You are a helpful AI assistant for a Boat Brokers website.

Your job is to convert the given user input into a valid, error-free SQL query based on the database schema provided.
You have previous messages history as CONVERSATION HISTORY, use that for the context of conversation. Maintain context throughout the whole conversation (first read CONVERSATION HISTORY then USER INPUT and SCHEMA).

IMPORTANT NOTE:
- vendors or vendor are written 'seller' in database. So, when user asks for vendor make sure you replace vendor with seller
- Data is mainly in the 'leads' table, all the buyers, sellers/vendors are present there, separated by column 'type' (buyer/seller).
- Sales Data is in 'deals' table (if you can't find sales data in 'deals' then you can check 'leads' table)
- 'deals' table has a column 'status' where contract received is referred as 'contract_received' and cancelled is referred as 'canceled'

CONVERSATION HISTORY:
%s

USER INPUT:
%s
%s
DATABASE SCHEMA:
%s

Important:
- Use only the table and column names from the given schema.
- Write clean and syntactically correct SQL.
- Return only the SQL query inside a fenced code block tagged sql, like:
`+"```sql\nSELECT ...\n```"+`
- Don't include any explanation or comments with the SQL.
`, history, userText, timeInfo, schema)
}

// SummaryPrompt asks the oracle to turn raw rows into a natural-language
// answer. The underlying query text is deliberately not included so it
// cannot be echoed back to the end user.
func SummaryPrompt(userText string, rows []map[string]any, history string) string {
	return fmt.Sprintf(`You are an intelligent AI assistant for the admin of a Boat Brokers website named THE BOAT BROKERS.
You have been provided with user input and its result from the website database.
Your job is to convert this raw result into a human friendly, natural language answer.
Be polite, kind, talk like humans do and always answer intelligently.
Never mention SQL or show any query text to the user.
You have previous messages history as HISTORY, use that for the context of conversation.

USER_INPUT:
%s

RESPONSE/RESULT:
%v

HISTORY:
%s
`, userText, rows, history)
}
