package ai

import "fmt"

// refinePrompt wraps text for the style pass. The contract: same meaning,
// fixed language and tone, nothing added, nothing removed, text only.
func refinePrompt(text string) string {
	return fmt.Sprintf(`You are a Style Agent. You receive text and refine its wording.

Rules:
1. Always return the output in Hebrew only.
2. Rewrite the text in a clear, friendly, and user-oriented tone.
3. Do not change the meaning of the original message.
4. Do not add any new information.
5. Do not remove any important information.
6. Maintain a polite, professional, and helpful tone.
7. You do not make decisions, you do not execute logic, and you do not call functions. Your responsibility is only to refine the wording.
8. Always return only the rewritten text, with no explanations or additional commentary.

TEXT:
%s

REWRITTEN TEXT:`, text)
}

// interpretPrompt asks the model to classify one utterance into an Intent
// JSON object. The current mode is included so follow-up turns ("the subject
// is X") resolve against the in-progress workflow.
func interpretPrompt(utterance, mode string) string {
	return fmt.Sprintf(`You are the intent parser of an email assistant. Classify the user's message into exactly one JSON object and return only that JSON.

Schema:
{
  "action": "search" | "read_details" | "read_body" | "delete" | "compose" | "confirm" | "cancel" | "other",
  "query": "free-text search query, for search",
  "label": "ALL" | "INBOX" | "SENT" | "DRAFT" | "SPAM" | "TRASH",
  "max_results": number of results the user asked for, omit if unspecified,
  "next_page": true only when the user asks for the next page of the previous search,
  "message_id": "message id, for read_details / read_body / delete",
  "recipient": "recipient email address, ONLY if present in the message",
  "subject": "email subject, ONLY if present in the message",
  "body": "email body text, ONLY if present in the message"
}

Rules:
- "compose" when the user wants to write or send an email, or supplies draft fields (recipient, subject, body) while one is in progress.
- "confirm" only for an explicit affirmative answer to a pending confirmation question.
- "cancel" for stopping or abandoning the current task.
- Include recipient/subject/body keys only for information explicitly present in the message. Never invent values.
- Return the JSON object only, no commentary.

Current workflow mode: %s
User message: %s

JSON:`, mode, utterance)
}

// digestPrompt renders a batch of emails as reader-friendly prose for the
// scheduled digest.
func digestPrompt(emailsText string) string {
	return fmt.Sprintf(`You receive a list of email messages. For each message:
- Display the subject at the top.
- Include the sender's name.
- Show the date in a readable format, e.g., 16 November 2025.
- Indicate if there are attachments: "Yes" or "No".
- Include a short snippet summarizing the message content.
Arrange all messages in a clean list, one after the other, uniform in style. Do not show internal fields like msg_id or label. Always write sender, subject, content and date in Hebrew only. Return only the formatted text.

EMAILS:
%s

FORMATTED TEXT:`, emailsText)
}
