package chat

import (
	"fmt"
	"strings"
)

// answerPromptFormat is the instruction block sent for every turn. The four
// tagged segments (chat history, context, question, answer cue) must stay in
// this order; the model was prompted against exactly this shape.
const answerPromptFormat = `You are an expert chat assistant that extracts information from the CONTEXT provided
between <context> and </context> tags.
You offer a chat experience considering the information included in the CHAT HISTORY
provided between <chat_history> and </chat_history> tags.
When answering the question contained between <question> and </question> tags,
be concise and do not hallucinate.
If you don't have the information just say so.

Do not mention the CONTEXT used in your answer.
Do not mention the CHAT HISTORY used in your answer.

<chat_history>
%s
</chat_history>
<context>
%s
</context>
<question>
%s
</question>
Answer:`

// rewritePromptFormat asks the model to fold the chat history into the
// question, producing a single standalone retrieval query.
const rewritePromptFormat = `Based on the chat history below and the question, generate a query that extends the question
with the chat history provided. The query should be in natural language.
Answer with only the query. Do not add any explanation.

<chat_history>
%s
</chat_history>
<question>
%s
</question>`

// BuildPrompt assembles the final instruction block from the chat history
// segment, the retrieved context, and the current question. Pure function;
// empty segments are embedded as-is.
func BuildPrompt(history, context, question string) string {
	return fmt.Sprintf(answerPromptFormat, history, context, question)
}

// buildRewritePrompt assembles the standalone-query instruction from prior
// turn contents and the new question.
func buildRewritePrompt(history []string, question string) string {
	return fmt.Sprintf(rewritePromptFormat, strings.Join(history, " "), question)
}
