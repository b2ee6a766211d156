package services

import "fmt"

// The prompt texts below are part of the service's external behavior: tests
// and the frontend both rely on the exact sentinel and apology strings.

// NoContextSentinel is returned by BuildContext when retrieval found nothing.
const NoContextSentinel = "No relevant context found."

// ApologyMessage is the degraded chat response used when the RAG pipeline
// fails internally.
const ApologyMessage = "I apologize, but I'm having trouble accessing my knowledge base right now. Please try again."

// FallbackSystemPrompt is the plain, context-free system prompt used by the
// non-RAG completion path.
const FallbackSystemPrompt = "You are a helpful assistant for a software developer's portfolio website."

const systemPromptTemplate = `You are a helpful assistant for a software developer's portfolio website. 
You have access to relevant context from the developer's knowledge base.

Use the following context to answer the user's question. If the context doesn't contain 
relevant information, you can still provide a helpful response based on your general knowledge,
but mention that you don't have specific information from the developer's materials.

Context:
%s

Instructions:
- Provide accurate, helpful responses
- Reference the context when relevant
- Be conversational and engaging
- If asked about the developer's work, projects, or experience, use the provided context
- Keep responses concise but informative`

// BuildSystemPrompt embeds the retrieved context block into the instructional
// system prompt.
func BuildSystemPrompt(context string) string {
	return fmt.Sprintf(systemPromptTemplate, context)
}
