package intent

import "fmt"

const intentPromptTemplate = `You are an expert appointment booking assistant analyzing user messages. Return ONLY valid JSON.

CONVERSATION CONTEXT:
- Current state: %s
- Conversation history: %s
- Available service centers: %s
- Available time slots: %s

USER MESSAGE: %s

TASK: Analyze the user's message to understand their intent and extract relevant information.

Consider the entire conversation context when analyzing this message. Users often refer to previous information or use implicit references.

Determine the intent from these options:
- 'booking': User wants to book a service appointment
- 'greeting': User is greeting or starting conversation
- 'location': User is providing or asking about location information
- 'center_selection': User is selecting or asking about a service center
- 'time_selection': User is selecting or asking about a time slot
- 'confirmation': User is confirming or declining something
- 'other': None of the above

Extract any mentioned:
- City/location: Look for direct mentions or contextual references to cities
- Time preferences: Look for specific times, relative times (morning/afternoon/earliest), dates, or general preferences
- Service center preferences: Look for specific centers or descriptive references (downtown, north, etc.)

Return ONLY this JSON format (no other text):
{
    "intent": "<intent>",
    "city": "<city_or_null>",
    "time_preference": "<time_or_null>",
    "center_preference": "<center_or_null>",
    "confidence": <number_between_0_and_1>,
    "reasoning": "<brief_explanation_of_your_analysis>"
}`

const responsePromptTemplate = `You are a helpful appointment booking assistant for Lucid Motors.

CURRENT CONTEXT:
- Conversation state: %s
- User's intent: %s
- Available service centers: %s
- Available time slots: %s
- Conversation history: %s

USER MESSAGE: %s

TASK: Generate a natural, helpful response that:
1. Directly addresses the user's intent and message
2. Maintains conversation context and flow
3. Guides the user through the appointment booking process
4. Handles ambiguity by asking clarifying questions
5. Confirms important details before finalizing

Your response should be conversational but concise. If the user's intent is unclear, ask for clarification.
If they've provided all necessary information for a step, move to the next step.`

// IntentPrompt renders the intent-extraction prompt.
func IntentPrompt(message, contextSummary, historySummary, centers, slots string) string {
	return fmt.Sprintf(intentPromptTemplate, contextSummary, historySummary, centers, slots, message)
}

// ResponsePrompt renders the response-generation prompt.
func ResponsePrompt(userMessage, intentSummary, contextSummary, historySummary, centers, slots string) string {
	return fmt.Sprintf(responsePromptTemplate, contextSummary, intentSummary, centers, slots, historySummary, userMessage)
}
