package chat

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"shopassist/internal/catalog"
	"shopassist/internal/models"
)

const (
	intentQueryData   = "query_data"
	intentClarify     = "clarify"
	intentGeneralChat = "general_chat"
)

// Fixed replies for the degraded paths. The oracle is untrusted; malformed
// output downgrades to these instead of surfacing an error.
const (
	fallbackReply      = "I'm having a bit of trouble understanding your request. Could you please rephrase it?"
	apologyReply       = "I apologize, an unexpected error occurred. Please try again later."
	defaultGreeting    = "Hello! How can I help you today?"
	defaultClarifyText = "Could you please provide more details?"
)

const systemInstruction = `You are an e-commerce customer support chatbot named 'ShopAssist'. Your primary goal is to provide helpful and accurate information to users about products, orders, and inventory from our e-commerce database.

You have access to the following data through internal 'tools' (database queries):
- top_sold_products: To get a list of the top 5 most sold products. No parameters needed.
- order_status (requires 'order_id'): To check the status of a specific order.
- product_stock (requires 'product_name'): To find out how many units of a specific product are in stock.
- product_details (requires 'product_name'): To get general information about a specific product (category, brand, price, department, SKU).

Respond with ONLY a JSON object, no prose and no code fences, shaped as one of:
- {"intent": "query_data", "query_type": "<tool name>", "parameters": {<required parameters>}} when the user asks for a specific piece of information and every required parameter can be extracted from the conversation.
- {"intent": "clarify", "clarification_needed": "<follow-up question>"} when you detect a data intent but a required parameter is missing.
- {"intent": "general_chat", "response": "<friendly reply>"} for general conversation.

Examples:
- "What are the top 5 most sold products?" -> {"intent": "query_data", "query_type": "top_sold_products", "parameters": {}}
- "What is the status of order 12345?" -> {"intent": "query_data", "query_type": "order_status", "parameters": {"order_id": "12345"}}
- "How many Classic T-Shirts are left in stock?" -> {"intent": "query_data", "query_type": "product_stock", "parameters": {"product_name": "Classic T-Shirt"}}
- "Tell me about the Super comfortable jeans" -> {"intent": "query_data", "query_type": "product_details", "parameters": {"product_name": "Super comfortable jeans"}}

Use the conversation history to understand follow-up questions. Always be helpful and direct.`

// decision is the structured action the router demands from the oracle.
type decision struct {
	Intent        string         `json:"intent"`
	QueryType     string         `json:"query_type"`
	Parameters    map[string]any `json:"parameters"`
	Response      string         `json:"response"`
	Clarification string         `json:"clarification_needed"`
}

// routingPrompt converts the conversation (latest user message included)
// into oracle messages headed by the routing instruction.
func routingPrompt(history []models.Message) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, &schema.Message{Role: schema.System, Content: systemInstruction})
	for _, msg := range history {
		role := schema.User
		if msg.Role == models.RoleAssistant {
			role = schema.Assistant
		}
		messages = append(messages, &schema.Message{Role: role, Content: msg.Content})
	}
	return messages
}

// parseDecision reads the oracle's text as a decision. Malformed JSON,
// unknown intents, and missing fields all downgrade to a general-chat
// fallback; this function never fails.
func parseDecision(raw string) decision {
	cleaned := stripCodeFence(raw)
	var d decision
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		log.Printf("WARNING: oracle returned non-JSON decision, falling back: %v", err)
		return decision{Intent: intentGeneralChat, Response: fallbackReply}
	}
	switch d.Intent {
	case intentQueryData, intentClarify, intentGeneralChat:
		return d
	default:
		log.Printf("WARNING: oracle returned unexpected intent %q, falling back", d.Intent)
		return decision{Intent: intentGeneralChat, Response: fallbackReply}
	}
}

// stripCodeFence removes a surrounding markdown fence the oracle sometimes
// wraps its JSON in.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// stringParams coerces the oracle's parameter values (which may arrive as
// JSON numbers or booleans) into the executor's string parameters.
func stringParams(params map[string]any) catalog.Params {
	out := make(catalog.Params, len(params))
	for key, val := range params {
		switch v := val.(type) {
		case string:
			out[key] = v
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(v)
		default:
			if v == nil {
				continue
			}
			data, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out[key] = string(data)
		}
	}
	return out
}
