package chat

import (
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"shopassist/internal/catalog"
)

const synthesisInstruction = `Based on this data, formulate a helpful, concise, and friendly answer for the user.
Do not include technical details of the query or internal field names. If the data is insufficient to fully answer, state that politely.
If the data lists other matching products under "other_matches", briefly mention them so the user can disambiguate.

Examples:
- Products: "The top 5 most sold products are: Running Shoes, Classic T-Shirt, etc."
- Order Status: "Order 12345 is currently in Shipped status. It was created on 2021-01-10."
- Product Stock: "There are 12 units of Classic T-Shirt left in stock."
- Product Details: "The Classic T-Shirt is an Allegra K brand product in the Tops & Tees category, priced at $19.99."`

// synthesisPrompt asks the oracle to turn a successful query result into a
// natural-language answer.
func synthesisPrompt(queryType catalog.QueryType, result catalog.Result) []*schema.Message {
	payload, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		payload = []byte("{}")
	}
	content := fmt.Sprintf("The user asked about '%s'.\nHere is the data retrieved from the database:\n%s\n\n%s",
		queryType, payload, synthesisInstruction)
	return []*schema.Message{{Role: schema.User, Content: content}}
}
