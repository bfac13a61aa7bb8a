package agent

import "google.golang.org/genai"

const instruction = `You read brokerage statements, portfolio exports and screenshots of holdings.
Extract every position held in the document.

For each holding report its ticker (empty for cash), its name, the account it
is held in, its asset type (ETF, Stock, Crypto, Cash, Bond, Fund or Other),
the quantity held and the price per unit in major currency units. Prices
quoted in pence must be converted to pounds. Cash balances are holdings of
type Cash with a price of 1 and the balance as quantity.

Also report the statement date as YYYY-MM-DD and the name of the provider
when the document shows them.

If the document contains no holdings, reply with an "error" explaining why.`

// holdingSchema describes one extracted holding.
var holdingSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"ticker":    {Type: genai.TypeString, Description: "Exchange ticker, empty for cash."},
		"name":      {Type: genai.TypeString},
		"account":   {Type: genai.TypeString, Description: "Account or wrapper, like ISA or SIPP."},
		"assetType": {Type: genai.TypeString, Enum: []string{"ETF", "Stock", "Crypto", "Cash", "Bond", "Fund", "Other"}},
		"section":   {Type: genai.TypeString},
		"theme":     {Type: genai.TypeString},
		"qty":       {Type: genai.TypeNumber},
		"price":     {Type: genai.TypeNumber, Description: "Price per unit in major currency units."},
	},
	Required: []string{"name", "qty", "price"},
}

// extractionSchema is the reply the model must produce.
var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"holdings":      {Type: genai.TypeArray, Items: holdingSchema},
		"statementDate": {Type: genai.TypeString, Description: "Statement date as YYYY-MM-DD."},
		"provider":      {Type: genai.TypeString},
		"error":         {Type: genai.TypeString, Description: "Why no holdings could be extracted."},
	},
}

func generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    extractionSchema,
	}
}
