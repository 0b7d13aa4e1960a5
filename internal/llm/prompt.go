package llm

import (
	"strings"

	"github.com/bookkeeper-io/bookkeeper/constants"
)

// classifyTextLimit bounds how much document text we send for the cheap
// classification call. Extraction gets the full (already capped) text.
const classifyTextLimit = 8000

func BuildClassifyPrompt(text string) (system, user string) {
	system = strings.Join([]string{
		"You classify financial documents.",
		"Respond with exactly one word: invoice, receipt, or other.",
		"An invoice requests payment and usually names the billed party.",
		"A receipt confirms a completed payment.",
		"Anything that is neither is other.",
	}, " ")

	if len(text) > classifyTextLimit {
		text = text[:classifyTextLimit]
	}
	user = "Document text:\n" + text
	return system, user
}

func BuildExtractPrompt(text string, docType constants.DocumentType) (system, user string) {
	parts := []string{
		"You extract structured data from a financial document. Return ONLY JSON that matches the JSON Schema provided.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"All monetary amounts are plain numbers in major units (e.g. 12.34), without currency symbols.",
		"Currency must be a 3-letter ISO 4217 code.",
		"If a field is not present in the document, omit it. Never output null and never guess.",
	}
	switch docType {
	case constants.Invoice:
		parts = append(parts,
			"The document is an invoice: document_number is the invoice number, from_company the issuer, to_company the billed party, due_date the payment deadline.")
	case constants.Receipt:
		parts = append(parts,
			"The document is a receipt: document_number is the receipt number and from_company the merchant.")
	}
	system = strings.Join(parts, " ")
	user = "Document text:\n" + text
	return system, user
}
