package models

// FulfillmentResponse is the conversational-agent webhook reply:
//
//	{"fulfillment_response":{"messages":[{"text":{"text":["..."]}}]}}
type FulfillmentResponse struct {
	FulfillmentResponse FulfillmentMessages `json:"fulfillment_response"`
}

type FulfillmentMessages struct {
	Messages []ResponseMessage `json:"messages"`
}

type ResponseMessage struct {
	Text MessageText `json:"text"`
}

type MessageText struct {
	Text []string `json:"text"`
}

// NewFulfillmentResponse builds a reply carrying a single text message.
// Every call returns an independent value; nothing is shared between requests.
func NewFulfillmentResponse(text string) *FulfillmentResponse {
	return &FulfillmentResponse{
		FulfillmentResponse: FulfillmentMessages{
			Messages: []ResponseMessage{
				{Text: MessageText{Text: []string{text}}},
			},
		},
	}
}

// FirstText returns the text of the first message, or "" when there is none.
func (r *FulfillmentResponse) FirstText() string {
	if r == nil || len(r.FulfillmentResponse.Messages) == 0 {
		return ""
	}
	texts := r.FulfillmentResponse.Messages[0].Text.Text
	if len(texts) == 0 {
		return ""
	}
	return texts[0]
}
