package gateway

import (
	"encoding/xml"
	"fmt"
)

// twimlResponse is the messaging response document the channel provider
// expects from the webhook.
type twimlResponse struct {
	XMLName  xml.Name       `xml:"Response"`
	Messages []twimlMessage `xml:"Message"`
}

type twimlMessage struct {
	Body  string `xml:"Body,omitempty"`
	Media string `xml:"Media,omitempty"`
}

// renderTwiML serializes a one-message response, optionally with a media
// attachment.
func renderTwiML(body, mediaURL string) ([]byte, error) {
	doc := twimlResponse{Messages: []twimlMessage{{Body: body, Media: mediaURL}}}
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal twiml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
