package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// ExoML is Exotel's call-flow markup. This is a minimal builder for the
// one document this system serves: bridging an answered call into the
// voice-AI session's media stream. It intentionally avoids any provider
// SDK dependency.

type exomlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type exomlConnect struct {
	XMLName xml.Name    `xml:"Connect"`
	Stream  exomlStream `xml:"Stream"`
}

type exomlStream struct {
	URL        string           `xml:"url,attr"`
	Parameters []exomlParameter `xml:"Parameter"`
}

type exomlParameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// RenderBridge returns the ExoML that connects the call to the voice-AI
// session identified by joinURL.
func RenderBridge(joinURL string) (string, error) {
	if strings.TrimSpace(joinURL) == "" {
		return "", errors.New("telephony: joinUrl required for bridge")
	}

	r := exomlResponse{
		Verbs: []any{exomlConnect{
			Stream: exomlStream{
				URL: joinURL,
				// Exotel's Stream examples always carry a Parameter element;
				// the values are opaque to the media server.
				Parameters: []exomlParameter{{Name: "a", Value: "b"}},
			},
		}},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
