package wsdiscovery

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/clbanning/mxj"
	"github.com/golang/glog"
)

const (
	// mxj drops namespace prefixes, so XAddrs matches by local name in any
	// namespace, the default one included.
	xaddrsKey  = "XAddrs"
	textKey    = "#text"
	attrPrefix = "-"
)

// ExtractEndpoints returns every endpoint advertised in the XAddrs elements
// of a SOAP response body, in no particular order. Duplicates are kept.
func ExtractEndpoints(payload []byte) ([]string, error) {
	glog.V(3).Infof("Discover response: %s", string(payload))

	if err := validateEnvelope(payload); err != nil {
		return nil, err
	}

	mapXML, err := mxj.NewMapXml(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	body, err := mapXML.ValueForPath("Envelope.Body")
	if err != nil || body == nil {
		return nil, ErrNotSOAP
	}

	return collectXAddrs(body), nil
}

// validateEnvelope checks that payload is one well-formed SOAP 1.2 envelope
// with a Body child. Only whitespace, comments and processing instructions
// may surround the envelope.
func validateEnvelope(payload []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	depth := 0
	closed := false
	hasBody := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if closed {
				return fmt.Errorf("%w: element <%s> after envelope", ErrParse, t.Name.Local)
			}
			if depth == 0 && (t.Name.Space != nsSOAP || t.Name.Local != "Envelope") {
				return fmt.Errorf("%w: root is {%s}%s", ErrNotSOAP, t.Name.Space, t.Name.Local)
			}
			if depth == 1 && t.Name.Space == nsSOAP && t.Name.Local == "Body" {
				hasBody = true
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				closed = true
			}
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("%w: text outside envelope", ErrParse)
			}
		}
	}

	if !closed {
		return fmt.Errorf("%w: no envelope", ErrParse)
	}
	if !hasBody {
		return fmt.Errorf("%w: envelope has no body", ErrNotSOAP)
	}
	return nil
}

// collectXAddrs walks the decoded body with an explicit stack so that deeply
// nested payloads cannot exhaust the goroutine stack.
func collectXAddrs(root interface{}) []string {
	var endpoints []string
	stack := []interface{}{root}

	for len(stack) > 0 {
		last := len(stack) - 1
		node := stack[last]
		stack = stack[:last]

		switch v := node.(type) {
		case mxj.Map:
			stack = append(stack, map[string]interface{}(v))
		case map[string]interface{}:
			for key, child := range v {
				if key == textKey || strings.HasPrefix(key, attrPrefix) {
					continue
				}
				if key == xaddrsKey {
					for _, text := range elementText(child) {
						endpoints = append(endpoints, strings.Fields(text)...)
					}
					continue
				}
				stack = append(stack, child)
			}
		case []interface{}:
			stack = append(stack, v...)
		}
	}

	return endpoints
}

// elementText returns the character data of one or more decoded elements
func elementText(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case map[string]interface{}:
		if text, ok := v[textKey].(string); ok {
			return []string{text}
		}
	case []interface{}:
		var texts []string
		for _, item := range v {
			texts = append(texts, elementText(item)...)
		}
		return texts
	}
	return nil
}
