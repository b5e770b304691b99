package wsdiscovery

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	probeAction = "http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe"
	probeTo     = "urn:schemas-xmlsoap-org:ws:2005:04:discovery"

	nsSOAP       = "http://www.w3.org/2003/05/soap-envelope"
	nsAddressing = "http://schemas.xmlsoap.org/ws/2004/08/addressing"
	nsDiscovery  = "http://schemas.xmlsoap.org/ws/2005/04/discovery"
)

const probeTemplate = `<soap:Envelope xmlns:soap="` + nsSOAP + `" xmlns:wsa="` + nsAddressing + `" xmlns:tns="` + nsDiscovery + `">` +
	`<soap:Header>` +
	`<wsa:Action>` + probeAction + `</wsa:Action>` +
	`<wsa:MessageID>%s</wsa:MessageID>` +
	`<wsa:To>` + probeTo + `</wsa:To>` +
	`</soap:Header>` +
	`<soap:Body><tns:Probe/></soap:Body>` +
	`</soap:Envelope>`

// Probe is one WS-Discovery Probe message
type Probe struct {
	MessageID string
}

// NewProbe creates a probe with a fresh random message id
func NewProbe() Probe {
	return Probe{MessageID: "urn:uuid:" + uuid.New().String()}
}

// Bytes serializes the probe envelope
func (p Probe) Bytes() []byte {
	return []byte(fmt.Sprintf(probeTemplate, p.MessageID))
}
