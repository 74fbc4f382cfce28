package onvif

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/use-go/onvif"
)

// Caller issues a single ONVIF SOAP request and returns the raw response
// envelope. Transport failures come back wrapping ErrUnreachable, a SOAP
// fault comes back as *Fault.
type Caller interface {
	Call(ctx context.Context, request interface{}) ([]byte, error)
}

type deviceCaller struct {
	device *onvif.Device
}

// NewCaller wraps an ONVIF device handle into a Caller.
func NewCaller(device *onvif.Device) Caller {
	return &deviceCaller{device: device}
}

func (d *deviceCaller) Call(ctx context.Context, request interface{}) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := d.device.CallMethod(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}
	if fault := parseFault(body); fault != nil {
		return body, fault
	}
	if resp.StatusCode >= 400 {
		return body, &Fault{Reason: resp.Status}
	}
	return body, nil
}

// parseFault scans the envelope for a SOAP fault, nil when none is present.
// Both SOAP 1.1 (faultstring) and 1.2 (Code/Reason) layouts occur in the
// field, so the two shapes are folded into one.
func parseFault(body []byte) *Fault {
	if !bytes.Contains(body, []byte("Fault")) {
		return nil
	}
	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		token, err := decoder.Token()
		if err != nil {
			return nil
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "Fault" {
			continue
		}
		var envelope struct {
			Code struct {
				Value   string `xml:"Value"`
				Subcode struct {
					Value string `xml:"Value"`
				} `xml:"Subcode"`
			} `xml:"Code"`
			Reason struct {
				Text string `xml:"Text"`
			} `xml:"Reason"`
			FaultCode   string `xml:"faultcode"`
			FaultString string `xml:"faultstring"`
		}
		if err := decoder.DecodeElement(&envelope, &start); err != nil {
			return &Fault{Reason: "unparsable fault envelope"}
		}
		fault := &Fault{
			Code:    envelope.Code.Value,
			Subcode: envelope.Code.Subcode.Value,
			Reason:  envelope.Reason.Text,
		}
		if fault.Code == "" {
			fault.Code = envelope.FaultCode
		}
		if fault.Reason == "" {
			fault.Reason = envelope.FaultString
		}
		return fault
	}
}

// decodeResponse positions an XML decoder at the named response element and
// decodes it into out. Cameras wrap their payload in differently prefixed
// envelopes, so matching happens on the local element name.
func decodeResponse(body []byte, nodeName string, out interface{}) error {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		token, err := decoder.Token()
		if err != nil {
			return errors.New("no " + nodeName + " in response - username and password might be wrong")
		}
		switch et := token.(type) {
		case xml.StartElement:
			if et.Name.Local == nodeName {
				return decoder.DecodeElement(out, &et)
			}
		}
	}
}
