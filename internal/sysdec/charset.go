package sysdec

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// newDecoder returns an xml decoder that understands a leading byte order
// mark and any charset with an IANA name.
func newDecoder(r io.Reader) *xml.Decoder {
	r = transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	d := xml.NewDecoder(r)
	d.CharsetReader = charsetReader
	return d
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	//a UTF-16 document has already been turned into UTF-8 by its BOM
	if strings.HasPrefix(strings.ToLower(label), "utf-16") {
		return input, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q is not supported", label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
