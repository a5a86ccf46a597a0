// Package header reads and writes the OFX header that precedes the tag tree.
//
// Version 1 headers are nine KEY:VALUE lines ahead of an SGML body.
// Version 2 headers are an XML declaration followed by an <?OFX ...?>
// processing instruction ahead of an XML body.
package header

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/zjrosen/ofxkit/internal/element"
	"github.com/zjrosen/ofxkit/internal/log"
)

// ErrMalformed is returned when the header does not match either layout.
var ErrMalformed = errors.New("ofx header is malformed")

// None is the placeholder value of unset header fields.
const None = "NONE"

var (
	v1Versions = []string{"102", "103", "151", "160"}
	v2Versions = []string{"200", "201", "202", "203", "210", "211", "220"}

	securityEl    = element.OneOf([]string{"NONE", "TYPE1"})
	encodingEl    = element.OneOf([]string{"USASCII", "UNICODE", "UTF-8"})
	charsetEl     = element.OneOf([]string{"ISO-8859-1", "1252", "NONE"})
	compressionEl = element.OneOf([]string{"NONE"})
	uidEl         = element.Text(36, element.Strict())
	v1VersionEl   = element.OneOf(v1Versions)
	v2VersionEl   = element.OneOf(v2Versions)

	v1Keys = []string{
		"OFXHEADER", "DATA", "VERSION", "SECURITY", "ENCODING",
		"CHARSET", "COMPRESSION", "OLDFILEUID", "NEWFILEUID",
	}

	xmlDeclRe = regexp.MustCompile(`^<\?xml\s[^?]*\?>`)
	ofxPIRe   = regexp.MustCompile(`^<\?OFX\s+([^?]*)\?>`)
	attrRe    = regexp.MustCompile(`([A-Z]+)="([^"]*)"`)
)

// Header holds the fields of either header version.
type Header struct {
	Version     int
	Security    string
	Encoding    string // v1 only
	Charset     string // v1 only
	Compression string // v1 only
	OldFileUID  string
	NewFileUID  string
}

// NewV1 returns a version 1 header with default field values.
func NewV1(version int) Header {
	return Header{
		Version:     version,
		Security:    None,
		Encoding:    "USASCII",
		Charset:     "1252",
		Compression: None,
		OldFileUID:  None,
		NewFileUID:  None,
	}
}

// NewV2 returns a version 2 header with default field values.
func NewV2(version int) Header {
	return Header{
		Version:    version,
		Security:   None,
		OldFileUID: None,
		NewFileUID: None,
	}
}

// NewFileUID returns a fresh unique file identifier.
func NewFileUID() string {
	return strings.ToUpper(uuid.NewString())
}

// IsXML reports whether the header announces an XML (version 2) body.
func (h Header) IsXML() bool {
	return h.Version >= 200
}

type fieldCheck struct {
	name  string
	el    element.Element
	value string
}

// Validate checks every field against the legal values for its version.
func (h Header) Validate() error {
	checks := []fieldCheck{
		{"SECURITY", securityEl, h.Security},
		{"OLDFILEUID", uidEl, h.OldFileUID},
		{"NEWFILEUID", uidEl, h.NewFileUID},
	}
	if h.IsXML() {
		checks = append(checks, fieldCheck{"VERSION", v2VersionEl, strconv.Itoa(h.Version)})
	} else {
		checks = append(checks,
			fieldCheck{"VERSION", v1VersionEl, strconv.Itoa(h.Version)},
			fieldCheck{"ENCODING", encodingEl, h.Encoding},
			fieldCheck{"CHARSET", charsetEl, h.Charset},
			fieldCheck{"COMPRESSION", compressionEl, h.Compression},
		)
	}
	for _, c := range checks {
		if c.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrMalformed, c.name)
		}
		if _, err := c.el.Parse(c.value, nil); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMalformed, c.name, err)
		}
	}
	return nil
}

// String renders the header, including the blank line that separates a
// version 1 header from its body.
func (h Header) String() string {
	if h.IsXML() {
		return fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"no\"?>\r\n"+
			"<?OFX OFXHEADER=\"200\" VERSION=\"%d\" SECURITY=\"%s\" OLDFILEUID=\"%s\" NEWFILEUID=\"%s\"?>\r\n",
			h.Version, h.Security, h.OldFileUID, h.NewFileUID)
	}
	values := []string{
		"100", "OFXSGML", strconv.Itoa(h.Version), h.Security, h.Encoding,
		h.Charset, h.Compression, h.OldFileUID, h.NewFileUID,
	}
	var b strings.Builder
	for i, k := range v1Keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(values[i])
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return b.String()
}

// Parse reads the header at the start of data and returns it together with
// the remaining body.
func Parse(data string) (Header, string, error) {
	rest := strings.TrimLeft(strings.TrimPrefix(data, "\ufeff"), " \t\r\n")

	if m := xmlDeclRe.FindString(rest); m != "" {
		return parseV2(strings.TrimLeft(rest[len(m):], " \t\r\n"))
	}
	return parseV1(rest)
}

func parseV1(rest string) (Header, string, error) {
	fields := make(map[string]string, len(v1Keys))
	for _, key := range v1Keys {
		line, tail, _ := strings.Cut(rest, "\n")
		k, v, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || k != key {
			return Header{}, "", fmt.Errorf("%w: expected %s, got %q", ErrMalformed, key, strings.TrimSpace(line))
		}
		fields[k] = strings.TrimSpace(v)
		rest = tail
	}
	if fields["OFXHEADER"] != "100" {
		return Header{}, "", fmt.Errorf("%w: OFXHEADER must be 100, got %q", ErrMalformed, fields["OFXHEADER"])
	}
	if fields["DATA"] != "OFXSGML" {
		return Header{}, "", fmt.Errorf("%w: DATA must be OFXSGML, got %q", ErrMalformed, fields["DATA"])
	}
	version, err := strconv.Atoi(fields["VERSION"])
	if err != nil {
		return Header{}, "", fmt.Errorf("%w: VERSION %q", ErrMalformed, fields["VERSION"])
	}
	h := Header{
		Version:     version,
		Security:    fields["SECURITY"],
		Encoding:    fields["ENCODING"],
		Charset:     fields["CHARSET"],
		Compression: fields["COMPRESSION"],
		OldFileUID:  fields["OLDFILEUID"],
		NewFileUID:  fields["NEWFILEUID"],
	}
	if h.IsXML() {
		return Header{}, "", fmt.Errorf("%w: version %d in an SGML header", ErrMalformed, version)
	}
	if err := h.Validate(); err != nil {
		return Header{}, "", err
	}
	log.Debug(log.CatHeader, "parsed v1 header", "version", version)
	return h, strings.TrimLeft(rest, " \t\r\n"), nil
}

func parseV2(rest string) (Header, string, error) {
	m := ofxPIRe.FindStringSubmatch(rest)
	if m == nil {
		return Header{}, "", fmt.Errorf("%w: missing <?OFX ...?> declaration", ErrMalformed)
	}
	attrs := make(map[string]string)
	for _, a := range attrRe.FindAllStringSubmatch(m[1], -1) {
		attrs[a[1]] = a[2]
	}
	if attrs["OFXHEADER"] != "200" {
		return Header{}, "", fmt.Errorf("%w: OFXHEADER must be 200, got %q", ErrMalformed, attrs["OFXHEADER"])
	}
	version, err := strconv.Atoi(attrs["VERSION"])
	if err != nil {
		return Header{}, "", fmt.Errorf("%w: VERSION %q", ErrMalformed, attrs["VERSION"])
	}
	h := Header{
		Version:    version,
		Security:   attrs["SECURITY"],
		OldFileUID: attrs["OLDFILEUID"],
		NewFileUID: attrs["NEWFILEUID"],
	}
	if !h.IsXML() {
		return Header{}, "", fmt.Errorf("%w: version %d in an XML header", ErrMalformed, version)
	}
	if err := h.Validate(); err != nil {
		return Header{}, "", err
	}
	log.Debug(log.CatHeader, "parsed v2 header", "version", version)
	return h, strings.TrimLeft(rest[len(m[0]):], " \t\r\n"), nil
}
