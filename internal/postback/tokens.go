package postback

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ASP.NET WebForms protocol field names. These are fixed by the framework,
// not by the target site, so they live here rather than in the page schema.
const (
	// FieldViewState carries the serialized server-side control state.
	// On the target site this runs to hundreds of kilobytes per page.
	FieldViewState = "__VIEWSTATE"

	// FieldViewStateGenerator identifies which page generated the view
	// state.
	FieldViewStateGenerator = "__VIEWSTATEGENERATOR"

	// FieldEventValidation is the anti-forgery digest the server checks
	// against the echoed form fields.
	FieldEventValidation = "__EVENTVALIDATION"

	// FieldEventTarget names the server-side control a postback invokes.
	// Setting it selects the action (next page, detail link) the way
	// clicking the control would.
	FieldEventTarget = "__EVENTTARGET"
)

// RequiredFields are the anti-forgery fields every postback must echo.
// A page missing any of them cannot be postbacked to at all.
var RequiredFields = []string{
	FieldViewState,
	FieldViewStateGenerator,
	FieldEventValidation,
}

// ExtractTokens returns the three anti-forgery fields from a page.
// It returns a ProtocolError naming the first missing field; a page missing
// one of them either is not the expected form or was served to an invalid
// session.
func ExtractTokens(doc *goquery.Document) (url.Values, error) {
	tokens := make(url.Values, len(RequiredFields))
	for _, field := range RequiredFields {
		sel := doc.Find(fmt.Sprintf("input[name='%s']", field))
		if sel.Length() == 0 {
			return nil, &ProtocolError{Field: field}
		}
		tokens.Set(field, sel.First().AttrOr("value", ""))
	}
	return tokens, nil
}

// BuildPayload builds the form body for the next postback from the page
// that preceded it. It validates the anti-forgery fields first (a missing
// field returns a ProtocolError and no payload, never a partial one), then
// collects every named hidden input verbatim (the server's event validation
// covers all of them, not just the three tokens), and finally merges extra
// on top, with the caller's values winning.
func BuildPayload(doc *goquery.Document, extra map[string]string) (url.Values, error) {
	if _, err := ExtractTokens(doc); err != nil {
		return nil, err
	}

	payload := url.Values{}
	doc.Find("input[type='hidden']").Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("name")
		if !ok || name == "" {
			return
		}
		payload.Set(name, sel.AttrOr("value", ""))
	})

	for key, value := range extra {
		payload.Set(key, value)
	}

	return payload, nil
}

// ParseEventTarget extracts the control name from a __doPostBack href such
// as
//
//	javascript:__doPostBack('ctl00$MainContent$gvResults$ctl02$lnkName','')
//
// The name is the first single-quoted argument. It reports false when the
// href does not carry one, which happens on links the framework wires up
// some other way.
func ParseEventTarget(href string) (string, bool) {
	parts := strings.Split(href, "'")
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}
