package htmldoc

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Form is a <form> that declares an action attribute.
type Form struct {
	Action string
}

// Document is the set of DOM queries the feature computer needs. Every
// implementation returns a defined empty result when there is nothing to
// report, so callers never branch on whether a page was fetched.
type Document interface {
	Title() string
	HasFavicon() bool
	IsResponsive() bool
	HasDescription() bool
	HasSubmitButton() bool
	Forms() []Form
	Anchors() []string
	IFrames() int
	Images() int
	Stylesheets() int
	Scripts() int
	HiddenInputs() int
	PasswordInputs() int
}

// Parse builds a Document from raw markup. Malformed HTML still yields a
// best-effort tree; if the parser gives up entirely the empty document is
// returned.
func Parse(body string) Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Empty()
	}
	return &htmlDocument{doc: doc}
}

type htmlDocument struct {
	doc *goquery.Document
}

func (d *htmlDocument) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

func (d *htmlDocument) HasFavicon() bool {
	return d.linkWithRel("icon") > 0
}

func (d *htmlDocument) IsResponsive() bool {
	if d.metaNamed("viewport") {
		return true
	}
	found := false
	d.doc.Find("link[href], script[src]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		ref := s.AttrOr("href", s.AttrOr("src", ""))
		found = strings.Contains(ref, "responsive")
		return !found
	})
	return found
}

func (d *htmlDocument) HasDescription() bool {
	return d.metaNamed("description")
}

func (d *htmlDocument) HasSubmitButton() bool {
	return d.countTyped("button", "submit") > 0 || d.countTyped("input", "submit") > 0
}

func (d *htmlDocument) Forms() []Form {
	var forms []Form
	d.doc.Find("form[action]").Each(func(i int, s *goquery.Selection) {
		action, _ := s.Attr("action")
		forms = append(forms, Form{Action: action})
	})
	return forms
}

func (d *htmlDocument) Anchors() []string {
	var hrefs []string
	d.doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	return hrefs
}

func (d *htmlDocument) IFrames() int        { return d.doc.Find("iframe").Length() }
func (d *htmlDocument) Images() int         { return d.doc.Find("img").Length() }
func (d *htmlDocument) Stylesheets() int    { return d.linkWithRel("stylesheet") }
func (d *htmlDocument) Scripts() int        { return d.doc.Find("script").Length() }
func (d *htmlDocument) HiddenInputs() int   { return d.countTyped("input", "hidden") }
func (d *htmlDocument) PasswordInputs() int { return d.countTyped("input", "password") }

// linkWithRel counts <link> elements whose rel token list contains token.
// rel is a space separated, case-insensitive list ("shortcut icon").
func (d *htmlDocument) linkWithRel(token string) int {
	n := 0
	d.doc.Find("link[rel]").Each(func(i int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		for _, r := range strings.Fields(rel) {
			if strings.EqualFold(r, token) {
				n++
				return
			}
		}
	})
	return n
}

func (d *htmlDocument) metaNamed(name string) bool {
	found := false
	d.doc.Find("meta[name]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		found = strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), name)
		return !found
	})
	return found
}

func (d *htmlDocument) countTyped(tag, typ string) int {
	n := 0
	d.doc.Find(tag + "[type]").Each(func(i int, s *goquery.Selection) {
		if strings.EqualFold(strings.TrimSpace(s.AttrOr("type", "")), typ) {
			n++
		}
	})
	return n
}
