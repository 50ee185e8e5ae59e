package htmldoc

type emptyDocument struct{}

// Empty is the document of a page that could not be fetched.
func Empty() Document { return emptyDocument{} }

func (emptyDocument) Title() string         { return "" }
func (emptyDocument) HasFavicon() bool      { return false }
func (emptyDocument) IsResponsive() bool    { return false }
func (emptyDocument) HasDescription() bool  { return false }
func (emptyDocument) HasSubmitButton() bool { return false }
func (emptyDocument) Forms() []Form         { return nil }
func (emptyDocument) Anchors() []string     { return nil }
func (emptyDocument) IFrames() int          { return 0 }
func (emptyDocument) Images() int           { return 0 }
func (emptyDocument) Stylesheets() int      { return 0 }
func (emptyDocument) Scripts() int          { return 0 }
func (emptyDocument) HiddenInputs() int     { return 0 }
func (emptyDocument) PasswordInputs() int   { return 0 }
