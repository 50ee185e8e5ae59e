package features

import (
	"unicode/utf8"

	"phishguard/internal/urlparts"
)

// Assemble merges the sub-results into a full Vector. It cannot fail: any
// field a sub-result does not set keeps its value from Defaults.
func Assemble(u urlparts.URL, lex Lexical, c Content, domainID, tldID int) Vector {
	f := Defaults()

	// --- URL ---
	f["URLLength"] = float64(lex.Length)
	f["HasObfuscation"] = boolToFloat(lex.Obfuscated > 0)
	f["NoOfObfuscatedChar"] = float64(lex.Obfuscated)
	f["ObfuscationRatio"] = lex.ObfuscationRatio
	f["NoOfLettersInURL"] = float64(lex.Letters)
	f["LetterRatioInURL"] = lex.LetterRatio
	f["NoOfDegitsInURL"] = float64(lex.Digits)
	f["DegitRatioInURL"] = lex.DigitRatio
	f["NoOfEqualsInURL"] = float64(lex.Equals)
	f["NoOfQMarkInURL"] = float64(lex.QMarks)
	f["NoOfAmpersandInURL"] = float64(lex.Ampersands)
	f["NoOfOtherSpecialCharsInURL"] = float64(lex.Specials)
	f["SpacialCharRatioInURL"] = lex.SpecialRatio
	f["IsHTTPS"] = boolToFloat(lex.IsHTTPS)

	// --- Domain ---
	f["Domain"] = float64(domainID)
	f["DomainLength"] = float64(utf8.RuneCountInString(u.FullDomain()))
	f["IsDomainIP"] = boolToFloat(u.IsDomainIP())
	f["TLD"] = float64(tldID)
	f["TLDLength"] = float64(utf8.RuneCountInString(u.Suffix))
	f["NoOfSubDomain"] = float64(u.NumSubdomains())

	// --- Content ---
	f["LineOfCode"] = float64(c.LineOfCode)
	f["LargestLineLength"] = float64(c.LargestLineLength)
	f["HasTitle"] = boolToFloat(c.HasTitle)
	f["DomainTitleMatchScore"] = c.DomainTitleMatchScore
	f["URLTitleMatchScore"] = boolToFloat(c.URLTitleMatchScore)
	f["HasFavicon"] = boolToFloat(c.HasFavicon)
	f["Robots"] = boolToFloat(c.Robots)
	f["IsResponsive"] = boolToFloat(c.Responsive)
	f["NoOfURLRedirect"] = float64(c.Redirects)
	f["NoOfSelfRedirect"] = float64(c.SelfRedirects)
	f["HasDescription"] = boolToFloat(c.HasDescription)
	f["NoOfPopup"] = float64(c.Popups)
	f["NoOfiFrame"] = float64(c.IFrames)
	f["HasExternalFormSubmit"] = boolToFloat(c.ExternalFormSubmit)
	f["HasSocialNet"] = boolToFloat(lex.SocialNet)

	// --- Security ---
	f["HasSubmitButton"] = boolToFloat(c.SubmitButton)
	f["HasHiddenFields"] = boolToFloat(c.HiddenFields)
	f["HasPasswordField"] = boolToFloat(c.PasswordField)
	f["Bank"] = boolToFloat(lex.Bank)
	f["Pay"] = boolToFloat(lex.Pay)
	f["Crypto"] = boolToFloat(lex.Crypto)
	f["HasCopyrightInfo"] = boolToFloat(c.CopyrightInfo)

	// --- References ---
	f["NoOfImage"] = float64(c.Images)
	f["NoOfCSS"] = float64(c.Stylesheets)
	f["NoOfJS"] = float64(c.Scripts)
	f["NoOfSelfRef"] = float64(c.SelfRefs)
	f["NoOfEmptyRef"] = float64(c.EmptyRefs)
	f["NoOfExternalRef"] = float64(c.ExternalRefs)

	return f
}
