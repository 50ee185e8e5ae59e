package features

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// FeatureOrder is the column order the classifier was trained on. The
// names, misspellings included, are part of that contract.
var FeatureOrder = []string{
	"URLLength",
	"Domain",
	"DomainLength",
	"IsDomainIP",
	"TLD",
	"TLDLength",
	"URLSimilarityIndex",
	"CharContinuationRate",
	"TLDLegitimateProb",
	"URLCharProb",
	"NoOfSubDomain",
	"HasObfuscation",
	"NoOfObfuscatedChar",
	"ObfuscationRatio",
	"NoOfLettersInURL",
	"LetterRatioInURL",
	"NoOfDegitsInURL",
	"DegitRatioInURL",
	"NoOfEqualsInURL",
	"NoOfQMarkInURL",
	"NoOfAmpersandInURL",
	"NoOfOtherSpecialCharsInURL",
	"SpacialCharRatioInURL",
	"IsHTTPS",
	"LineOfCode",
	"LargestLineLength",
	"HasTitle",
	"DomainTitleMatchScore",
	"URLTitleMatchScore",
	"HasFavicon",
	"Robots",
	"IsResponsive",
	"NoOfURLRedirect",
	"NoOfSelfRedirect",
	"HasDescription",
	"NoOfPopup",
	"NoOfiFrame",
	"HasExternalFormSubmit",
	"HasSocialNet",
	"HasSubmitButton",
	"HasHiddenFields",
	"HasPasswordField",
	"Bank",
	"Pay",
	"Crypto",
	"HasCopyrightInfo",
	"NoOfImage",
	"NoOfCSS",
	"NoOfJS",
	"NoOfSelfRef",
	"NoOfEmptyRef",
	"NoOfExternalRef",
}

// Placeholder scores, fixed until a URL similarity model exists.
const (
	PlaceholderURLSimilarityIndex   = 0.5
	PlaceholderCharContinuationRate = 0.5
	PlaceholderTLDLegitimateProb    = 0.8
	PlaceholderURLCharProb          = 0.05
)

// Vector maps every name in FeatureOrder to its value.
type Vector map[string]float64

// Defaults is the vector of a URL about which nothing is known.
func Defaults() Vector {
	v := make(Vector, len(FeatureOrder))
	for _, name := range FeatureOrder {
		v[name] = 0
	}
	v["URLSimilarityIndex"] = PlaceholderURLSimilarityIndex
	v["CharContinuationRate"] = PlaceholderCharContinuationRate
	v["TLDLegitimateProb"] = PlaceholderTLDLegitimateProb
	v["URLCharProb"] = PlaceholderURLCharProb
	return v
}

// Slice flattens v in the given order. Names v does not know become 0 so a
// model trained on a subset or superset of the schema still gets a tensor
// of the right width.
func (v Vector) Slice(order []string) []float32 {
	out := make([]float32, 0, len(order))
	for _, name := range order {
		out = append(out, float32(v[name]))
	}
	return out
}

// MarshalJSON writes the fields in FeatureOrder.
func (v Vector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range FeatureOrder {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		buf.Write(key)
		buf.WriteByte(':')

		val := v[name]
		if math.IsNaN(val) || math.IsInf(val, 0) {
			val = 0
		}
		buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
