package retrieval

import "regexp"

// sectionIDPattern matches structural identifiers like "3.2" or
// "3.2.1" inside free text.
var sectionIDPattern = regexp.MustCompile(`\b(\d+(?:\.\d+)+)\b`)

// ExtractSectionID returns the first structural identifier found in a
// text, or an empty string. A requirement's identifier participates in
// structural scoring without the caller supplying it separately.
func ExtractSectionID(text string) string {
	return sectionIDPattern.FindString(text)
}
