package concept

import "unicode"

// CoreLibrary builds the "neos.math.universal" + "language" concept
// library, grounded directly on concepts/src/core/math.universal.cpp and
// concepts/src/core/language.cpp in the original sources. It is registered
// first by convention, so its names win any collision with a later library
// (registration order is observable per spec §4.1).
func CoreLibrary() *Library {
	lib := NewLibrary("neos.math.universal", "neos.math.universal", "1.0.0", "")

	number := NewUnimplemented("math.universal.number", nil, Postfix)
	lib.Concepts["math.universal.number"] = number
	lib.Concepts["math.universal.number.digit"] = NewRunePredicate("math.universal.number.digit", number, unicode.IsDigit)
	lib.Concepts["math.universal.number.point"] = NewUnimplemented("math.universal.number.point", number, Infix)
	lib.Concepts["math.universal.number.exponent"] = NewUnimplemented("math.universal.number.exponent", number, Postfix)
	lib.Concepts["math.universal.number.base"] = NewUnimplemented("math.universal.number.base", number, Postfix)
	lib.Concepts["math.universal.number.hexdigit"] = NewRunePredicate("math.universal.number.hexdigit", number, isHexDigit)
	lib.Concepts["math.universal.number.exponent.positive"] = NewUnimplemented("math.universal.number.exponent.positive", number, Postfix)
	lib.Concepts["math.universal.number.exponent.negative"] = NewUnimplemented("math.universal.number.exponent.negative", number, Postfix)
	lib.Concepts["math.universal.number.exponent.digit"] = NewUnimplemented("math.universal.number.exponent.digit", number, Postfix)

	character := NewUnimplemented("language.character", nil, Postfix)
	utf8 := NewUnimplemented("language.character.utf8", character, Postfix)
	lib.Concepts["language.character"] = character
	lib.Concepts["language.character.utf8"] = utf8
	lib.Concepts["language.character.utf8.digit"] = NewRunePredicate("language.character.utf8.digit", utf8, unicode.IsDigit)
	lib.Concepts["language.character.utf8.letter"] = NewRunePredicate("language.character.utf8.letter", utf8, unicode.IsLetter)
	lib.Concepts["language.character.utf8.whitespace"] = NewRunePredicate("language.character.utf8.whitespace", utf8, unicode.IsSpace)
	lib.Concepts["language.whitespace"] = NewWhitespace(nil)

	return lib
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
