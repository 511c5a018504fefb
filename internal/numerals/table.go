package numerals

// Word tables are keyed by the folded form (lower case, no accents) so that
// "veintidós", "VEINTIDOS" and "veintidos" resolve alike.

// units are the words that can close a "<tens> y <unit>" compound.
var units = map[string]int{
	"uno": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9,
}

// standalone covers every single-word number from cero to veintinueve.
var standalone = map[string]int{
	"cero": 0,
	"diez": 10, "once": 11, "doce": 12, "trece": 13, "catorce": 14, "quince": 15,
	"dieciseis": 16, "diecisiete": 17, "dieciocho": 18, "diecinueve": 19,
	"veinte": 20, "veintiuno": 21, "veintiun": 21, "veintidos": 22, "veintitres": 23,
	"veinticuatro": 24, "veinticinco": 25, "veintiseis": 26, "veintisiete": 27,
	"veintiocho": 28, "veintinueve": 29,
}

// tens are the decades that take a "y <unit>" tail.
var tens = map[string]int{
	"treinta": 30, "cuarenta": 40, "cincuenta": 50,
	"sesenta": 60, "setenta": 70, "ochenta": 80, "noventa": 90,
}

// hundreds can be followed by a tail below one hundred ("ciento veinte").
// "cien" is deliberately absent: it never takes a tail.
var hundreds = map[string]int{
	"ciento":        100,
	"doscientos":    200, "doscientas": 200,
	"trescientos":   300, "trescientas": 300,
	"cuatrocientos": 400, "cuatrocientas": 400,
	"quinientos":    500, "quinientas": 500,
}

// connector joins tens and units.
const connector = "y"

// bare is "cien", the only hundred that stands alone.
const bare = "cien"

// lookupSingle returns the value of a word that is a number on its own.
func lookupSingle(w string) (int, bool) {
	if v, ok := units[w]; ok {
		return v, true
	}
	if v, ok := standalone[w]; ok {
		return v, true
	}
	if v, ok := tens[w]; ok {
		return v, true
	}
	if v, ok := hundreds[w]; ok {
		return v, true
	}
	if w == bare {
		return 100, true
	}
	return 0, false
}
