package canon

// books contains all canonical Bible books in canonical order.
// Code is the short code used by reading plans; jo and ez are each shared by two books
// and are resolved by Disambiguate. ID is unique across the table.
var books = []Book{
	// Old Testament
	{Name: "Gênesis", Code: "gn", ID: "gn", OSIS: "Gen", Chapters: 50, Testament: OldTestament},
	{Name: "Êxodo", Code: "ex", ID: "ex", OSIS: "Exod", Chapters: 40, Testament: OldTestament},
	{Name: "Levítico", Code: "lv", ID: "lv", OSIS: "Lev", Chapters: 27, Testament: OldTestament},
	{Name: "Números", Code: "nm", ID: "nm", OSIS: "Num", Chapters: 36, Testament: OldTestament},
	{Name: "Deuteronômio", Code: "dt", ID: "dt", OSIS: "Deut", Chapters: 34, Testament: OldTestament},
	{Name: "Josué", Code: "js", ID: "js", OSIS: "Josh", Chapters: 24, Testament: OldTestament},
	{Name: "Juízes", Code: "jz", ID: "jz", OSIS: "Judg", Chapters: 21, Testament: OldTestament},
	{Name: "Rute", Code: "rt", ID: "rt", OSIS: "Ruth", Chapters: 4, Testament: OldTestament},
	{Name: "1 Samuel", Code: "1sm", ID: "1sm", OSIS: "1Sam", Chapters: 31, Testament: OldTestament},
	{Name: "2 Samuel", Code: "2sm", ID: "2sm", OSIS: "2Sam", Chapters: 24, Testament: OldTestament},
	{Name: "1 Reis", Code: "1rs", ID: "1rs", OSIS: "1Kgs", Chapters: 22, Testament: OldTestament},
	{Name: "2 Reis", Code: "2rs", ID: "2rs", OSIS: "2Kgs", Chapters: 25, Testament: OldTestament},
	{Name: "1 Crônicas", Code: "1cr", ID: "1cr", OSIS: "1Chr", Chapters: 29, Testament: OldTestament},
	{Name: "2 Crônicas", Code: "2cr", ID: "2cr", OSIS: "2Chr", Chapters: 36, Testament: OldTestament},
	{Name: "Esdras", Code: "ez", ID: "ed", OSIS: "Ezra", Chapters: 10, Testament: OldTestament},
	{Name: "Neemias", Code: "ne", ID: "ne", OSIS: "Neh", Chapters: 13, Testament: OldTestament},
	{Name: "Ester", Code: "et", ID: "et", OSIS: "Esth", Chapters: 10, Testament: OldTestament},
	{Name: "Jó", Code: "jo", ID: "jb", OSIS: "Job", Chapters: 42, Testament: OldTestament},
	{Name: "Salmos", Code: "sl", ID: "sl", OSIS: "Ps", Chapters: 150, Testament: OldTestament},
	{Name: "Provérbios", Code: "pv", ID: "pv", OSIS: "Prov", Chapters: 31, Testament: OldTestament},
	{Name: "Eclesiastes", Code: "ec", ID: "ec", OSIS: "Eccl", Chapters: 12, Testament: OldTestament},
	{Name: "Cantares", Code: "ct", ID: "ct", OSIS: "Song", Chapters: 8, Testament: OldTestament},
	{Name: "Isaías", Code: "is", ID: "is", OSIS: "Isa", Chapters: 66, Testament: OldTestament},
	{Name: "Jeremias", Code: "jr", ID: "jr", OSIS: "Jer", Chapters: 52, Testament: OldTestament},
	{Name: "Lamentações", Code: "lm", ID: "lm", OSIS: "Lam", Chapters: 5, Testament: OldTestament},
	{Name: "Ezequiel", Code: "ez", ID: "ez", OSIS: "Ezek", Chapters: 48, Testament: OldTestament},
	{Name: "Daniel", Code: "dn", ID: "dn", OSIS: "Dan", Chapters: 12, Testament: OldTestament},
	{Name: "Oseias", Code: "os", ID: "os", OSIS: "Hos", Chapters: 14, Testament: OldTestament},
	{Name: "Joel", Code: "jl", ID: "jl", OSIS: "Joel", Chapters: 3, Testament: OldTestament},
	{Name: "Amós", Code: "am", ID: "am", OSIS: "Amos", Chapters: 9, Testament: OldTestament},
	{Name: "Obadias", Code: "ob", ID: "ob", OSIS: "Obad", Chapters: 1, Testament: OldTestament},
	{Name: "Jonas", Code: "jn", ID: "jn", OSIS: "Jonah", Chapters: 4, Testament: OldTestament},
	{Name: "Miqueias", Code: "mq", ID: "mq", OSIS: "Mic", Chapters: 7, Testament: OldTestament},
	{Name: "Naum", Code: "na", ID: "na", OSIS: "Nah", Chapters: 3, Testament: OldTestament},
	{Name: "Habacuque", Code: "hc", ID: "hc", OSIS: "Hab", Chapters: 3, Testament: OldTestament},
	{Name: "Sofonias", Code: "sf", ID: "sf", OSIS: "Zeph", Chapters: 3, Testament: OldTestament},
	{Name: "Ageu", Code: "ag", ID: "ag", OSIS: "Hag", Chapters: 2, Testament: OldTestament},
	{Name: "Zacarias", Code: "zc", ID: "zc", OSIS: "Zech", Chapters: 14, Testament: OldTestament},
	{Name: "Malaquias", Code: "ml", ID: "ml", OSIS: "Mal", Chapters: 4, Testament: OldTestament},

	// New Testament
	{Name: "Mateus", Code: "mt", ID: "mt", OSIS: "Matt", Chapters: 28, Testament: NewTestament},
	{Name: "Marcos", Code: "mc", ID: "mc", OSIS: "Mark", Chapters: 16, Testament: NewTestament},
	{Name: "Lucas", Code: "lc", ID: "lc", OSIS: "Luke", Chapters: 24, Testament: NewTestament},
	{Name: "João", Code: "jo", ID: "jo", OSIS: "John", Chapters: 21, Testament: NewTestament},
	{Name: "Atos", Code: "at", ID: "at", OSIS: "Acts", Chapters: 28, Testament: NewTestament},
	{Name: "Romanos", Code: "rm", ID: "rm", OSIS: "Rom", Chapters: 16, Testament: NewTestament},
	{Name: "1 Coríntios", Code: "1co", ID: "1co", OSIS: "1Cor", Chapters: 16, Testament: NewTestament},
	{Name: "2 Coríntios", Code: "2co", ID: "2co", OSIS: "2Cor", Chapters: 13, Testament: NewTestament},
	{Name: "Gálatas", Code: "gl", ID: "gl", OSIS: "Gal", Chapters: 6, Testament: NewTestament},
	{Name: "Efésios", Code: "ef", ID: "ef", OSIS: "Eph", Chapters: 6, Testament: NewTestament},
	{Name: "Filipenses", Code: "fp", ID: "fp", OSIS: "Phil", Chapters: 4, Testament: NewTestament},
	{Name: "Colossenses", Code: "cl", ID: "cl", OSIS: "Col", Chapters: 4, Testament: NewTestament},
	{Name: "1 Tessalonicenses", Code: "1ts", ID: "1ts", OSIS: "1Thess", Chapters: 5, Testament: NewTestament},
	{Name: "2 Tessalonicenses", Code: "2ts", ID: "2ts", OSIS: "2Thess", Chapters: 3, Testament: NewTestament},
	{Name: "1 Timóteo", Code: "1ti", ID: "1ti", OSIS: "1Tim", Chapters: 6, Testament: NewTestament},
	{Name: "2 Timóteo", Code: "2ti", ID: "2ti", OSIS: "2Tim", Chapters: 4, Testament: NewTestament},
	{Name: "Tito", Code: "tt", ID: "tt", OSIS: "Titus", Chapters: 3, Testament: NewTestament},
	{Name: "Filemom", Code: "fm", ID: "fm", OSIS: "Phlm", Chapters: 1, Testament: NewTestament},
	{Name: "Hebreus", Code: "hb", ID: "hb", OSIS: "Heb", Chapters: 13, Testament: NewTestament},
	{Name: "Tiago", Code: "tg", ID: "tg", OSIS: "Jas", Chapters: 5, Testament: NewTestament},
	{Name: "1 Pedro", Code: "1pe", ID: "1pe", OSIS: "1Pet", Chapters: 5, Testament: NewTestament},
	{Name: "2 Pedro", Code: "2pe", ID: "2pe", OSIS: "2Pet", Chapters: 3, Testament: NewTestament},
	{Name: "1 João", Code: "1jo", ID: "1jo", OSIS: "1John", Chapters: 5, Testament: NewTestament},
	{Name: "2 João", Code: "2jo", ID: "2jo", OSIS: "2John", Chapters: 1, Testament: NewTestament},
	{Name: "3 João", Code: "3jo", ID: "3jo", OSIS: "3John", Chapters: 1, Testament: NewTestament},
	{Name: "Judas", Code: "jd", ID: "jd", OSIS: "Jude", Chapters: 1, Testament: NewTestament},
	{Name: "Apocalipse", Code: "ap", ID: "ap", OSIS: "Rev", Chapters: 22, Testament: NewTestament},
}

// aliases maps alternate spellings seen in reading plans to canonical display names.
// Keys are folded (see Fold).
var aliases = map[string]string{
	"genesis":               "Gênesis",
	"exodo":                 "Êxodo",
	"salmo":                 "Salmos",
	"cantico dos canticos":  "Cantares",
	"canticos":              "Cantares",
	"cantares de salomao":   "Cantares",
	"oseias":                "Oseias",
	"miqueias":              "Miqueias",
	"atos dos apostolos":    "Atos",
	"apocalipse de joao":    "Apocalipse",
	"1 samuel":              "1 Samuel",
	"i samuel":              "1 Samuel",
	"ii samuel":             "2 Samuel",
	"i reis":                "1 Reis",
	"ii reis":               "2 Reis",
	"i cronicas":            "1 Crônicas",
	"ii cronicas":           "2 Crônicas",
	"i corintios":           "1 Coríntios",
	"ii corintios":          "2 Coríntios",
	"i tessalonicenses":     "1 Tessalonicenses",
	"ii tessalonicenses":    "2 Tessalonicenses",
	"i timoteo":             "1 Timóteo",
	"ii timoteo":            "2 Timóteo",
	"i pedro":               "1 Pedro",
	"ii pedro":              "2 Pedro",
	"i joao":                "1 João",
	"ii joao":               "2 João",
	"iii joao":              "3 João",
}
