package provider

// Provider book tables are keyed by canon.Book.ID.

// abibliaAbbrevs lists the abibliadigital abbreviations that differ from the book ID.
var abibliaAbbrevs = map[string]string{
	"jb":  "jó",
	"1ti": "1tm",
	"2ti": "2tm",
}

// englishNames are the bible-api.com book names.
var englishNames = map[string]string{
	"gn": "genesis", "ex": "exodus", "lv": "leviticus", "nm": "numbers",
	"dt": "deuteronomy", "js": "joshua", "jz": "judges", "rt": "ruth",
	"1sm": "1samuel", "2sm": "2samuel", "1rs": "1kings", "2rs": "2kings",
	"1cr": "1chronicles", "2cr": "2chronicles", "ed": "ezra", "ne": "nehemiah",
	"et": "esther", "jb": "job", "sl": "psalms", "pv": "proverbs",
	"ec": "ecclesiastes", "ct": "songofsolomon", "is": "isaiah", "jr": "jeremiah",
	"lm": "lamentations", "ez": "ezekiel", "dn": "daniel", "os": "hosea",
	"jl": "joel", "am": "amos", "ob": "obadiah", "jn": "jonah", "mq": "micah",
	"na": "nahum", "hc": "habakkuk", "sf": "zephaniah", "ag": "haggai",
	"zc": "zechariah", "ml": "malachi",
	"mt": "matthew", "mc": "mark", "lc": "luke", "jo": "john", "at": "acts",
	"rm": "romans", "1co": "1corinthians", "2co": "2corinthians", "gl": "galatians",
	"ef": "ephesians", "fp": "philippians", "cl": "colossians",
	"1ts": "1thessalonians", "2ts": "2thessalonians", "1ti": "1timothy",
	"2ti": "2timothy", "tt": "titus", "fm": "philemon", "hb": "hebrews",
	"tg": "james", "1pe": "1peter", "2pe": "2peter", "1jo": "1john",
	"2jo": "2john", "3jo": "3john", "jd": "jude", "ap": "revelation",
}

// usfmIDs are the USFM book identifiers API.Bible uses.
var usfmIDs = map[string]string{
	"gn": "GEN", "ex": "EXO", "lv": "LEV", "nm": "NUM", "dt": "DEU",
	"js": "JOS", "jz": "JDG", "rt": "RUT", "1sm": "1SA", "2sm": "2SA",
	"1rs": "1KI", "2rs": "2KI", "1cr": "1CH", "2cr": "2CH", "ed": "EZR",
	"ne": "NEH", "et": "EST", "jb": "JOB", "sl": "PSA", "pv": "PRO",
	"ec": "ECC", "ct": "SNG", "is": "ISA", "jr": "JER", "lm": "LAM",
	"ez": "EZK", "dn": "DAN", "os": "HOS", "jl": "JOL", "am": "AMO",
	"ob": "OBA", "jn": "JON", "mq": "MIC", "na": "NAM", "hc": "HAB",
	"sf": "ZEP", "ag": "HAG", "zc": "ZEC", "ml": "MAL",
	"mt": "MAT", "mc": "MRK", "lc": "LUK", "jo": "JHN", "at": "ACT",
	"rm": "ROM", "1co": "1CO", "2co": "2CO", "gl": "GAL", "ef": "EPH",
	"fp": "PHP", "cl": "COL", "1ts": "1TH", "2ts": "2TH", "1ti": "1TI",
	"2ti": "2TI", "tt": "TIT", "fm": "PHM", "hb": "HEB", "tg": "JAS",
	"1pe": "1PE", "2pe": "2PE", "1jo": "1JN", "2jo": "2JN", "3jo": "3JN",
	"jd": "JUD", "ap": "REV",
}
