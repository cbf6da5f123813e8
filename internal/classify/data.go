package classify

// Static lookup tables. Kept as data rather than control flow so the
// classifier can be tuned without touching the resolution logic.

// vehicleKeywords always win and exclude the product from consultation.
var vehicleKeywords = []string{
	"car audio",
	"car speaker",
	"car subwoofer",
	"car amplifier",
	"head unit",
	"marine audio",
	"marine speaker",
	"boat speaker",
	"12v amplifier",
	"dash cam",
}

// categoryTags maps curated category-name fragments to a tag.
var categoryTags = map[string]string{
	"soundbar":          TagResidential,
	"turntable":         TagResidential,
	"hifi":              TagResidential,
	"home cinema":       TagResidential,
	"bookshelf speaker": TagResidential,
	"ceiling speaker":   TagCommercialInstall,
	"100v":              TagCommercialInstall,
	"pendant speaker":   TagCommercialInstall,
	"conference":        TagConferencing,
	"speakerphone":      TagConferencing,
	"video bar":         TagConferencing,
	"dj":                TagClubPA,
	"pa system":         TagClubPA,
	"line array":        TagClubPA,
	"stage monitor":     TagClubPA,
}

// brandTags associates brands with a single dominant use case.
var brandTags = map[string]string{
	"sonos":      TagResidential,
	"wiim":       TagResidential,
	"bluesound":  TagResidential,
	"cambridge":  TagResidential,
	"audac":      TagCommercialInstall,
	"cloud":      TagCommercialInstall,
	"biamp":      TagCommercialInstall,
	"jabra":      TagConferencing,
	"poly":       TagConferencing,
	"yealink":    TagConferencing,
	"pioneer dj": TagClubPA,
	"dap":        TagClubPA,
	"jbl pro":    TagClubPA,
	"qsc":        TagDualPurpose,
	"ld systems": TagDualPurpose,
}

// scoredTagOrder fixes iteration order for keyword scoring so ties resolve
// deterministically.
var scoredTagOrder = []string{
	TagCommercialInstall,
	TagConferencing,
	TagClubPA,
	TagDualPurpose,
	TagResidential,
}

// tagKeywords feed the frequency scoring fallback.
var tagKeywords = map[string][]string{
	TagResidential: {
		"living room", "stereo", "streamer", "turntable", "vinyl",
		"home cinema", "soundbar", "bookshelf", "subwoofer", "multiroom",
	},
	TagCommercialInstall: {
		"install", "ceiling", "wall mount", "100v", "70v", "zone",
		"background music", "commercial", "restaurant", "retail",
	},
	TagConferencing: {
		"conference", "meeting room", "usb microphone", "speakerphone",
		"huddle", "video bar", "teams", "zoom",
	},
	TagClubPA: {
		"dj", "club", "pa ", "sound reinforcement", "line array",
		"stage", "monitor wedge", "tour", "live sound",
	},
	TagDualPurpose: {
		"portable pa", "battery powered", "all-in-one", "column system",
		"versatile", "rental",
	},
}
