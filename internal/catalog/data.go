package catalog

// knownBrands backs brand inference for sources that do not ship a brand
// field. Order matters: longer, more specific names first.
var knownBrands = []string{
	"Cambridge Audio",
	"Pioneer DJ",
	"LD Systems",
	"Q Acoustics",
	"Audio Pro",
	"Bluesound",
	"Bowers & Wilkins",
	"Dali",
	"Denon",
	"Devialet",
	"Focal",
	"Jabra",
	"JBL",
	"KEF",
	"Klipsch",
	"Marantz",
	"Monitor Audio",
	"NAD",
	"Poly",
	"Pro-Ject",
	"QSC",
	"Sonos",
	"Wharfedale",
	"WiiM",
	"Yamaha",
	"Yealink",
}

// categoryKeywords backs category inference when the source omits one.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Streamers", []string{"streamer", "streaming", "network player"}},
	{"Soundbars", []string{"soundbar", "sound bar"}},
	{"Turntables", []string{"turntable", "record player"}},
	{"Amplifiers", []string{"amplifier", "receiver", "integrated amp"}},
	{"Subwoofers", []string{"subwoofer", "sub "}},
	{"Speakers", []string{"speaker", "loudspeaker", "monitor"}},
	{"Headphones", []string{"headphone", "earbud", "in-ear"}},
	{"Conferencing", []string{"speakerphone", "video bar", "conference"}},
	{"DJ Equipment", []string{"dj ", "cdj", "mixer"}},
}
