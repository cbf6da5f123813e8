package push

// storefrontNameLimit is the storefront's product-name field length.
const storefrontNameLimit = 80

// defaultCategoryID receives products whose category has no mapping.
const defaultCategoryID = "uncategorised"

// unassignedManufacturer receives brands without a manufacturer record.
const unassignedManufacturer = "unassigned"

// categoryIDs maps canonical category names to storefront category ids.
var categoryIDs = map[string]string{
	"speakers":      "cat-speakers",
	"floorstanding": "cat-speakers",
	"bookshelf":     "cat-speakers",
	"subwoofers":    "cat-subwoofers",
	"amplifiers":    "cat-amplifiers",
	"receivers":     "cat-amplifiers",
	"streamers":     "cat-streamers",
	"turntables":    "cat-turntables",
	"headphones":    "cat-headphones",
	"soundbars":     "cat-soundbars",
	"accessories":   "cat-accessories",
	"cables":        "cat-accessories",
}

// manufacturerIDs maps brands to storefront manufacturer ids.
var manufacturerIDs = map[string]string{
	"kef":            "man-kef",
	"dali":           "man-dali",
	"bowers wilkins": "man-bw",
	"yamaha":         "man-yamaha",
	"denon":          "man-denon",
	"marantz":        "man-marantz",
	"sonos":          "man-sonos",
	"wiim":           "man-wiim",
	"bluesound":      "man-bluesound",
	"cambridge":      "man-cambridge",
	"focal":          "man-focal",
	"monitor audio":  "man-monitoraudio",
	"svs":            "man-svs",
	"pro-ject":       "man-project",
}
