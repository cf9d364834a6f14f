package rules

// Rule table keys.
const (
	KeyTimeWindow   = "TimeWindow"
	KeyDays         = "Days"
	KeyTargetDir    = "TargetDir"
	KeyTargetName   = "TargetName"
	KeyKeepOriginal = "KeepOriginal"
	KeyQuality      = "Quality"
	KeyTitle        = "title"
	KeyInfo         = "info"
	tagKeyPrefix    = "Tag"
)

// Context placeholders injected by the pipeline in addition to record fields.
const (
	FieldSection         = "SECTION"
	FieldDownloadBaseDir = "DOWNLOAD_BASEDIR"
	FieldConfigDir       = "CONFIG_DIR"
	// FieldScriptDir is an older spelling of CONFIG_DIR still found in rule files.
	FieldScriptDir = "SCRIPTDIR"
)

const (
	minQuality = 1
	maxQuality = 5
)

// Defaults returns the value used for every key a rule table leaves out.
func Defaults() map[string]string {
	return map[string]string{
		KeyTimeWindow:   "00:00-24:00",
		KeyDays:         "0,1,2,3,4,5,6",
		KeyTargetDir:    "{DOWNLOAD_BASEDIR}/{SECTION}",
		KeyTargetName:   "{Y}-{m}-{d} {H}h{M} Ö1 {title} {info_1line_limited}",
		KeyKeepOriginal: "False",
		KeyQuality:      "1",
		KeyTitle:        ".*",
		KeyInfo:         ".*",
		"TagArtist":     "Ö1",
		"TagAlbum":      "{SECTION}",
		"TagTitle":      "{Y}-{m}-{d} {H}:{M} {title} {info_1line} (id:{id})",
		"TagDate":       "{Y}",
		"TagGenre":      "Podcast",
		"TagComment":    "{extended_info}",
	}
}
