package models

// HashtagCount is one entry of the hashtag frequency report.
type HashtagCount struct {
	Hashtag string `json:"hashtag"`
	Count   int    `json:"count"`
}

// VolumeBucket is one hour bucket of the volume report. HourOrKey is a
// UTC hour key in the form YYYY-MM-DDTHH, or the literal "unknown" for
// posts without a usable creation timestamp.
type VolumeBucket struct {
	HourOrKey string `json:"hour_or_key"`
	Count     int    `json:"count"`
}
