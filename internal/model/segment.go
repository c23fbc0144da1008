package model

// Categories recognized by the service. chapter and poi_highlight are
// structural categories: they exist on segments but can never be reached
// through a category vote.
const (
	CategorySponsor       = "sponsor"
	CategorySelfPromo     = "selfpromo"
	CategoryInteraction   = "interaction"
	CategoryIntro         = "intro"
	CategoryOutro         = "outro"
	CategoryPreview       = "preview"
	CategoryMusicOfftopic = "music_offtopic"
	CategoryFiller        = "filler"
	CategoryChapter       = "chapter"
	CategoryHighlight     = "poi_highlight"
)

// ValidCategories are all categories a segment may carry.
var ValidCategories = map[string]bool{
	CategorySponsor:       true,
	CategorySelfPromo:     true,
	CategoryInteraction:   true,
	CategoryIntro:         true,
	CategoryOutro:         true,
	CategoryPreview:       true,
	CategoryMusicOfftopic: true,
	CategoryFiller:        true,
	CategoryChapter:       true,
	CategoryHighlight:     true,
}

// VoteableCategories are the categories reachable through a category vote.
var VoteableCategories = map[string]bool{
	CategorySponsor:       true,
	CategorySelfPromo:     true,
	CategoryInteraction:   true,
	CategoryIntro:         true,
	CategoryOutro:         true,
	CategoryPreview:       true,
	CategoryMusicOfftopic: true,
	CategoryFiller:        true,
}

// Action types describe what a player should do with a segment.
const (
	ActionSkip    = "skip"
	ActionMute    = "mute"
	ActionFull    = "full"
	ActionPOI     = "poi"
	ActionChapter = "chapter"
)

// ValidActionTypes are the accepted actionType values on submission.
var ValidActionTypes = map[string]bool{
	ActionSkip:    true,
	ActionMute:    true,
	ActionFull:    true,
	ActionPOI:     true,
	ActionChapter: true,
}

// Segment is one submitted time-range candidate for a video.
type Segment struct {
	UUID          string  `json:"UUID"`
	VideoID       string  `json:"videoId"`
	StartTime     float64 `json:"startTime"`
	EndTime       float64 `json:"endTime"`
	Votes         int     `json:"votes"`
	Category      string  `json:"category"`
	ActionType    string  `json:"actionType"`
	SubmitterID   string  `json:"-"`
	Locked        bool    `json:"locked"`
	Hidden        bool    `json:"-"`
	ShadowHidden  bool    `json:"-"`
	VideoDuration float64 `json:"videoDuration"`
	TimeSubmitted int64   `json:"timeSubmitted"`
}

// CategoryTally is the aggregated weighted vote for one candidate category
// on one segment. Rows exist only once a category vote has been cast.
type CategoryTally struct {
	UUID     string  `json:"UUID"`
	Category string  `json:"category"`
	Votes    float64 `json:"votes"`
}

// SegmentResponse is the viewer-facing shape returned by segment reads.
type SegmentResponse struct {
	UUID       string  `json:"UUID"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	Votes      int     `json:"votes"`
	Category   string  `json:"category"`
	ActionType string  `json:"actionType"`
	Locked     bool    `json:"locked"`
}

// VideoSegmentsResponse groups resolved segments by video for hash-prefix
// lookups.
type VideoSegmentsResponse struct {
	VideoID  string            `json:"videoId"`
	Segments []SegmentResponse `json:"segments"`
}

// SubmitRequest is the API request body for submitting a new segment.
type SubmitRequest struct {
	VideoID       string  `json:"videoId"`
	StartTime     float64 `json:"startTime"`
	EndTime       float64 `json:"endTime"`
	Category      string  `json:"category"`
	ActionType    string  `json:"actionType"`
	UserID        string  `json:"userId"`
	VideoDuration float64 `json:"videoDuration,omitempty"`
	UserAgent     string  `json:"userAgent,omitempty"`
}

// SubmitResponse returns the minted UUID for a stored submission.
type SubmitResponse struct {
	UUID string `json:"UUID"`
}

// StatsResponse is the API response for global statistics.
type StatsResponse struct {
	TotalSegments   int            `json:"totalSegments"`
	TotalVotes      int            `json:"totalVotes"`
	TotalUsers      int            `json:"totalUsers"`
	ActiveUsers24h  int            `json:"activeUsers24h"`
	SegmentsByCat   map[string]int `json:"segmentsByCategory"`
}
