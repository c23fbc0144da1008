package service

import "errors"

// Sentinel errors mapped to HTTP statuses by the handler layer. Anything not
// listed here is an internal/store failure. Anti-abuse gate rejections are
// deliberately absent: they resolve as successful no-ops so abusers cannot
// probe which rule blocked them.
var (
	ErrSegmentNotFound     = errors.New("segment not found")
	ErrInvalidVoteType     = errors.New("invalid vote type")
	ErrInvalidSegmentTimes = errors.New("invalid segment times")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrVoteRestricted      = errors.New("account restricted by active warnings")
	ErrDuplicateSegment    = errors.New("segment already submitted")
	ErrSubmissionLimit     = errors.New("too many segments for this video")
)
