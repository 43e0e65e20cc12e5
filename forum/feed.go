package forum

import (
	"strconv"
	"strings"
)

type SortField string

const (
	SortByCreatedAt    SortField = "created_at"
	SortByUpvotes      SortField = "upvotes"
	SortByCommentCount SortField = "comment_count"
)

// NormalizeSortField maps any unrecognized value to created_at. Sort fields
// are never interpolated into query text from user input.
func NormalizeSortField(field string) SortField {
	switch SortField(field) {
	case SortByCreatedAt, SortByUpvotes, SortByCommentCount:
		return SortField(field)
	default:
		return SortByCreatedAt
	}
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func NormalizeSortOrder(order string) SortOrder {
	switch SortOrder(strings.ToLower(order)) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return SortDesc
	}
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type FeedParams struct {
	Tags               []string
	UrgencyLevel       *UrgencyLevel
	WithExpertResponse *bool
	SortBy             SortField
	SortOrder          SortOrder
	Page               int
	Limit              int
}

// Normalize clamps pagination, fills sort defaults, and lowercases tags.
func (params FeedParams) Normalize() FeedParams {
	if params.Page < 1 {
		params.Page = 1
	}

	if params.Limit < 1 {
		params.Limit = DefaultPageLimit
	}

	if params.Limit > MaxPageLimit {
		params.Limit = MaxPageLimit
	}

	params.SortBy = NormalizeSortField(string(params.SortBy))
	params.SortOrder = NormalizeSortOrder(string(params.SortOrder))
	params.Tags = NormalizeTags(params.Tags)

	return params
}

func (params FeedParams) cacheKey() string {
	var b strings.Builder

	b.WriteString("tags=")
	b.WriteString(strings.Join(params.Tags, ","))
	b.WriteString(";urgency=")

	if params.UrgencyLevel != nil {
		b.WriteString(string(*params.UrgencyLevel))
	}

	b.WriteString(";expert=")

	if params.WithExpertResponse != nil {
		b.WriteString(strconv.FormatBool(*params.WithExpertResponse))
	}

	b.WriteString(";sort=")
	b.WriteString(string(params.SortBy))
	b.WriteString(":")
	b.WriteString(string(params.SortOrder))
	b.WriteString(";page=")
	b.WriteString(strconv.Itoa(params.Page))
	b.WriteString(";limit=")
	b.WriteString(strconv.Itoa(params.Limit))

	return b.String()
}

type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

type FeedPage struct {
	Posts      []*Post
	Pagination Pagination
}
