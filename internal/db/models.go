package db

import (
	"encoding/json"
	"time"
)

// Post content types. A post is one table row discriminated by type; the
// variant-specific fields are nullable columns.
const (
	PostTypeArticle      = "article"
	PostTypeFreeform     = "freeform"
	PostTypeCollection   = "collection"
	PostTypeVideo        = "video"
	PostTypeSocialThread = "social_thread"
	PostTypeShare        = "share"
	PostTypeWelcome      = "welcome"
)

// Keyword statuses.
const (
	KeywordStatusPending = "pending"
	KeywordStatusAllow   = "allow"
	KeywordStatusDeny    = "deny"
	KeywordStatusSynonym = "synonym"
)

// Submission statuses.
const (
	SubmissionStatusStarted  = "started"
	SubmissionStatusAccepted = "accepted"
	SubmissionStatusRejected = "rejected"
)

// PostFlags is the jsonb flags bag on a post. Updates patch it with the
// jsonb concatenation operator so unknown keys written by other services
// survive.
type PostFlags struct {
	Private             *bool   `json:"private,omitempty"`
	Visible             *bool   `json:"visible,omitempty"`
	ShowOnFeed          *bool   `json:"showOnFeed,omitempty"`
	SentAnalyticsReport *bool   `json:"sentAnalyticsReport,omitempty"`
	Banned              *bool   `json:"banned,omitempty"`
	Suppressed          *bool   `json:"suppressed,omitempty"`
	DedupKey            *string `json:"dedupKey,omitempty"`
	DeletedBy           *string `json:"deletedBy,omitempty"`
}

// Post maps curio.posts.
type Post struct {
	ID                string          `gorm:"column:id;type:uuid;primaryKey"`
	ShortID           string          `gorm:"column:short_id;type:text;not null;unique"`
	UpstreamID        *string         `gorm:"column:upstream_id;type:text;unique"`
	Type              string          `gorm:"column:type;type:text;not null;index"`
	SubType           *string         `gorm:"column:sub_type;type:text"`
	SourceID          string          `gorm:"column:source_id;type:text;not null;index"`
	AuthorID          *string         `gorm:"column:author_id;type:text;index"`
	SharedPostID      *string         `gorm:"column:shared_post_id;type:uuid;index"`
	SubmissionID      *string         `gorm:"column:submission_id;type:uuid"`
	Title             *string         `gorm:"column:title;type:text"`
	Content           *string         `gorm:"column:content;type:text"`
	ContentHTML       *string         `gorm:"column:content_html;type:text"`
	URL               *string         `gorm:"column:url;type:text"`
	CanonicalURL      *string         `gorm:"column:canonical_url;type:text"`
	Image             *string         `gorm:"column:image;type:text"`
	VideoID           *string         `gorm:"column:video_id;type:text"`
	ReadTime          *int            `gorm:"column:read_time;type:integer"`
	Description       *string         `gorm:"column:description;type:text"`
	Summary           *string         `gorm:"column:summary;type:text"`
	TOC               json.RawMessage `gorm:"column:toc;type:jsonb"`
	TagsStr           *string         `gorm:"column:tags_str;type:text"`
	Language          *string         `gorm:"column:language;type:text"`
	Origin            string          `gorm:"column:origin;type:text;not null;default:crawler"`
	Score             int64           `gorm:"column:score;type:bigint;not null;default:0"`
	Private           bool            `gorm:"column:private;type:boolean;not null;default:false"`
	Visible           bool            `gorm:"column:visible;type:boolean;not null;default:false"`
	VisibleAt         *time.Time      `gorm:"column:visible_at;type:timestamptz"`
	ShowOnFeed        bool            `gorm:"column:show_on_feed;type:boolean;not null;default:true"`
	Deleted           bool            `gorm:"column:deleted;type:boolean;not null;default:false"`
	Flags             json.RawMessage `gorm:"column:flags;type:jsonb;not null;default:'{}'"`
	ContentMeta       json.RawMessage `gorm:"column:content_meta;type:jsonb;not null;default:'{}'"`
	ContentQuality    json.RawMessage `gorm:"column:content_quality;type:jsonb;not null;default:'{}'"`
	Translations      json.RawMessage `gorm:"column:translations;type:jsonb;not null;default:'{}'"`
	MetadataChangedAt time.Time       `gorm:"column:metadata_changed_at;type:timestamptz;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Post) TableName() string { return "curio.posts" }

// Keyword maps curio.keywords.
type Keyword struct {
	Value       string    `gorm:"column:value;type:text;primaryKey"`
	Status      string    `gorm:"column:status;type:text;not null;default:pending"`
	Synonym     *string   `gorm:"column:synonym;type:text"`
	Occurrences int       `gorm:"column:occurrences;type:integer;not null;default:1"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Keyword) TableName() string { return "curio.keywords" }

// PostKeyword maps curio.post_keywords.
type PostKeyword struct {
	PostID  string `gorm:"column:post_id;type:uuid;primaryKey"`
	Keyword string `gorm:"column:keyword;type:text;primaryKey"`
}

func (PostKeyword) TableName() string { return "curio.post_keywords" }

// PostRelation maps curio.post_relations.
type PostRelation struct {
	PostID        string    `gorm:"column:post_id;type:uuid;primaryKey"`
	RelatedPostID string    `gorm:"column:related_post_id;type:uuid;primaryKey"`
	Type          string    `gorm:"column:type;type:text;primaryKey"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (PostRelation) TableName() string { return "curio.post_relations" }

// PostRelationCollection is the relation type for collection membership.
const PostRelationCollection = "collection"

// PostQuestion maps curio.post_questions.
type PostQuestion struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey"`
	PostID   string `gorm:"column:post_id;type:uuid;not null;index"`
	Question string `gorm:"column:question;type:text;not null"`
}

func (PostQuestion) TableName() string { return "curio.post_questions" }

// PostCodeSnippet maps curio.post_code_snippets.
type PostCodeSnippet struct {
	PostID   string  `gorm:"column:post_id;type:uuid;primaryKey"`
	Order    int     `gorm:"column:snippet_order;type:integer;primaryKey"`
	Language *string `gorm:"column:language;type:text"`
	Content  string  `gorm:"column:content;type:text;not null"`
}

func (PostCodeSnippet) TableName() string { return "curio.post_code_snippets" }

// Submission maps curio.submissions.
type Submission struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey"`
	URL       string    `gorm:"column:url;type:text;not null"`
	UserID    string    `gorm:"column:user_id;type:text;not null"`
	Status    string    `gorm:"column:status;type:text;not null;default:started"`
	Reason    *string   `gorm:"column:reason;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Submission) TableName() string { return "curio.submissions" }

// Source maps curio.sources.
type Source struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Handle    string    `gorm:"column:handle;type:text;not null;unique"`
	Private   bool      `gorm:"column:private;type:boolean;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Source) TableName() string { return "curio.sources" }

// User maps curio.users. Only the columns the moderation gate and author
// resolution read; the account system itself lives elsewhere.
type User struct {
	ID         string    `gorm:"column:id;type:text;primaryKey"`
	Username   *string   `gorm:"column:username;type:text;unique"`
	Reputation int       `gorm:"column:reputation;type:integer;not null;default:10"`
	TrustScore int       `gorm:"column:trust_score;type:integer;not null;default:1"`
	Flagged    bool      `gorm:"column:flagged;type:boolean;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (User) TableName() string { return "curio.users" }

func autoMigrateModels() []any {
	return []any{
		&Post{},
		&Keyword{},
		&PostKeyword{},
		&PostRelation{},
		&PostQuestion{},
		&PostCodeSnippet{},
		&Submission{},
		&Source{},
		&User{},
	}
}
