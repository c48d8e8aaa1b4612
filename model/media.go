package model

import "time"

// MediaKind tags an attachment once at ingestion.
type MediaKind int

const (
	MediaPhoto MediaKind = iota + 1
	MediaVideo
	MediaDocument
)

func (k MediaKind) String() string {
	switch k {
	case MediaPhoto:
		return "photo"
	case MediaVideo:
		return "video"
	case MediaDocument:
		return "document"
	}
	return "unknown"
}

// ParseMediaKind is the inverse of MediaKind.String.
func ParseMediaKind(s string) (MediaKind, bool) {
	switch s {
	case "photo":
		return MediaPhoto, true
	case "video":
		return MediaVideo, true
	case "document":
		return MediaDocument, true
	}
	return 0, false
}

// MediaRef is an opaque transport handle to a media payload.
type MediaRef struct {
	Ref      string
	Kind     MediaKind
	Filename string
}

// MediaAttachment is one photo, video or document of a stored submission.
// Position 0 is the only attachment that may carry the caption.
type MediaAttachment struct {
	SubmissionID int64
	Ref          string
	Kind         MediaKind
	Filename     string
	Position     int
}

// PhotoVariant is one resolution the transport offers for a photo.
type PhotoVariant struct {
	Ref      string
	Filename string
	Width    int
	Height   int
}

// Fragment is one inbound message that may belong to an album.
type Fragment struct {
	UserID      string
	DisplayName string
	ChannelID   string
	MessageID   string
	GroupID     string
	// Sequence is the transport's own ordering of the fragment.
	Sequence   int64
	Text       string
	Caption    string
	Photo      []PhotoVariant
	File       *MediaRef
	ReceivedAt time.Time
}

// Body returns the caption or text of the fragment.
func (f Fragment) Body() string {
	if f.Caption != "" {
		return f.Caption
	}
	return f.Text
}

// Attachment returns the media the fragment carries, if any. Photos reduce
// to their highest resolution variant.
func (f Fragment) Attachment() (MediaRef, bool) {
	if len(f.Photo) > 0 {
		best := f.Photo[0]
		for _, v := range f.Photo[1:] {
			if v.Width*v.Height > best.Width*best.Height {
				best = v
			}
		}
		return MediaRef{Ref: best.Ref, Kind: MediaPhoto, Filename: best.Filename}, true
	}
	if f.File != nil && f.File.Ref != "" {
		return *f.File, true
	}
	return MediaRef{}, false
}
