package zhihu

// ContentKind classifies what a saved collection item points at. The API
// reports the kind as a free-form string; everything downstream works with
// this closed set so an unrecognized kind is handled once, at the boundary.
type ContentKind int

const (
	KindUnknown ContentKind = iota
	KindAnswer
	KindArticle
	KindPin
	KindVideo
)

// ParseContentKind maps an API content type string onto the closed enum
func ParseContentKind(apiType string) ContentKind {
	switch apiType {
	case "answer":
		return KindAnswer
	case "article":
		return KindArticle
	case "pin":
		return KindPin
	case "zvideo":
		return KindVideo
	default:
		return KindUnknown
	}
}

func (k ContentKind) String() string {
	switch k {
	case KindAnswer:
		return "answer"
	case KindArticle:
		return "article"
	case KindPin:
		return "pin"
	case KindVideo:
		return "zvideo"
	default:
		return "unknown"
	}
}
