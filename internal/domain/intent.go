package domain

// Intent is the coarse classification of a single user message.
type Intent string

const (
	IntentNone           Intent = ""
	IntentCreateImage    Intent = "create_image"
	IntentCreateCarousel Intent = "create_carousel"
	IntentCreateVideo    Intent = "create_video"
	IntentQuestion       Intent = "question"
	IntentSmalltalk      Intent = "smalltalk"
)

// Kind returns the creation kind an intent maps to, if any.
func (i Intent) Kind() (Kind, bool) {
	switch i {
	case IntentCreateImage:
		return KindImage, true
	case IntentCreateCarousel:
		return KindCarousel, true
	case IntentCreateVideo:
		return KindVideo, true
	default:
		return "", false
	}
}

// IsCreation reports whether the intent asks for a new asset.
func (i Intent) IsCreation() bool {
	_, ok := i.Kind()
	return ok
}
