package media

// Origin kind names as recorded in events, logs and metrics labels.
const (
	OriginURL   = "url"
	OriginPath  = "path"
	OriginBytes = "bytes"
)

// Origin says where an entry's content comes from. Exactly one of the three
// kinds below backs every entry; the sealed interface keeps the set closed
// so the store can switch over it exhaustively.
type Origin interface {
	// Kind returns OriginURL, OriginPath or OriginBytes.
	Kind() string

	isOrigin()
}

// URLOrigin is content to be fetched from a remote URL on first use.
type URLOrigin struct {
	URL string
}

// Kind implements Origin.
func (URLOrigin) Kind() string { return OriginURL }

func (URLOrigin) isOrigin() {}

// PathOrigin is content copied from an existing local file.
type PathOrigin struct {
	Path string
}

// Kind implements Origin.
func (PathOrigin) Kind() string { return OriginPath }

func (PathOrigin) isOrigin() {}

// BytesOrigin is content supplied in memory at registration.
type BytesOrigin struct {
	Data []byte
}

// Kind implements Origin.
func (BytesOrigin) Kind() string { return OriginBytes }

func (BytesOrigin) isOrigin() {}
