package domain

// ElementKind tags one element of a parsed document, in document order.
type ElementKind string

const (
	ElementText    ElementKind = "text"
	ElementTable   ElementKind = "table"
	ElementPicture ElementKind = "picture"
)

// DocumentElement is one item of the parser's output. Table and picture
// elements carry a rendered PNG snapshot.
type DocumentElement struct {
	Kind  ElementKind
	Image []byte
}

// ParsedDocument is the parser's view of one PDF: the ordered elements plus
// a full markdown export.
type ParsedDocument struct {
	Elements []DocumentElement
	Markdown string
}

// ArtifactSuffix distinguishes the markdown artifacts inside a document
// directory. At most one file exists per suffix.
type ArtifactSuffix string

const (
	SuffixOrigin  ArtifactSuffix = "_origin"
	SuffixTrans   ArtifactSuffix = "_trans"
	SuffixExplain ArtifactSuffix = "_explain"
	SuffixThread  ArtifactSuffix = "_thread"
)

// DirectoryInfo describes one document directory in a listing.
type DirectoryInfo struct {
	DirName     string `json:"dir_name"`
	DisplayName string `json:"display_name"`
}
