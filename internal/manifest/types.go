package manifest

// FileName is the manifest location at the root of every bundle
const FileName = "manifest.json"

// Kind identifies which key held the entry list
type Kind string

const (
	// KindEntries is the self-describing shape with aggregate seals
	KindEntries Kind = "entries"
	// KindFiles is the legacy shape without aggregate seals
	KindFiles Kind = "files"
)

// Entry is one declared file of a bundle
type Entry struct {
	Path   string `json:"path" yaml:"path"`
	SHA256 string `json:"sha256" yaml:"sha256"`
	Size   *int64 `json:"size,omitempty" yaml:"size,omitempty"`
}

// HasSize reports whether the entry declares an expected byte length
func (e Entry) HasSize() bool {
	return e.Size != nil
}

// Manifest is a parsed manifest document
type Manifest struct {
	Kind    Kind
	Entries []Entry

	// BundleSHA256 and ManifestSHA256 are the declared seals, trimmed and
	// lowercased. Empty means absent.
	BundleSHA256   string
	ManifestSHA256 string

	// Skipped counts rows dropped because they were not JSON objects
	Skipped int

	// Raw is the decoded document, numbers kept as json.Number
	Raw map[string]any
}

// SelfDescribing reports whether the aggregate seals apply
func (m *Manifest) SelfDescribing() bool {
	return m.Kind == KindEntries
}

// ExpectedPaths returns the declared path set, manifest.json included
func (m *Manifest) ExpectedPaths() map[string]struct{} {
	paths := make(map[string]struct{}, len(m.Entries)+1)
	for _, e := range m.Entries {
		paths[e.Path] = struct{}{}
	}
	paths[FileName] = struct{}{}
	return paths
}
