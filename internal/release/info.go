package release

import (
	"fmt"
	"strings"
)

const porcelainSep = "|"

// Info is the release a page row resolves to. Only Version is ever
// persisted; the rest is rebuilt on every resolution.
type Info struct {
	Codename    string `json:"codename"`
	Version     string `json:"version"`
	ReleaseTag  string `json:"release_tag"`
	DownloadURL string `json:"download_url"`
	Checksum    string `json:"checksum"`
}

// Message renders the resolution result. Porcelain output is
// codename|release_tag|download_url|checksum.
func (i Info) Message(porcelain bool) string {
	if porcelain {
		return strings.Join([]string{i.Codename, i.ReleaseTag, i.DownloadURL, i.Checksum}, porcelainSep)
	}
	return fmt.Sprintf("%s: %s\n\n%s\n\n%s", i.Codename, i.Version, i.DownloadURL, i.Checksum)
}

// ParsePorcelain is the inverse of Message(true). Version is not part of the
// porcelain record and stays empty.
func ParsePorcelain(line string) (Info, error) {
	parts := strings.Split(strings.TrimSpace(line), porcelainSep)
	if len(parts) != 4 {
		return Info{}, fmt.Errorf("porcelain record has %d fields, want 4", len(parts))
	}
	for idx, p := range parts {
		if p == "" {
			return Info{}, fmt.Errorf("porcelain field %d is empty", idx)
		}
	}
	return Info{Codename: parts[0], ReleaseTag: parts[1], DownloadURL: parts[2], Checksum: parts[3]}, nil
}
