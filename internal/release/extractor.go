package release

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/utils"
	"github.com/PuerkitoBio/goquery"
)

// LatestIndex selects the last matching row.
const LatestIndex = -1

var tagPattern = regexp.MustCompile(`^.*-(.+)-factory.*$`)

var errMalformedRow = errors.New("malformed row")

type Extractor struct {
	Layout Layout
	Policy Policy
}

func NewExtractor(layout Layout, policy Policy) *Extractor {
	if policy == nil {
		policy = AcceptAll
	}
	return &Extractor{Layout: layout, Policy: policy}
}

// NewExtractorFromConfig resolves the layout and policy names in cfg.
func NewExtractorFromConfig(cfg *config.Config) (*Extractor, error) {
	layout, err := LayoutByName(cfg.Layout)
	if err != nil {
		return nil, err
	}
	policy, err := PolicyByName(cfg.Policy, cfg.CarrierMarkers)
	if err != nil {
		return nil, err
	}
	return NewExtractor(layout, policy), nil
}

// ReleaseTag captures the token between the codename and "-factory" in a
// factory image link.
func ReleaseTag(link string) (string, bool) {
	m := tagPattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Extract picks the release row for codename out of page.
//
// Rows are the tr elements whose id starts with codename. Extraction starts
// at index (negative counts from the end) and walks toward the first row,
// skipping malformed rows and rows the policy flags. Walking past the first
// row yields *errs.NoMatchError.
func (e *Extractor) Extract(page, codename string, index int) (*Info, error) {
	if codename == "" {
		return nil, errs.InvalidArgument("%s", errs.Msg(errs.MissingCodename))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	rows := doc.Find("tr").FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, ok := s.Attr("id")
		return ok && strings.HasPrefix(id, codename)
	})

	n := rows.Length()
	if n == 0 {
		return nil, &errs.NoMatchError{Codename: codename}
	}

	start := index
	if start < 0 {
		start += n
	}
	if start < 0 || start >= n {
		return nil, &errs.NoMatchError{
			Codename: codename,
			Reason:   fmt.Sprintf("index %d out of range for %d rows", index, n),
		}
	}

	for pos := start; pos >= 0; pos-- {
		row := rows.Eq(pos)
		id, _ := row.Attr("id")

		info, err := e.readRow(row, codename)
		if err != nil {
			logger.Debug("skipping row %s: %v", id, err)
			continue
		}
		if e.Policy != nil && e.Policy(*info) {
			logger.Debug("skipping variant row %s (tag %s)", id, info.ReleaseTag)
			continue
		}
		return info, nil
	}

	return nil, &errs.NoMatchError{Codename: codename, Reason: "every candidate row is a variant or malformed"}
}

func (e *Extractor) readRow(row *goquery.Selection, codename string) (*Info, error) {
	cells := row.Find("td")
	if cells.Length() < e.Layout.minCells() {
		return nil, fmt.Errorf("%w: %d cells, layout %q needs %d",
			errMalformedRow, cells.Length(), e.Layout.Name, e.Layout.minCells())
	}

	version := strings.TrimSpace(cells.Eq(e.Layout.VersionCell).Text())
	href, _ := cells.Eq(e.Layout.LinkCell).Find("a").First().Attr("href")
	link := strings.TrimSpace(href)
	checksum := strings.ToLower(strings.TrimSpace(cells.Eq(e.Layout.ChecksumCell).Text()))

	if version == "" {
		return nil, fmt.Errorf("%w: empty version", errMalformedRow)
	}
	if err := validateLink(link); err != nil {
		return nil, err
	}
	if !utils.IsSHA256Hex(checksum) {
		return nil, fmt.Errorf("%w: checksum %q is not a sha256 digest", errMalformedRow, checksum)
	}

	tag, ok := ReleaseTag(link)
	if !ok {
		return nil, fmt.Errorf("%w: no release tag in %s", errMalformedRow, link)
	}

	return &Info{
		Codename:    codename,
		Version:     version,
		ReleaseTag:  tag,
		DownloadURL: link,
		Checksum:    checksum,
	}, nil
}

func validateLink(link string) error {
	u, err := url.Parse(link)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: link %q is not an absolute URL", errMalformedRow, link)
	}
	if !strings.HasSuffix(u.Path, ".zip") {
		return fmt.Errorf("%w: link %q is not a zip archive", errMalformedRow, link)
	}
	return nil
}
