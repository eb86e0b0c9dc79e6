package release

import (
	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/errs"
)

// Layout maps the positional cells of a release row.
type Layout struct {
	Name         string
	VersionCell  int
	LinkCell     int
	ChecksumCell int
}

var (
	// FlashLayout is the current page: version | flash | link | checksum.
	FlashLayout = Layout{Name: config.LayoutFlash, VersionCell: 0, LinkCell: 2, ChecksumCell: 3}
	// LegacyLayout predates the "Flash" column: version | link | checksum.
	LegacyLayout = Layout{Name: config.LayoutLegacy, VersionCell: 0, LinkCell: 1, ChecksumCell: 2}
)

func LayoutByName(name string) (Layout, error) {
	switch name {
	case config.LayoutFlash, "":
		return FlashLayout, nil
	case config.LayoutLegacy:
		return LegacyLayout, nil
	default:
		return Layout{}, errs.InvalidArgument("%s", errs.Msg(errs.UnknownLayout, name))
	}
}

func (l Layout) minCells() int {
	return max(l.VersionCell, l.LinkCell, l.ChecksumCell) + 1
}
