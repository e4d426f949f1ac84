package draw

import (
	"fmt"
	"image"
	"path"
	"path/filepath"
	"strings"

	"stable-thought/core"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// StickerSource resolves a sticker's image URL to its image.
type StickerSource interface {
	Sticker(url string) (image.Image, error)
}

// StickerDir resolves data URLs inline and any other URL as a path below
// the directory. An empty StickerDir resolves data URLs only.
type StickerDir string

func (d StickerDir) Sticker(url string) (image.Image, error) {
	if strings.HasPrefix(url, "data:") {
		return DecodeDataURL(url)
	}
	if d == "" {
		return nil, fmt.Errorf("no sticker directory for %q", url)
	}
	name := path.Clean("/" + url)
	img, err := imaging.Open(filepath.Join(string(d), filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to open sticker %q: %w", url, err)
	}
	return img, nil
}

// ComposeEntry renders an entry's sketch with its stickers on top and
// returns the result as a PNG data URL. Stickers that cannot be resolved are
// skipped. A nil source resolves data URLs only.
func ComposeEntry(entry core.DiaryEntry, size Container, stickers StickerSource) (string, error) {
	s, err := InitCanvas(size)
	if err != nil {
		return "", err
	}

	if entry.DrawingImageData != nil && *entry.DrawingImageData != "" {
		if err := s.LoadImage(*entry.DrawingImageData); err != nil {
			return "", fmt.Errorf("failed to load sketch of %s: %w", entry.Date, err)
		}
	}

	if stickers == nil {
		stickers = StickerDir("")
	}
	for _, st := range entry.Stickers {
		img, err := stickers.Sticker(st.ImageURL)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"sticker": st.ID,
				"date":    entry.Date,
			}).Warn("Failed to load sticker")
			continue
		}
		s.AddSticker(img, st.X, st.Y, st.Scale)
	}

	return s.SaveAsImage()
}
