package webui

import "time"

// BannerTTL is how long a banner stays visible after it is shown.
const BannerTTL = 5 * time.Second

// BannerKind styles a banner.
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// Banner is a transient status message.
type Banner struct {
	Text    string
	Kind    BannerKind
	ShownAt time.Time
}

// VisibleAt reports whether the banner is still showing at now.
func (b Banner) VisibleAt(now time.Time) bool {
	return b.Text != "" && now.Sub(b.ShownAt) < BannerTTL
}
