package session

import (
	"fmt"
	"time"
)

// Platform identifies the messaging platform a conversation lives on.
type Platform string

// Supported platforms.
const (
	WhatsApp  Platform = "whatsapp"
	Instagram Platform = "instagram"
	Messenger Platform = "messenger"
	Facebook  Platform = "facebook"
)

// Response window defaults. These are policy constants dictated by
// the platforms, not engine logic; override them per integration
// with PolicyFromConfig or a custom Policy.
const (
	WhatsAppWindow = 24 * time.Hour
	MetaWindow     = 7 * 24 * time.Hour
)

// Policy maps platforms to their allowed response windows.
type Policy map[Platform]time.Duration

// DefaultPolicy returns the compiled-in window table.
func DefaultPolicy() Policy {
	return Policy{
		WhatsApp:  WhatsAppWindow,
		Instagram: MetaWindow,
		Messenger: MetaWindow,
		Facebook:  MetaWindow,
	}
}

// Window returns the response window for a platform. Unknown
// platforms fall back to the most restrictive window so a policy
// gap can never widen what a platform allows.
func (p Policy) Window(platform Platform) time.Duration {
	if w, ok := p[platform]; ok && w > 0 {
		return w
	}
	return WhatsAppWindow
}

// Key identifies one conversation: a (platform, counterpart) pair.
type Key struct {
	Platform    Platform
	Counterpart string
}

// String renders the key in "platform/counterpart" form.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Platform, k.Counterpart)
}

// FormatRemaining renders a remaining window as hh:mm:ss for display.
// Hours are not wrapped at 24, so a 7-day window reads "167:59:59".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
