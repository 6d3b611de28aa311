package realtime

import "dental-dashboard/internal/models"

// ApplyReadMark sets the read flag of userID's viewer entry on the
// notification. It never creates a viewer entry and never clears a flag, so
// repeating it is harmless. It reports whether anything changed.
func ApplyReadMark(c *Collection[models.Notification], id, userID string) bool {
	return c.ApplyUpdate(id, func(n *models.Notification) bool {
		for i, v := range n.Viewers {
			if v.User != userID {
				continue
			}
			if v.IsRead {
				return false
			}

			viewers := make([]models.Viewer, len(n.Viewers))
			copy(viewers, n.Viewers)
			viewers[i].IsRead = true
			n.Viewers = viewers
			return true
		}
		return false
	})
}

// MarkAllRead applies ApplyReadMark to every notification and returns how
// many changed.
func MarkAllRead(c *Collection[models.Notification], userID string) int {
	changed := 0
	for _, n := range c.Snapshot() {
		if ApplyReadMark(c, n.ID, userID) {
			changed++
		}
	}
	return changed
}

// ForUser returns the notifications addressed to userID and how many of them
// are unread.
func ForUser(notifications []models.Notification, userID string) ([]models.Notification, int) {
	out := make([]models.Notification, 0, len(notifications))
	unread := 0
	for _, n := range notifications {
		v, ok := n.ViewerFor(userID)
		if !ok {
			continue
		}
		out = append(out, n)
		if !v.IsRead {
			unread++
		}
	}
	return out, unread
}
